package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/clients/superstaq"
)

// Handler handles quantum job HTTP requests.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a jobs handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "jobs").Logger(),
	}
}

// HandleSubmit submits circuits as a new job.
// POST /api/jobs
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Circuits) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one circuit required")
		return
	}

	job, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, job)
}

// HandleList returns stored jobs.
// GET /api/jobs?status=Running&limit=50
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := h.service.List(r.URL.Query().Get("status"), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []*Job{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// HandleGet refreshes and returns one job.
// GET /api/jobs/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.service.Refresh(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// HandleResult returns per-circuit counts for a completed job.
// GET /api/jobs/{id}/result
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := h.service.Result(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// HandleCancel cancels a pending job.
// POST /api/jobs/{id}/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.service.Cancel(id)
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// HandleBalance returns the remote account balance.
// GET /api/balance
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// HandleTargets returns the remote target catalog.
// GET /api/targets
func (h *Handler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.service.Targets(r.Context())
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, targets)
}

// HandleTargetInfo returns metadata about one target.
// GET /api/targets/{target}
func (h *Handler) HandleTargetInfo(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")

	info, err := h.service.TargetInfo(r.Context(), target)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// writeRemoteError maps remote API errors onto their original status
// codes so clients see quota and auth failures as such.
func (h *Handler) writeRemoteError(w http.ResponseWriter, err error) {
	var apiErr *superstaq.APIError
	if errors.As(err, &apiErr) {
		h.writeError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeError(w, http.StatusBadGateway, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
