package optimization

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles optimization HTTP requests.
type Handler struct {
	service *SharpeService
	log     zerolog.Logger
}

// NewHandler creates an optimization handler.
func NewHandler(service *SharpeService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// HandleRun runs an optimization.
// POST /api/optimizer/run {"symbols": ["AAPL", "MSFT"], ...}
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) < 2 {
		h.writeError(w, http.StatusBadRequest, "at least two symbols required")
		return
	}

	result, err := h.service.Optimize(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Strs("symbols", req.Symbols).Msg("Optimization failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns recent persisted runs.
// GET /api/optimizer/runs?limit=20
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.service.History(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []StoredRun{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
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
