package marketdata

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles market data HTTP requests.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a market data handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleListSymbols returns the symbols with local price history.
// GET /api/prices
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.service.ListSymbols()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": symbols})
}

// HandleGetPrices returns a symbol's stored daily prices.
// GET /api/prices/{symbol}?days=252
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	prices, err := h.service.GetPrices(symbol, days)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if prices == nil {
		prices = []DailyPrice{}
	}
	h.writeJSON(w, http.StatusOK, prices)
}

// HandleSync triggers a price sync for the requested symbols.
// POST /api/prices/sync {"symbols": ["AAPL"], "period": "2y"}
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
		Period  string   `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	results := h.service.SyncSymbols(req.Symbols, req.Period)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// HandleQuote returns a symbol's live price from Yahoo.
// GET /api/prices/{symbol}/quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.Quote(chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// HandleQuotes returns live prices for the requested symbols, or for
// every tracked symbol when none are given.
// GET /api/prices/quotes?symbols=AAPL,MSFT
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		symbols = strings.Split(raw, ",")
	}

	quotes, err := h.service.Quotes(symbols)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if quotes == nil {
		quotes = []Quote{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"quotes": quotes})
}

// HandleIndicator computes a technical indicator over local history.
// GET /api/prices/{symbol}/indicator?name=sma&period=20&days=252
func (h *Handler) HandleIndicator(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	name := r.URL.Query().Get("name")
	period, _ := strconv.Atoi(r.URL.Query().Get("period"))
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	series, err := h.service.Indicator(symbol, name, period, days)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, series)
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
