package server

import (
	"net/http"

	"vse_go/internal/infra"
	"vse_go/internal/service"

	"github.com/go-chi/chi/v5"
)

// MarketHandler serves market data and cached symbol logos.
type MarketHandler struct {
	market *service.MarketService
	logos  *infra.LogoDownloader
}

// NewMarketHandler is the constructor.
func NewMarketHandler(market *service.MarketService, logos *infra.LogoDownloader) *MarketHandler {
	return &MarketHandler{market: market, logos: logos}
}

// Quote handles GET /api/market/quote/{symbol}.
func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.market.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Search handles GET /api/market/search/{query}.
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	matches, err := h.market.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// Chart handles GET /api/market/chart/{symbol}/{interval}.
func (h *MarketHandler) Chart(w http.ResponseWriter, r *http.Request) {
	candles, err := h.market.Chart(r.Context(), chi.URLParam(r, "symbol"), chi.URLParam(r, "interval"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candles)
}

// History handles GET /api/market/history/{symbol}.
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	candles, err := h.market.History(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candles)
}

// Overview handles GET /api/market/overview.
func (h *MarketHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.market.Overview(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Logo handles GET /logos/{symbol}, downloading and resizing the
// company logo on first request.
func (h *MarketHandler) Logo(w http.ResponseWriter, r *http.Request) {
	if h.logos == nil {
		writeError(w, http.StatusNotFound, "not_found", "logo cache disabled")
		return
	}
	path, err := h.logos.Download(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "logo not available")
		return
	}
	http.ServeFile(w, r, path)
}
