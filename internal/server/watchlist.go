package server

import (
	"net/http"

	"vse_go/internal/service"

	"github.com/go-chi/chi/v5"
)

// WatchlistHandler handles watchlist CRUD.
type WatchlistHandler struct {
	watchlist *service.WatchlistService
}

// NewWatchlistHandler is the constructor.
func NewWatchlistHandler(watchlist *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

type addWatchRequest struct {
	Symbol string `json:"symbol"`
}

// List handles GET /api/watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watchlist.List(r.Context(), accountID(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Add handles POST /api/watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addWatchRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entry, err := h.watchlist.Add(r.Context(), accountID(r), req.Symbol)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Added to watchlist", "id": entry.ID})
}

// Remove handles DELETE /api/watchlist/{symbol}.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlist.Remove(r.Context(), accountID(r), chi.URLParam(r, "symbol")); err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from watchlist"})
}
