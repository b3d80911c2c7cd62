package server

import (
	"net/http"
	"strconv"

	"vse_go/internal/service"
)

// LeaderboardHandler serves the public leaderboard.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

// NewLeaderboardHandler is the constructor.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Rank handles GET /api/leaderboard?limit=20.
func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboard.Rank(r.Context(), limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
