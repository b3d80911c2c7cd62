package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vse_go/internal/infra"
	"vse_go/internal/service"

	"github.com/gorilla/websocket"
)

const maxStreamSymbols = 20

// StreamHandler pushes quote refreshes over a websocket. Each
// connection polls the cached oracle at a fixed interval, so upstream
// rate limits are respected regardless of subscriber count.
type StreamHandler struct {
	market   *service.MarketService
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewStreamHandler is the constructor.
func NewStreamHandler(market *service.MarketService, interval time.Duration) *StreamHandler {
	return &StreamHandler{
		market:   market,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The browser frontend is served from another origin in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /api/market/stream?symbols=AAPL,MSFT.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "symbols query parameter is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	infra.GlobalMetrics.IncrementStreams()
	defer infra.GlobalMetrics.DecrementStreams()

	// Reader goroutine: only there to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		for _, symbol := range symbols {
			quote, err := h.market.Quote(ctx, symbol)
			if err != nil {
				continue // Symbol stays silent until the oracle recovers
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(quote); err != nil {
				return
			}
		}

		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// parseSymbols splits, trims and uppercases the symbols parameter,
// dropping blanks and truncating to maxStreamSymbols.
func parseSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		symbols = append(symbols, s)
		if len(symbols) == maxStreamSymbols {
			break
		}
	}
	return symbols
}
