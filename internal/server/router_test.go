package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vse_go/internal/domain"
	"vse_go/internal/engine"
	"vse_go/internal/infra"
	"vse_go/internal/infra/storage"
	"vse_go/internal/service"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// stubProvider serves canned quotes for router tests.
type stubProvider struct {
	quotes map[string]domain.Quote
}

func (p *stubProvider) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	q, ok := p.quotes[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return &q, nil
}

func (p *stubProvider) Search(context.Context, string) ([]domain.SymbolMatch, error) {
	return []domain.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc"}}, nil
}

func (p *stubProvider) Intraday(context.Context, string, string) ([]domain.Candle, error) {
	return []domain.Candle{}, nil
}

func (p *stubProvider) DailyHistory(context.Context, string) ([]domain.Candle, error) {
	return []domain.Candle{}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	starting := decimal.NewFromInt(100000)
	auth := service.NewAuthService(store, "test-secret", time.Hour, starting)
	provider := &stubProvider{quotes: map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(150), Volume: 1000},
	}}
	logos, err := infra.NewLogoDownloader(t.TempDir(), "http://127.0.0.1:0/%s.png")
	if err != nil {
		t.Fatalf("failed to create logo downloader: %v", err)
	}

	router := NewRouter(Deps{
		Auth:           auth,
		Executor:       engine.NewExecutor(store, decimal.RequireFromString("4.95"), 5),
		Portfolio:      service.NewPortfolioService(store),
		Leaderboard:    service.NewLeaderboardService(store),
		Watchlist:      service.NewWatchlistService(store),
		Market:         service.NewMarketService(provider, []string{"AAPL"}),
		Logos:          logos,
		StreamInterval: time.Second,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func registerUser(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	if body.Token == "" {
		t.Fatal("register returned empty token")
	}
	return body.Token
}

func TestRegisterLoginProfile(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/auth/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile returned %d", resp.StatusCode)
	}
	var profile struct {
		Username     string `json:"username"`
		PasswordHash string `json:"passwordHash"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.Username != "alice" {
		t.Errorf("profile username: got %s", profile.Username)
	}
	if bytes.Contains(raw, []byte("password")) {
		t.Error("profile response leaks password hash")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/portfolio", "/api/portfolio/summary", "/api/transactions", "/api/watchlist", "/api/auth/profile"} {
		resp := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/portfolio", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", resp.StatusCode)
	}
}

func TestTradeFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trade", token, map[string]any{
		"symbol":        "AAPL",
		"shares":        10,
		"side":          "buy",
		"pricePerShare": "150",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trade returned %d", resp.StatusCode)
	}
	var trade struct {
		Symbol      string          `json:"symbol"`
		Shares      int64           `json:"shares"`
		CashBalance decimal.Decimal `json:"cashBalance"`
	}
	decodeBody(t, resp, &trade)
	if trade.Symbol != "AAPL" || trade.Shares != 10 {
		t.Errorf("unexpected trade response: %+v", trade)
	}
	if !trade.CashBalance.Equal(decimal.RequireFromString("98495.05")) {
		t.Errorf("cash after buy: got %s, want 98495.05", trade.CashBalance)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/portfolio", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("portfolio returned %d", resp.StatusCode)
	}
	var holdings []struct {
		Symbol string `json:"symbol"`
		Shares int64  `json:"shares"`
	}
	decodeBody(t, resp, &holdings)
	if len(holdings) != 1 || holdings[0].Symbol != "AAPL" || holdings[0].Shares != 10 {
		t.Errorf("unexpected holdings: %+v", holdings)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/portfolio/summary", token, nil)
	var summary struct {
		TotalPortfolioValue decimal.Decimal `json:"totalPortfolioValue"`
	}
	decodeBody(t, resp, &summary)
	if !summary.TotalPortfolioValue.Equal(decimal.RequireFromString("99995.05")) {
		t.Errorf("total value: got %s, want 99995.05", summary.TotalPortfolioValue)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions?limit=10", token, nil)
	var txs []struct {
		Side string `json:"side"`
	}
	decodeBody(t, resp, &txs)
	if len(txs) != 1 || txs[0].Side != "buy" {
		t.Errorf("unexpected transactions: %+v", txs)
	}
}

func TestTradeErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	trade := func(symbol string, shares int64, side, price string) *http.Response {
		return doJSON(t, http.MethodPost, srv.URL+"/api/trade", token, map[string]any{
			"symbol":        symbol,
			"shares":        shares,
			"side":          side,
			"pricePerShare": price,
		})
	}

	cases := []struct {
		name string
		resp *http.Response
		want int
	}{
		{"invalid side", trade("AAPL", 10, "short", "150"), http.StatusBadRequest},
		{"zero shares", trade("AAPL", 0, "buy", "150"), http.StatusBadRequest},
		{"insufficient funds", trade("AAPL", 1000000, "buy", "150"), http.StatusConflict},
		{"sell without position", trade("MSFT", 1, "sell", "150"), http.StatusNotFound},
	}
	for _, tc := range cases {
		if tc.resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, tc.resp.StatusCode)
		}
	}

	// Selling more than held is a conflict.
	if resp := trade("AAPL", 5, "buy", "150"); resp.StatusCode != http.StatusOK {
		t.Fatalf("setup buy failed: %d", resp.StatusCode)
	}
	if resp := trade("AAPL", 6, "sell", "150"); resp.StatusCode != http.StatusConflict {
		t.Errorf("oversell: expected 409, got %d", resp.StatusCode)
	}
}

func TestTrade_MalformedBody(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/trade", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWatchlistEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/watchlist", token, map[string]string{"symbol": "aapl"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add returned %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/watchlist", token, map[string]string{"symbol": "AAPL"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate add: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/watchlist", token, nil)
	var entries []struct {
		Symbol string `json:"symbol"`
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 1 || entries[0].Symbol != "AAPL" {
		t.Errorf("unexpected watchlist: %+v", entries)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/watchlist/AAPL", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("remove returned %d", resp.StatusCode)
	}
}

func TestMarketEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/market/quote/AAPL", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quote returned %d", resp.StatusCode)
	}
	var quote struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	decodeBody(t, resp, &quote)
	if quote.Symbol != "AAPL" || !quote.Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected quote: %+v", quote)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/market/quote/NOPE", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown symbol: expected 404, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/market/chart/AAPL/2min", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad interval: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/market/overview", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("overview returned %d", resp.StatusCode)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		registerUser(t, srv, fmt.Sprintf("user%d", i))
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/leaderboard?limit=2", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard returned %d", resp.StatusCode)
	}
	var entries []struct {
		Rank     int    `json:"rank"`
		Username string `json:"username"`
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Rank != 1 {
		t.Errorf("first entry rank: got %d", entries[0].Rank)
	}
}

func TestMarketStream(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/market/stream?symbols=AAPL"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// The first quote is pushed right after the upgrade.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var quote struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := conn.ReadJSON(&quote); err != nil {
		t.Fatalf("failed to read quote from stream: %v", err)
	}
	if quote.Symbol != "AAPL" || !quote.Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected streamed quote: %+v", quote)
	}
}

func TestMarketStream_RequiresSymbols(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/market/stream", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without symbols, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz returned %d", resp.StatusCode)
	}
}
