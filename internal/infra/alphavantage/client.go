// Package alphavantage implements the quote oracle against the Alpha
// Vantage REST API. Quotes are cached with a TTL to stay inside the
// free-tier rate limits.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"vse_go/internal/domain"
	"vse_go/internal/infra"

	"github.com/shopspring/decimal"
)

// Client talks to the Alpha Vantage query endpoint.
type Client struct {
	apiKey  string
	baseURL string
	httpcli *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote   domain.Quote
	fetched time.Time
}

// NewClient creates a Client. ttl bounds how long a fetched quote is
// served from cache.
func NewClient(apiKey, baseURL string, ttl time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpcli: &http.Client{Timeout: 10 * time.Second},
		ttl:     ttl,
		cache:   make(map[string]cachedQuote),
	}
}

// Quote returns the current quote for a symbol, from cache when fresh.
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrSymbolNotFound
	}

	c.mu.RLock()
	if cached, ok := c.cache[symbol]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		infra.GlobalMetrics.RecordQuoteCacheHit()
		q := cached.quote
		return &q, nil
	}
	c.mu.RUnlock()

	raw, err := c.query(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	gq, ok := raw["Global Quote"].(map[string]any)
	if !ok || len(gq) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	quote, err := parseGlobalQuote(gq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	infra.GlobalMetrics.RecordQuoteFetch()
	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: *quote, fetched: time.Now()}
	c.mu.Unlock()

	return quote, nil
}

// Search looks up symbols matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	raw, err := c.query(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {query},
	})
	if err != nil {
		return nil, err
	}

	matchesRaw, _ := raw["bestMatches"].([]any)
	matches := make([]domain.SymbolMatch, 0, len(matchesRaw))
	for _, m := range matchesRaw {
		fields, ok := m.(map[string]any)
		if !ok {
			continue
		}
		matches = append(matches, domain.SymbolMatch{
			Symbol:   str(fields, "1. symbol"),
			Name:     str(fields, "2. name"),
			Type:     str(fields, "3. type"),
			Region:   str(fields, "4. region"),
			Currency: str(fields, "8. currency"),
		})
	}
	return matches, nil
}

// Intraday returns intraday candles at the given interval, oldest first.
func (c *Client) Intraday(ctx context.Context, symbol, interval string) ([]domain.Candle, error) {
	raw, err := c.query(ctx, url.Values{
		"function": {"TIME_SERIES_INTRADAY"},
		"symbol":   {symbol},
		"interval": {interval},
	})
	if err != nil {
		return nil, err
	}
	return parseSeries(raw, fmt.Sprintf("Time Series (%s)", interval))
}

// DailyHistory returns daily candles (compact: about 100 sessions),
// oldest first.
func (c *Client) DailyHistory(ctx context.Context, symbol string) ([]domain.Candle, error) {
	raw, err := c.query(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"compact"},
	})
	if err != nil {
		return nil, err
	}
	return parseSeries(raw, "Time Series (Daily)")
}

// query performs one GET against the API and decodes the JSON body.
// Rate-limit notices come back as 200 responses with a Note or
// Information field, so they are checked here.
func (c *Client) query(ctx context.Context, params url.Values) (map[string]any, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpcli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrQuoteUnavailable, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	if _, ok := raw["Note"]; ok {
		return nil, fmt.Errorf("%w: rate limited", domain.ErrQuoteUnavailable)
	}
	if _, ok := raw["Information"]; ok {
		return nil, fmt.Errorf("%w: rate limited", domain.ErrQuoteUnavailable)
	}
	return raw, nil
}

func parseGlobalQuote(gq map[string]any) (*domain.Quote, error) {
	price, err := dec(gq, "05. price")
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("missing or invalid price")
	}

	change, _ := dec(gq, "09. change")
	high, _ := dec(gq, "03. high")
	low, _ := dec(gq, "04. low")
	open, _ := dec(gq, "02. open")
	prevClose, _ := dec(gq, "08. previous close")
	changePct, _ := decimal.NewFromString(strings.TrimSuffix(str(gq, "10. change percent"), "%"))
	volume, _ := strconv.ParseInt(str(gq, "06. volume"), 10, 64)

	return &domain.Quote{
		Symbol:        str(gq, "01. symbol"),
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		High:          high,
		Low:           low,
		Open:          open,
		PreviousClose: prevClose,
		Timestamp:     str(gq, "07. latest trading day"),
	}, nil
}

// parseSeries flattens a time-series object into candles sorted by
// timestamp ascending.
func parseSeries(raw map[string]any, key string) ([]domain.Candle, error) {
	series, ok := raw[key].(map[string]any)
	if !ok || len(series) == 0 {
		return nil, domain.ErrSymbolNotFound
	}

	candles := make([]domain.Candle, 0, len(series))
	for ts, v := range series {
		bar, ok := v.(map[string]any)
		if !ok {
			continue
		}
		open, _ := dec(bar, "1. open")
		high, _ := dec(bar, "2. high")
		low, _ := dec(bar, "3. low")
		closep, _ := dec(bar, "4. close")
		volume, _ := strconv.ParseInt(str(bar, "5. volume"), 10, 64)
		candles = append(candles, domain.Candle{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closep,
			Volume:    volume,
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func dec(m map[string]any, key string) (decimal.Decimal, error) {
	return decimal.NewFromString(str(m, key))
}
