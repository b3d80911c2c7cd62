package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	tradesExecuted atomic.Uint64
	tradesRejected atomic.Uint64
	tradeRetries   atomic.Uint64
	quoteCacheHits atomic.Uint64
	quoteFetches   atomic.Uint64
	errorsTotal    atomic.Uint64

	// Trade latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeStreams atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTrade records a committed trade with its execution latency.
func (m *Metrics) RecordTrade(latencyNs int64) {
	m.tradesExecuted.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordRejection records a trade rejected by a precondition check.
func (m *Metrics) RecordRejection() {
	m.tradesRejected.Add(1)
}

// RecordRetry records an engine-internal retry after a write conflict.
func (m *Metrics) RecordRetry() {
	m.tradeRetries.Add(1)
}

// RecordQuoteCacheHit records a quote served from cache.
func (m *Metrics) RecordQuoteCacheHit() {
	m.quoteCacheHits.Add(1)
}

// RecordQuoteFetch records a quote fetched from the upstream oracle.
func (m *Metrics) RecordQuoteFetch() {
	m.quoteFetches.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementStreams increments active quote-stream connections by 1.
func (m *Metrics) IncrementStreams() {
	m.activeStreams.Add(1)
}

// DecrementStreams decrements active quote-stream connections by 1.
func (m *Metrics) DecrementStreams() {
	m.activeStreams.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TradesExecuted uint64    `json:"trades_executed"`
	TradesRejected uint64    `json:"trades_rejected"`
	TradeRetries   uint64    `json:"trade_retries"`
	QuoteCacheHits uint64    `json:"quote_cache_hits"`
	QuoteFetches   uint64    `json:"quote_fetches"`
	ErrorsTotal    uint64    `json:"errors_total"`
	AvgLatencyNs   int64     `json:"avg_trade_latency_ns"`
	ActiveStreams  int32     `json:"active_streams"`
	Timestamp      time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		TradesExecuted: m.tradesExecuted.Load(),
		TradesRejected: m.tradesRejected.Load(),
		TradeRetries:   m.tradeRetries.Load(),
		QuoteCacheHits: m.quoteCacheHits.Load(),
		QuoteFetches:   m.quoteFetches.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		AvgLatencyNs:   avgLatency,
		ActiveStreams:  m.activeStreams.Load(),
		Timestamp:      time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.tradesExecuted.Store(0)
	m.tradesRejected.Store(0)
	m.tradeRetries.Store(0)
	m.quoteCacheHits.Store(0)
	m.quoteFetches.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeStreams.Store(0)
}
