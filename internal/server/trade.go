package server

import (
	"fmt"
	"net/http"
	"strconv"

	"vse_go/internal/domain"
	"vse_go/internal/service"

	"github.com/shopspring/decimal"
)

// TradeHandler handles trade execution and portfolio reads.
type TradeHandler struct {
	executor  domain.TradeExecutor
	portfolio *service.PortfolioService
}

// NewTradeHandler is the constructor.
func NewTradeHandler(executor domain.TradeExecutor, portfolio *service.PortfolioService) *TradeHandler {
	return &TradeHandler{executor: executor, portfolio: portfolio}
}

type tradeRequest struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"shares"`
	Side   string          `json:"side"`
	Price  decimal.Decimal `json:"pricePerShare"`
}

type tradeResponse struct {
	Message       string          `json:"message"`
	TransactionID uint            `json:"transactionId"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Shares        int64           `json:"shares"`
	CashBalance   decimal.Decimal `json:"cashBalance"`
}

// Execute handles POST /api/trade.
func (h *TradeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.executor.ExecuteTrade(r.Context(), domain.TradeOrder{
		AccountID:     accountID(r),
		Symbol:        req.Symbol,
		Side:          domain.TradeSide(req.Side),
		Shares:        req.Shares,
		PricePerShare: req.Price,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	verb := "bought"
	if result.Side == domain.SideSell {
		verb = "sold"
	}
	writeJSON(w, http.StatusOK, tradeResponse{
		Message:       fmt.Sprintf("Successfully %s %d shares of %s", verb, result.Shares, result.Symbol),
		TransactionID: result.TransactionID,
		Symbol:        result.Symbol,
		Side:          string(result.Side),
		Shares:        result.Shares,
		CashBalance:   result.CashBalance,
	})
}

// Portfolio handles GET /api/portfolio.
func (h *TradeHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolio.Holdings(r.Context(), accountID(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}

// Summary handles GET /api/portfolio/summary.
func (h *TradeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summarize(r.Context(), accountID(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Transactions handles GET /api/transactions?limit=50.
func (h *TradeHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	txs, err := h.portfolio.Transactions(r.Context(), accountID(r), limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
