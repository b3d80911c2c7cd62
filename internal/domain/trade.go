package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeSide is the direction of an order.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeOrder is an immediate-fill market order at a caller-supplied price.
// The price comes from the quote oracle on the client side; the executor
// treats it as authoritative input.
type TradeOrder struct {
	AccountID     uint
	Symbol        string
	Side          TradeSide
	Shares        int64
	PricePerShare decimal.Decimal
}

// Normalize uppercases the symbol and trims whitespace.
func (o *TradeOrder) Normalize() {
	o.Symbol = strings.ToUpper(strings.TrimSpace(o.Symbol))
}

// Validate checks the order preconditions: positive whole shares,
// positive price, known side, non-empty symbol.
func (o *TradeOrder) Validate() error {
	if o.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("%w: side must be %q or %q", ErrInvalidOrder, SideBuy, SideSell)
	}
	if o.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive", ErrInvalidOrder)
	}
	if !o.PricePerShare.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
	}
	return nil
}

// GrossAmount is shares × price, before commission.
func (o *TradeOrder) GrossAmount() decimal.Decimal {
	return o.PricePerShare.Mul(decimal.NewFromInt(o.Shares))
}

// TradeResult confirms a committed trade.
type TradeResult struct {
	TransactionID uint            `json:"transactionId"`
	Symbol        string          `json:"symbol"`
	Side          TradeSide       `json:"side"`
	Shares        int64           `json:"shares"`
	PricePerShare decimal.Decimal `json:"price"`
	GrossAmount   decimal.Decimal `json:"totalAmount"`
	Commission    decimal.Decimal `json:"commission"`
	CashBalance   decimal.Decimal `json:"cashBalance"`
}

// WeightedAvgCost recomputes the average cost basis after buying more
// shares of an existing position:
//
//	(oldShares×oldAvg + newShares×price) / (oldShares+newShares)
//
// Decimal arithmetic keeps the basis exact across many trades; division
// uses decimal's default precision (16 fractional digits).
func WeightedAvgCost(oldShares int64, oldAvg decimal.Decimal, newShares int64, price decimal.Decimal) decimal.Decimal {
	oldQty := decimal.NewFromInt(oldShares)
	newQty := decimal.NewFromInt(newShares)
	total := oldAvg.Mul(oldQty).Add(price.Mul(newQty))
	return total.Div(oldQty.Add(newQty))
}
