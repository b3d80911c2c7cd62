// Package engine contains the trade execution core: the state machine
// that turns an order into an atomic account/holding/ledger mutation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vse_go/internal/domain"
	"vse_go/internal/infra"
	"vse_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Executor validates orders and commits them against the ledger store.
// Each ExecuteTrade call is one serializable unit of work: the cash
// debit/credit, the holding mutation and the transaction record either
// all persist or none do.
type Executor struct {
	store      *storage.Storage
	commission decimal.Decimal
	maxRetries int
}

// NewExecutor creates an Executor charging a fixed commission per trade.
// maxRetries bounds the internal retry loop on store write conflicts.
func NewExecutor(store *storage.Storage, commission decimal.Decimal, maxRetries int) *Executor {
	return &Executor{
		store:      store,
		commission: commission,
		maxRetries: maxRetries,
	}
}

// ExecuteTrade runs the full buy/sell algorithm. Precondition failures
// (invalid order, insufficient funds or shares, no position) abort
// before any mutation persists. Write conflicts are retried
// transparently up to maxRetries; every other error surfaces as-is
// after a clean rollback.
func (e *Executor) ExecuteTrade(ctx context.Context, order domain.TradeOrder) (*domain.TradeResult, error) {
	order.Normalize()
	if err := order.Validate(); err != nil {
		infra.GlobalMetrics.RecordRejection()
		return nil, err
	}

	start := time.Now()

	var result *domain.TradeResult
	for attempt := 0; ; attempt++ {
		err := e.store.Transact(ctx, "trade", func(l *storage.Ledger) error {
			r, err := e.apply(l, &order)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err == nil {
			break
		}
		if domain.IsRetriable(err) && attempt < e.maxRetries {
			infra.GlobalMetrics.RecordRetry()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
			}
			continue
		}
		if isRejection(err) {
			infra.GlobalMetrics.RecordRejection()
		} else {
			infra.GlobalMetrics.RecordError()
		}
		return nil, err
	}

	infra.GlobalMetrics.RecordTrade(time.Since(start).Nanoseconds())
	slog.InfoContext(ctx, "trade executed",
		slog.Uint64("account_id", uint64(order.AccountID)),
		slog.String("symbol", order.Symbol),
		slog.String("side", string(order.Side)),
		slog.Int64("shares", order.Shares),
		slog.String("price", order.PricePerShare.String()),
		slog.Uint64("transaction_id", uint64(result.TransactionID)),
	)
	return result, nil
}

// apply runs the order's step sequence against the transaction-scoped
// ledger. Returning an error rolls everything back.
func (e *Executor) apply(l *storage.Ledger, order *domain.TradeOrder) (*domain.TradeResult, error) {
	switch order.Side {
	case domain.SideBuy:
		return e.buy(l, order)
	case domain.SideSell:
		return e.sell(l, order)
	default:
		return nil, fmt.Errorf("%w: side %q", domain.ErrInvalidOrder, order.Side)
	}
}

func (e *Executor) buy(l *storage.Ledger, order *domain.TradeOrder) (*domain.TradeResult, error) {
	gross := order.GrossAmount()
	totalCost := gross.Add(e.commission)

	account, err := l.Account(order.AccountID)
	if err != nil {
		return nil, err
	}
	if account.CashBalance.LessThan(totalCost) {
		return nil, fmt.Errorf("%w: need %s, have %s",
			domain.ErrInsufficientFunds, totalCost.StringFixed(2), account.CashBalance.StringFixed(2))
	}

	newBalance := account.CashBalance.Sub(totalCost)
	if err := l.SetCashBalance(account.ID, newBalance); err != nil {
		return nil, err
	}

	holding, err := l.Holding(order.AccountID, order.Symbol)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		holding = &domain.Holding{
			AccountID: order.AccountID,
			Symbol:    order.Symbol,
			Shares:    order.Shares,
			AvgCost:   order.PricePerShare,
		}
	} else {
		holding.AvgCost = domain.WeightedAvgCost(holding.Shares, holding.AvgCost, order.Shares, order.PricePerShare)
		holding.Shares += order.Shares
	}
	if err := l.SaveHolding(holding); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		AccountID:     order.AccountID,
		Symbol:        order.Symbol,
		Side:          domain.SideBuy,
		Shares:        order.Shares,
		PricePerShare: order.PricePerShare,
		GrossAmount:   gross,
		Commission:    e.commission,
	}
	if err := l.AppendTransaction(record); err != nil {
		return nil, err
	}

	return &domain.TradeResult{
		TransactionID: record.ID,
		Symbol:        order.Symbol,
		Side:          domain.SideBuy,
		Shares:        order.Shares,
		PricePerShare: order.PricePerShare,
		GrossAmount:   gross,
		Commission:    e.commission,
		CashBalance:   newBalance,
	}, nil
}

func (e *Executor) sell(l *storage.Ledger, order *domain.TradeOrder) (*domain.TradeResult, error) {
	holding, err := l.Holding(order.AccountID, order.Symbol)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoPosition, order.Symbol)
	}
	if holding.Shares < order.Shares {
		return nil, fmt.Errorf("%w: have %d, selling %d",
			domain.ErrInsufficientShares, holding.Shares, order.Shares)
	}

	gross := order.GrossAmount()
	// Commission reduces proceeds on a sell, unlike a buy where it adds
	// to the cost.
	netProceeds := gross.Sub(e.commission)

	account, err := l.Account(order.AccountID)
	if err != nil {
		return nil, err
	}
	newBalance := account.CashBalance.Add(netProceeds)
	// A tiny sell whose proceeds don't cover the commission would push
	// cash below zero; reject it like any other unaffordable trade.
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: proceeds %s do not cover commission %s with cash %s",
			domain.ErrInsufficientFunds, gross.StringFixed(2), e.commission.StringFixed(2), account.CashBalance.StringFixed(2))
	}
	if err := l.SetCashBalance(account.ID, newBalance); err != nil {
		return nil, err
	}

	if holding.Shares == order.Shares {
		if err := l.DeleteHolding(holding); err != nil {
			return nil, err
		}
	} else {
		// AvgCost stays put: realized gain/loss is not tracked separately.
		holding.Shares -= order.Shares
		if err := l.SaveHolding(holding); err != nil {
			return nil, err
		}
	}

	record := &domain.Transaction{
		AccountID:     order.AccountID,
		Symbol:        order.Symbol,
		Side:          domain.SideSell,
		Shares:        order.Shares,
		PricePerShare: order.PricePerShare,
		GrossAmount:   gross,
		Commission:    e.commission,
	}
	if err := l.AppendTransaction(record); err != nil {
		return nil, err
	}

	return &domain.TradeResult{
		TransactionID: record.ID,
		Symbol:        order.Symbol,
		Side:          domain.SideSell,
		Shares:        order.Shares,
		PricePerShare: order.PricePerShare,
		GrossAmount:   gross,
		Commission:    e.commission,
		CashBalance:   newBalance,
	}, nil
}

// isRejection reports whether err is a precondition failure rather
// than an infrastructure fault.
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidOrder) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrInsufficientShares) ||
		errors.Is(err, domain.ErrNoPosition) ||
		errors.Is(err, domain.ErrAccountNotFound)
}
