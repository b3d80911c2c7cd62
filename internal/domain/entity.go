package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monetary columns are declared as TEXT: SQLite's NUMERIC affinity
// would coerce decimal strings to floats and break exact round-trips.

// Account is a user's trading identity: credentials plus cash.
// StartingBalance is immutable after registration; CashBalance only
// changes through the trade executor.
type Account struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Email           string          `gorm:"uniqueIndex;not null" json:"email"`
	Username        string          `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash    string          `gorm:"not null" json:"-"`
	CashBalance     decimal.Decimal `gorm:"type:text;not null" json:"cash_balance"`
	StartingBalance decimal.Decimal `gorm:"type:text;not null" json:"starting_balance"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Holding is an open position in one symbol. A holding with zero shares
// must not exist: the row is deleted when a sell empties it.
// AvgCost is the quantity-weighted average purchase price, recomputed on
// each buy and left untouched by sells.
type Holding struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	AccountID uint            `gorm:"uniqueIndex:idx_account_symbol;not null;index" json:"account_id"`
	Symbol    string          `gorm:"uniqueIndex:idx_account_symbol;not null" json:"symbol"`
	Shares    int64           `gorm:"not null" json:"shares"`
	AvgCost   decimal.Decimal `gorm:"type:text;not null" json:"avg_cost"`
	CreatedAt time.Time       `json:"purchase_date"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is the append-only ledger record of one executed trade.
// Rows are never updated or deleted.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	AccountID     uint            `gorm:"not null;index" json:"account_id"`
	Symbol        string          `gorm:"not null" json:"symbol"`
	Side          TradeSide       `gorm:"not null" json:"side"`
	Shares        int64           `gorm:"not null" json:"shares"`
	PricePerShare decimal.Decimal `gorm:"type:text;not null" json:"price"`
	GrossAmount   decimal.Decimal `gorm:"type:text;not null" json:"total_amount"`
	Commission    decimal.Decimal `gorm:"type:text;not null" json:"commission"`
	CreatedAt     time.Time       `json:"timestamp"`
}

// WatchlistEntry marks a symbol an account is tracking.
// Unique per (account, symbol); symbols are stored uppercased.
type WatchlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"uniqueIndex:idx_watch_account_symbol;not null;index" json:"account_id"`
	Symbol    string    `gorm:"uniqueIndex:idx_watch_account_symbol;not null" json:"symbol"`
	CreatedAt time.Time `json:"added_date"`
}
