package storage

import (
	"errors"

	"vse_go/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is a transaction-scoped view of the store, handed to the trade
// executor by Transact. All mutations through a Ledger either commit
// together or roll back together.
type Ledger struct {
	db *gorm.DB
}

// Account loads the account row inside the transaction.
func (l *Ledger) Account(id uint) (*domain.Account, error) {
	var account domain.Account
	err := l.db.First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SetCashBalance writes the account's new cash balance.
func (l *Ledger) SetCashBalance(accountID uint, balance decimal.Decimal) error {
	return l.db.Model(&domain.Account{}).
		Where("id = ?", accountID).
		Update("cash_balance", balance).Error
}

// Holding loads the (account, symbol) position, or nil when the account
// holds no shares of the symbol.
func (l *Ledger) Holding(accountID uint, symbol string) (*domain.Holding, error) {
	var holding domain.Holding
	err := l.db.First(&holding, "account_id = ? AND symbol = ?", accountID, symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

// SaveHolding creates or updates a position row.
func (l *Ledger) SaveHolding(holding *domain.Holding) error {
	return l.db.Save(holding).Error
}

// DeleteHolding removes an emptied position row. Zero-share holdings
// must never persist.
func (l *Ledger) DeleteHolding(holding *domain.Holding) error {
	return l.db.Delete(holding).Error
}

// AppendTransaction writes the immutable trade record and fills in its id.
func (l *Ledger) AppendTransaction(tx *domain.Transaction) error {
	return l.db.Create(tx).Error
}
