package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vse_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the durable ledger store backed by SQLite (pure Go driver).
// Accounts, holdings, transactions and watchlist entries live here.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at path and runs
// migrations.
func NewStorage(path string) (*Storage, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait briefly on lock contention instead of failing immediately;
	// the executor still retries on top of this.
	if err := db.Exec("PRAGMA busy_timeout = 3000").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.Holding{},
		&domain.Transaction{},
		&domain.WatchlistEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Transact runs fn inside a single database transaction. Any error
// returned by fn rolls the whole unit of work back. Store-level write
// conflicts are wrapped as retriable domain.ConflictError.
func (s *Storage) Transact(ctx context.Context, op string, fn func(l *Ledger) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Ledger{db: tx})
	})
	if err != nil && isBusy(err) {
		return &domain.ConflictError{Op: op, Err: err}
	}
	return err
}

// isBusy reports whether err is a SQLite lock contention error.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ======================================================================================
// Account Operations
// ======================================================================================

// CreateAccount persists a new account. Duplicate email or username
// yields domain.ErrDuplicateAccount.
func (s *Storage) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

// GetAccount retrieves an account by id.
func (s *Storage) GetAccount(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountByUsername retrieves an account by username.
func (s *Storage) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).First(&account, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns all accounts ordered by id.
func (s *Storage) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.db.WithContext(ctx).Order("id").Find(&accounts).Error
	return accounts, err
}

// ======================================================================================
// Holding / Transaction Reads
// ======================================================================================

// ListHoldings returns all holdings for an account ordered by symbol.
func (s *Storage) ListHoldings(ctx context.Context, accountID uint) ([]domain.Holding, error) {
	var holdings []domain.Holding
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order("symbol").Find(&holdings).Error
	return holdings, err
}

// ListAllHoldings returns every holding in the store, for leaderboard
// aggregation.
func (s *Storage) ListAllHoldings(ctx context.Context) ([]domain.Holding, error) {
	var holdings []domain.Holding
	err := s.db.WithContext(ctx).Find(&holdings).Error
	return holdings, err
}

// ListTransactions returns an account's most recent transactions,
// newest first.
func (s *Storage) ListTransactions(ctx context.Context, accountID uint, limit int) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// CountTransactions returns the number of trades an account has executed.
func (s *Storage) CountTransactions(ctx context.Context, accountID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

// ======================================================================================
// Watchlist Operations
// ======================================================================================

// ListWatchlist returns an account's watchlist entries, oldest first.
func (s *Storage) ListWatchlist(ctx context.Context, accountID uint) ([]domain.WatchlistEntry, error) {
	var entries []domain.WatchlistEntry
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id").Find(&entries).Error
	return entries, err
}

// AddWatch inserts a watchlist entry. A duplicate symbol for the same
// account yields domain.ErrAlreadyWatched.
func (s *Storage) AddWatch(ctx context.Context, entry *domain.WatchlistEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyWatched
		}
		return err
	}
	return nil
}

// RemoveWatch deletes a watchlist entry by account and symbol.
func (s *Storage) RemoveWatch(ctx context.Context, accountID uint, symbol string) error {
	return s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Delete(&domain.WatchlistEntry{}).Error
}
