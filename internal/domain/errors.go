package domain

import "errors"

// RetriableError marks errors that the engine may retry internally.
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable reports whether err (or anything it wraps) is retriable.
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// ConflictError wraps a store-level write conflict (e.g. SQLITE_BUSY).
// These are retriable: the unit of work rolled back cleanly and can be
// re-run against fresh state, transparent to the caller.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	return "write conflict during " + e.Op + ": " + e.Err.Error()
}

func (e *ConflictError) IsRetriable() bool { return true }

func (e *ConflictError) Unwrap() error { return e.Err }

// Sentinel errors for the trading core and its surfaces. The handler
// layer maps these to HTTP status codes.
var (
	// ErrInvalidOrder is returned for a malformed quantity, price or side. Caller error, never retried.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientFunds is returned when a buy exceeds available cash. No partial fills.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares is returned when a sell exceeds held shares. No partial or short sells.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNoPosition is returned when selling a symbol the account does not hold.
	ErrNoPosition = errors.New("no position in symbol")

	// ErrAccountNotFound is returned when the account id resolves to nothing.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when the email or username is already registered.
	ErrDuplicateAccount = errors.New("email or username already exists")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyWatched is returned when the symbol is already on the watchlist.
	ErrAlreadyWatched = errors.New("symbol already in watchlist")

	// ErrSymbolNotFound is returned when the quote oracle does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrQuoteUnavailable is returned when the quote oracle fails or is rate limited.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
