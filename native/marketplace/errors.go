package marketplace

import "errors"

var (
	// ErrAlreadyInitialized is returned when the marketplace singleton for an
	// admin already exists.
	ErrAlreadyInitialized = errors.New("marketplace: already initialized")
	// ErrNotFound marks reads of admins with no marketplace.
	ErrNotFound = errors.New("marketplace: marketplace not found")
	// ErrUnauthorized marks product mutations by anyone but the marketplace
	// admin.
	ErrUnauthorized = errors.New("marketplace: unauthorized")
	// ErrProductNotFound marks reads of product indices with no record.
	ErrProductNotFound = errors.New("marketplace: product not found")
	// ErrProductNotActive is returned when purchasing a deactivated product,
	// regardless of remaining stock.
	ErrProductNotActive = errors.New("marketplace: product not active")
	// ErrInsufficientStock is returned when the purchase quantity exceeds the
	// remaining stock.
	ErrInsufficientStock = errors.New("marketplace: insufficient stock")
	// ErrInsufficientBalance is returned when the buyer's spendable balance
	// is below the purchase total.
	ErrInsufficientBalance = errors.New("marketplace: insufficient balance")
	// ErrInvalidPrice marks zero or negative prices.
	ErrInvalidPrice = errors.New("marketplace: price must be positive")
	// ErrInvalidQuantity marks zero purchase quantities.
	ErrInvalidQuantity = errors.New("marketplace: quantity must be positive")
	// ErrInvalidListing marks product listings with missing fields.
	ErrInvalidListing = errors.New("marketplace: invalid product listing")
	// ErrPurchaseNotFound marks reads of purchase indices with no receipt.
	ErrPurchaseNotFound = errors.New("marketplace: purchase not found")
)
