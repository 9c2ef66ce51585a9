package marketplace

import "math/big"

// State is the singleton marketplace record, one per admin identity. The
// admin, payment asset, and treasury are fixed at initialization; the two
// counters only grow and double as the next-index generators for product and
// purchase addressing.
type State struct {
	Admin         [20]byte
	PaymentAsset  string
	Treasury      [20]byte
	ProductCount  uint64
	TotalSales    uint64
	IsInitialized bool
}

// Product is a marketplace listing. Name and description are fixed at
// creation; price and stock stay mutable by the admin. Purchases are only
// permitted while the product is active.
type Product struct {
	ID          uint64
	Name        string
	Description string
	Price       *big.Int
	Stock       uint64
	SoldCount   uint64
	IsActive    bool
	Seller      [20]byte
}

// Purchase is an immutable receipt. TotalPrice snapshots the product price at
// purchase time; later price changes never rewrite history.
type Purchase struct {
	ProductID  uint64
	Buyer      [20]byte
	Quantity   uint64
	TotalPrice *big.Int
	Timestamp  uint64
}

// PriceUpdate expresses the optional price parameter of UpdateProduct as an
// explicit keep-or-set choice instead of a nil sentinel.
type PriceUpdate struct {
	set   bool
	value *big.Int
}

// KeepPrice leaves the product price unchanged.
func KeepPrice() PriceUpdate { return PriceUpdate{} }

// SetPrice replaces the product price.
func SetPrice(v *big.Int) PriceUpdate {
	return PriceUpdate{set: true, value: new(big.Int).Set(v)}
}

// StockUpdate expresses the optional stock parameter of UpdateProduct.
type StockUpdate struct {
	set   bool
	value uint64
}

// KeepStock leaves the product stock unchanged.
func KeepStock() StockUpdate { return StockUpdate{} }

// SetStock replaces the product stock.
func SetStock(v uint64) StockUpdate { return StockUpdate{set: true, value: v} }
