package marketplace

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"clubchain/core/events"
	"clubchain/core/state"
	"clubchain/core/types"
)

// engineState is the subset of state manager functionality the marketplace
// engine needs.
type engineState interface {
	Get(addr state.Address, out interface{}) error
	Put(addr state.Address, record interface{}) error
	Create(addr state.Address, record interface{}) error
	Transfer(from, to []byte, amount *big.Int) error
	AppendEvent(evt *types.Event)
}

// Engine owns the marketplace, product, and purchase records. Product
// mutation is admin-gated; a purchase moves the payment, the stock, the sold
// counter, the sales index, and the receipt as one staged unit, so a failure
// anywhere leaves nothing applied once the caller discards.
type Engine struct {
	state        engineState
	nowFn        func() int64
	defaultAsset string
}

// NewEngine constructs a marketplace engine bound to the provided state.
func NewEngine(st engineState) *Engine {
	return &Engine{
		state: st,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used for purchase receipts. Primarily
// intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetDefaultAsset sets the payment asset used when Initialize is called
// without one.
func (e *Engine) SetDefaultAsset(asset string) {
	e.defaultAsset = strings.ToUpper(strings.TrimSpace(asset))
}

// Initialize creates the marketplace singleton for the admin identity. An
// empty payment asset falls back to the engine's configured default.
func (e *Engine) Initialize(admin [20]byte, paymentAsset string, treasury [20]byte) (state.Address, error) {
	asset := strings.ToUpper(strings.TrimSpace(paymentAsset))
	if asset == "" {
		asset = e.defaultAsset
	}
	if asset == "" {
		return state.Address{}, errors.New("marketplace: payment asset required")
	}
	addr := state.MarketplaceAddress(admin[:])
	market := &State{
		Admin:         admin,
		PaymentAsset:  asset,
		Treasury:      treasury,
		IsInitialized: true,
	}
	if err := e.state.Create(addr, market); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return state.Address{}, ErrAlreadyInitialized
		}
		return state.Address{}, err
	}
	e.state.AppendEvent(events.MarketplaceInitialized{
		Marketplace:  addr,
		Admin:        admin,
		PaymentAsset: asset,
		Treasury:     treasury,
	}.Event())
	return addr, nil
}

// GetState loads the marketplace record for an admin identity.
func (e *Engine) GetState(admin [20]byte) (*State, error) {
	market := new(State)
	if err := e.state.Get(state.MarketplaceAddress(admin[:]), market); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return market, nil
}

// AddProduct lists a new product. The marketplace's product counter supplies
// the next index and is bumped in the same staged unit as the listing.
func (e *Engine) AddProduct(admin [20]byte, name, description string, price *big.Int, stock uint64, authority [20]byte) (state.Address, *Product, error) {
	market, err := e.GetState(admin)
	if err != nil {
		return state.Address{}, nil, err
	}
	if market.Admin != authority {
		return state.Address{}, nil, ErrUnauthorized
	}
	if strings.TrimSpace(name) == "" {
		return state.Address{}, nil, ErrInvalidListing
	}
	if price == nil || price.Sign() <= 0 {
		return state.Address{}, nil, ErrInvalidPrice
	}

	marketAddr := state.MarketplaceAddress(admin[:])
	productAddr := state.ProductAddress(marketAddr, market.ProductCount)
	product := &Product{
		ID:          market.ProductCount,
		Name:        name,
		Description: description,
		Price:       new(big.Int).Set(price),
		Stock:       stock,
		IsActive:    true,
		Seller:      market.Admin,
	}
	if err := e.state.Create(productAddr, product); err != nil {
		return state.Address{}, nil, err
	}
	market.ProductCount++
	if err := e.state.Put(marketAddr, market); err != nil {
		return state.Address{}, nil, err
	}
	e.state.AppendEvent(events.ProductAdded{
		Marketplace: marketAddr,
		Product:     productAddr,
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Stock:       product.Stock,
	}.Event())
	return productAddr, product, nil
}

// GetProduct loads a product by marketplace admin and product index.
func (e *Engine) GetProduct(admin [20]byte, id uint64) (*Product, error) {
	product := new(Product)
	addr := state.ProductAddress(state.MarketplaceAddress(admin[:]), id)
	if err := e.state.Get(addr, product); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the requested price and stock changes. Either field
// can be kept unchanged independently.
func (e *Engine) UpdateProduct(admin [20]byte, id uint64, price PriceUpdate, stock StockUpdate, authority [20]byte) (*Product, error) {
	market, err := e.GetState(admin)
	if err != nil {
		return nil, err
	}
	if market.Admin != authority {
		return nil, ErrUnauthorized
	}
	product, err := e.GetProduct(admin, id)
	if err != nil {
		return nil, err
	}
	if price.set {
		if price.value == nil || price.value.Sign() <= 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = new(big.Int).Set(price.value)
	}
	if stock.set {
		product.Stock = stock.value
	}
	addr := state.ProductAddress(state.MarketplaceAddress(admin[:]), id)
	if err := e.state.Put(addr, product); err != nil {
		return nil, err
	}
	e.state.AppendEvent(events.ProductUpdated{
		Product: addr,
		Price:   product.Price,
		Stock:   product.Stock,
	}.Event())
	return product, nil
}

// DeactivateProduct takes a product off sale. There is no reactivation path.
func (e *Engine) DeactivateProduct(admin [20]byte, id uint64, authority [20]byte) error {
	market, err := e.GetState(admin)
	if err != nil {
		return err
	}
	if market.Admin != authority {
		return ErrUnauthorized
	}
	product, err := e.GetProduct(admin, id)
	if err != nil {
		return err
	}
	product.IsActive = false
	addr := state.ProductAddress(state.MarketplaceAddress(admin[:]), id)
	if err := e.state.Put(addr, product); err != nil {
		return err
	}
	e.state.AppendEvent(events.ProductDeactivated{Product: addr}.Event())
	return nil
}

// Purchase buys quantity units of a product for the buyer. The payment
// transfer to the treasury, the stock decrement, the sold counter, the sales
// index, and the receipt creation are staged together; a failure anywhere
// leaves the store untouched. Each call consumes exactly one sales index
// regardless of quantity.
func (e *Engine) Purchase(admin [20]byte, id uint64, buyer [20]byte, quantity uint64) (state.Address, *Purchase, error) {
	market, err := e.GetState(admin)
	if err != nil {
		return state.Address{}, nil, err
	}
	product, err := e.GetProduct(admin, id)
	if err != nil {
		return state.Address{}, nil, err
	}
	if !product.IsActive {
		return state.Address{}, nil, ErrProductNotActive
	}
	if quantity == 0 {
		return state.Address{}, nil, ErrInvalidQuantity
	}
	if product.Stock < quantity {
		return state.Address{}, nil, ErrInsufficientStock
	}

	total := new(big.Int).Mul(product.Price, new(big.Int).SetUint64(quantity))
	if err := e.state.Transfer(buyer[:], market.Treasury[:], total); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return state.Address{}, nil, ErrInsufficientBalance
		}
		return state.Address{}, nil, err
	}

	marketAddr := state.MarketplaceAddress(admin[:])
	productAddr := state.ProductAddress(marketAddr, id)
	product.Stock -= quantity
	product.SoldCount += quantity
	if err := e.state.Put(productAddr, product); err != nil {
		return state.Address{}, nil, err
	}

	purchaseIndex := market.TotalSales
	market.TotalSales++
	if err := e.state.Put(marketAddr, market); err != nil {
		return state.Address{}, nil, err
	}

	now := e.nowFn()
	purchaseAddr := state.PurchaseAddress(buyer[:], purchaseIndex)
	receipt := &Purchase{
		ProductID:  id,
		Buyer:      buyer,
		Quantity:   quantity,
		TotalPrice: total,
		Timestamp:  uint64(now),
	}
	if err := e.state.Create(purchaseAddr, receipt); err != nil {
		return state.Address{}, nil, err
	}
	e.state.AppendEvent(events.Purchased{
		Marketplace: marketAddr,
		Product:     productAddr,
		Purchase:    purchaseAddr,
		Buyer:       buyer,
		Quantity:    quantity,
		TotalPrice:  total,
		Timestamp:   now,
	}.Event())
	return purchaseAddr, receipt, nil
}

// GetPurchase loads a purchase receipt by buyer and sales index.
func (e *Engine) GetPurchase(buyer [20]byte, index uint64) (*Purchase, error) {
	receipt := new(Purchase)
	if err := e.state.Get(state.PurchaseAddress(buyer[:], index), receipt); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return receipt, nil
}
