package events

import (
	"encoding/hex"
	"math/big"

	"clubchain/core/types"
)

const (
	TypeMarketplaceInitialized = "marketplace.initialized"
	TypeProductAdded           = "marketplace.product_added"
	TypeProductUpdated         = "marketplace.product_updated"
	TypeProductDeactivated     = "marketplace.product_deactivated"
	TypePurchased              = "marketplace.purchased"
)

type MarketplaceInitialized struct {
	Marketplace  [32]byte
	Admin        [20]byte
	PaymentAsset string
	Treasury     [20]byte
}

func (MarketplaceInitialized) EventType() string { return TypeMarketplaceInitialized }

func (e MarketplaceInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketplaceInitialized,
		Attributes: map[string]string{
			"marketplace":  hex.EncodeToString(e.Marketplace[:]),
			"admin":        formatIdentity(e.Admin[:]),
			"paymentAsset": e.PaymentAsset,
			"treasury":     formatIdentity(e.Treasury[:]),
		},
	}
}

type ProductAdded struct {
	Marketplace [32]byte
	Product     [32]byte
	ID          uint64
	Name        string
	Price       *big.Int
	Stock       uint64
}

func (ProductAdded) EventType() string { return TypeProductAdded }

func (e ProductAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeProductAdded,
		Attributes: map[string]string{
			"marketplace": hex.EncodeToString(e.Marketplace[:]),
			"product":     hex.EncodeToString(e.Product[:]),
			"id":          uintToString(e.ID),
			"name":        e.Name,
			"price":       formatAmount(e.Price),
			"stock":       uintToString(e.Stock),
		},
	}
}

type ProductUpdated struct {
	Product [32]byte
	Price   *big.Int
	Stock   uint64
}

func (ProductUpdated) EventType() string { return TypeProductUpdated }

func (e ProductUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeProductUpdated,
		Attributes: map[string]string{
			"product": hex.EncodeToString(e.Product[:]),
			"price":   formatAmount(e.Price),
			"stock":   uintToString(e.Stock),
		},
	}
}

type ProductDeactivated struct {
	Product [32]byte
}

func (ProductDeactivated) EventType() string { return TypeProductDeactivated }

func (e ProductDeactivated) Event() *types.Event {
	return &types.Event{
		Type: TypeProductDeactivated,
		Attributes: map[string]string{
			"product": hex.EncodeToString(e.Product[:]),
		},
	}
}

type Purchased struct {
	Marketplace [32]byte
	Product     [32]byte
	Purchase    [32]byte
	Buyer       [20]byte
	Quantity    uint64
	TotalPrice  *big.Int
	Timestamp   int64
}

func (Purchased) EventType() string { return TypePurchased }

func (e Purchased) Event() *types.Event {
	return &types.Event{
		Type: TypePurchased,
		Attributes: map[string]string{
			"marketplace": hex.EncodeToString(e.Marketplace[:]),
			"product":     hex.EncodeToString(e.Product[:]),
			"purchase":    hex.EncodeToString(e.Purchase[:]),
			"buyer":       formatIdentity(e.Buyer[:]),
			"quantity":    uintToString(e.Quantity),
			"totalPrice":  formatAmount(e.TotalPrice),
			"timestamp":   intToString(e.Timestamp),
		},
	}
}
