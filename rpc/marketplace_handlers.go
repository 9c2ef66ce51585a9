package rpc

import (
	"net/http"

	"clubchain/core/state"
	"clubchain/native/marketplace"
)

type initializeMarketplaceParams struct {
	Admin        string `json:"admin"`
	PaymentAsset string `json:"paymentAsset"`
	Treasury     string `json:"treasury"`
}

type marketplaceResult struct {
	Address      string `json:"address"`
	Admin        string `json:"admin"`
	PaymentAsset string `json:"paymentAsset"`
	Treasury     string `json:"treasury"`
	ProductCount uint64 `json:"productCount"`
	TotalSales   uint64 `json:"totalSales"`
}

type productResult struct {
	Address     string `json:"address"`
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       uint64 `json:"stock"`
	SoldCount   uint64 `json:"soldCount"`
	IsActive    bool   `json:"isActive"`
	Seller      string `json:"seller"`
}

type purchaseResult struct {
	Address    string `json:"address"`
	ProductID  uint64 `json:"productId"`
	Buyer      string `json:"buyer"`
	Quantity   uint64 `json:"quantity"`
	TotalPrice string `json:"totalPrice"`
	Timestamp  uint64 `json:"timestamp"`
}

func (s *Server) handleInitializeMarketplace(w http.ResponseWriter, req *RPCRequest) {
	var params initializeMarketplaceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	treasury, err := parseIdentity("treasury", params.Treasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	addr, err := s.node.InitializeMarketplace(admin, params.PaymentAsset, treasury)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"address": formatDerived(addr),
		"admin":   formatIdentity(admin),
	})
}

type addProductParams struct {
	MarketplaceAddress string `json:"marketplaceAddress"`
	Admin              string `json:"admin"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Price              string `json:"price"`
	Stock              uint64 `json:"stock"`
	Authority          string `json:"authority"`
}

func (s *Server) handleAddProduct(w http.ResponseWriter, req *RPCRequest) {
	var params addProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	marketplaceAddr, err := parseDerived("marketplaceAddress", params.MarketplaceAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	productAddr, product, err := s.node.AddProduct(marketplaceAddr, admin, params.Name, params.Description, price, params.Stock, authority)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, productResultFrom(productAddr, product))
}

type updateProductParams struct {
	Admin     string  `json:"admin"`
	ProductID uint64  `json:"productId"`
	Price     *string `json:"price"`
	Stock     *uint64 `json:"stock"`
	Authority string  `json:"authority"`
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, req *RPCRequest) {
	var params updateProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	priceUpdate := marketplace.KeepPrice()
	if params.Price != nil {
		price, err := parseAmount("price", *params.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		priceUpdate = marketplace.SetPrice(price)
	}
	stockUpdate := marketplace.KeepStock()
	if params.Stock != nil {
		stockUpdate = marketplace.SetStock(*params.Stock)
	}

	product, err := s.node.UpdateProduct(admin, params.ProductID, priceUpdate, stockUpdate, authority)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	productAddr := state.ProductAddress(state.MarketplaceAddress(admin[:]), product.ID)
	writeResult(w, req.ID, productResultFrom(productAddr, product))
}

type deactivateProductParams struct {
	Admin     string `json:"admin"`
	ProductID uint64 `json:"productId"`
	Authority string `json:"authority"`
}

func (s *Server) handleDeactivateProduct(w http.ResponseWriter, req *RPCRequest) {
	var params deactivateProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	if err := s.node.DeactivateProduct(admin, params.ProductID, authority); err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"deactivated": true})
}

type purchaseParams struct {
	MarketplaceAddress string `json:"marketplaceAddress"`
	ProductAddress     string `json:"productAddress"`
	Admin              string `json:"admin"`
	ProductID          uint64 `json:"productId"`
	Buyer              string `json:"buyer"`
	Quantity           uint64 `json:"quantity"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseIdentity("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	marketplaceAddr, err := parseDerived("marketplaceAddress", params.MarketplaceAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	productAddr, err := parseDerived("productAddress", params.ProductAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	receiptAddr, purchase, err := s.node.PurchaseProduct(marketplaceAddr, productAddr, admin, params.ProductID, buyer, params.Quantity)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	s.metrics.RecordPurchase()
	writeResult(w, req.ID, purchaseResultFrom(receiptAddr, purchase))
}

type getMarketplaceParams struct {
	Admin string `json:"admin"`
}

func (s *Server) handleGetMarketplace(w http.ResponseWriter, req *RPCRequest) {
	var params getMarketplaceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	market, err := s.node.GetMarketplace(admin)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, marketplaceResult{
		Address:      formatDerived(state.MarketplaceAddress(market.Admin[:])),
		Admin:        formatIdentity(market.Admin),
		PaymentAsset: market.PaymentAsset,
		Treasury:     formatIdentity(market.Treasury),
		ProductCount: market.ProductCount,
		TotalSales:   market.TotalSales,
	})
}

type getProductParams struct {
	Admin     string `json:"admin"`
	ProductID uint64 `json:"productId"`
}

func (s *Server) handleGetProduct(w http.ResponseWriter, req *RPCRequest) {
	var params getProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseIdentity("admin", params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	product, err := s.node.GetProduct(admin, params.ProductID)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	productAddr := state.ProductAddress(state.MarketplaceAddress(admin[:]), product.ID)
	writeResult(w, req.ID, productResultFrom(productAddr, product))
}

type getPurchaseParams struct {
	Buyer string `json:"buyer"`
	Index uint64 `json:"index"`
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, req *RPCRequest) {
	var params getPurchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseIdentity("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	purchase, err := s.node.GetPurchase(buyer, params.Index)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, purchaseResultFrom(state.PurchaseAddress(buyer[:], params.Index), purchase))
}

func productResultFrom(addr state.Address, product *marketplace.Product) productResult {
	return productResult{
		Address:     formatDerived(addr),
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.String(),
		Stock:       product.Stock,
		SoldCount:   product.SoldCount,
		IsActive:    product.IsActive,
		Seller:      formatIdentity(product.Seller),
	}
}

func purchaseResultFrom(addr state.Address, purchase *marketplace.Purchase) purchaseResult {
	return purchaseResult{
		Address:    formatDerived(addr),
		ProductID:  purchase.ProductID,
		Buyer:      formatIdentity(purchase.Buyer),
		Quantity:   purchase.Quantity,
		TotalPrice: purchase.TotalPrice.String(),
		Timestamp:  purchase.Timestamp,
	}
}
