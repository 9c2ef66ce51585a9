package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"clubchain/core"
	"clubchain/core/state"
	"clubchain/crypto"
	"clubchain/native/attendance"
	"clubchain/native/marketplace"
	"clubchain/native/membership"
)

// Gateway serves the read-only REST surface. All mutations go through the
// JSON-RPC server; the gateway only queries committed ledger state.
type Gateway struct {
	node    *core.Node
	logger  *slog.Logger
	limiter *RateLimiter
}

type Config struct {
	RequestsPerSecond float64
	Burst             int
}

func New(node *core.Node, cfg Config) *Gateway {
	return &Gateway{
		node:    node,
		logger:  slog.Default().With("component", "gateway"),
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(g.limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/members/{owner}", g.getMember)
		v1.Get("/members/{owner}/balance", g.getBalance)
		v1.Get("/sessions/{date}", g.getSession)
		v1.Get("/sessions/{date}/records/{member}", g.getRecord)
		v1.Get("/marketplaces/{admin}", g.getMarketplace)
		v1.Get("/marketplaces/{admin}/products/{id}", g.getProduct)
		v1.Get("/purchases/{buyer}/{index}", g.getPurchase)
	})

	return otelhttp.NewHandler(r, "gateway")
}

func (g *Gateway) Start(addr string) error {
	g.logger.Info("starting REST gateway", "addr", addr)
	return http.ListenAndServe(addr, g.Handler())
}

type memberView struct {
	Address         string `json:"address"`
	Owner           string `json:"owner"`
	Role            string `json:"role"`
	TotalAttendance uint64 `json:"totalAttendance"`
	TotalLate       uint64 `json:"totalLate"`
	TotalAbsence    uint64 `json:"totalAbsence"`
	TotalPoints     uint64 `json:"totalPoints"`
	IsActive        bool   `json:"isActive"`
}

type sessionView struct {
	Address        string `json:"address"`
	Authority      string `json:"authority"`
	Date           string `json:"date"`
	StartTime      uint64 `json:"startTime"`
	LateTime       uint64 `json:"lateTime"`
	TotalAttendees uint64 `json:"totalAttendees"`
	TotalLate      uint64 `json:"totalLate"`
	IsActive       bool   `json:"isActive"`
}

type recordView struct {
	Session      string `json:"session"`
	Member       string `json:"member"`
	Status       string `json:"status"`
	CheckInTime  uint64 `json:"checkInTime"`
	PointsEarned uint64 `json:"pointsEarned"`
}

type marketplaceView struct {
	Address      string `json:"address"`
	Admin        string `json:"admin"`
	PaymentAsset string `json:"paymentAsset"`
	Treasury     string `json:"treasury"`
	ProductCount uint64 `json:"productCount"`
	TotalSales   uint64 `json:"totalSales"`
}

type productView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       uint64 `json:"stock"`
	SoldCount   uint64 `json:"soldCount"`
	IsActive    bool   `json:"isActive"`
	Seller      string `json:"seller"`
}

type purchaseView struct {
	ProductID  uint64 `json:"productId"`
	Buyer      string `json:"buyer"`
	Quantity   uint64 `json:"quantity"`
	TotalPrice string `json:"totalPrice"`
	Timestamp  uint64 `json:"timestamp"`
}

func (g *Gateway) getMember(w http.ResponseWriter, r *http.Request) {
	owner, ok := g.identityParam(w, r, "owner")
	if !ok {
		return
	}
	member, err := g.node.GetMember(owner)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memberView{
		Address:         derivedString(state.MemberAddress(member.Owner[:])),
		Owner:           identityString(member.Owner),
		Role:            member.Role.String(),
		TotalAttendance: member.TotalAttendance,
		TotalLate:       member.TotalLate,
		TotalAbsence:    member.TotalAbsence,
		TotalPoints:     member.TotalPoints,
		IsActive:        member.IsActive,
	})
}

func (g *Gateway) getBalance(w http.ResponseWriter, r *http.Request) {
	owner, ok := g.identityParam(w, r, "owner")
	if !ok {
		return
	}
	account, err := g.node.GetAccount(owner)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":      identityString(owner),
		"balancePts": account.BalancePTS.String(),
		"nonce":      strconv.FormatUint(account.Nonce, 10),
	})
}

func (g *Gateway) getSession(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	session, err := g.node.GetSession(date)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{
		Address:        derivedString(state.SessionAddress(session.Date)),
		Authority:      identityString(session.Authority),
		Date:           session.Date,
		StartTime:      session.StartTime,
		LateTime:       session.LateTime,
		TotalAttendees: session.TotalAttendees,
		TotalLate:      session.TotalLate,
		IsActive:       session.IsActive,
	})
}

func (g *Gateway) getRecord(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	member, ok := g.identityParam(w, r, "member")
	if !ok {
		return
	}
	record, err := g.node.GetAttendanceRecord(date, member)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordView{
		Session:      derivedString(record.Session),
		Member:       identityString(record.Member),
		Status:       record.Status.String(),
		CheckInTime:  record.CheckInTime,
		PointsEarned: record.PointsEarned,
	})
}

func (g *Gateway) getMarketplace(w http.ResponseWriter, r *http.Request) {
	admin, ok := g.identityParam(w, r, "admin")
	if !ok {
		return
	}
	market, err := g.node.GetMarketplace(admin)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marketplaceView{
		Address:      derivedString(state.MarketplaceAddress(market.Admin[:])),
		Admin:        identityString(market.Admin),
		PaymentAsset: market.PaymentAsset,
		Treasury:     identityString(market.Treasury),
		ProductCount: market.ProductCount,
		TotalSales:   market.TotalSales,
	})
}

func (g *Gateway) getProduct(w http.ResponseWriter, r *http.Request) {
	admin, ok := g.identityParam(w, r, "admin")
	if !ok {
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	product, err := g.node.GetProduct(admin, id)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.String(),
		Stock:       product.Stock,
		SoldCount:   product.SoldCount,
		IsActive:    product.IsActive,
		Seller:      identityString(product.Seller),
	})
}

func (g *Gateway) getPurchase(w http.ResponseWriter, r *http.Request) {
	buyer, ok := g.identityParam(w, r, "buyer")
	if !ok {
		return
	}
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid purchase index"})
		return
	}
	purchase, err := g.node.GetPurchase(buyer, index)
	if err != nil {
		g.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseView{
		ProductID:  purchase.ProductID,
		Buyer:      identityString(purchase.Buyer),
		Quantity:   purchase.Quantity,
		TotalPrice: purchase.TotalPrice.String(),
		Timestamp:  purchase.Timestamp,
	})
}

func (g *Gateway) identityParam(w http.ResponseWriter, r *http.Request, name string) ([20]byte, bool) {
	decoded, err := crypto.DecodeAddress(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " address"})
		return [20]byte{}, false
	}
	var id [20]byte
	copy(id[:], decoded.Bytes())
	return id, true
}

func (g *Gateway) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrNotFound),
		errors.Is(err, membership.ErrMemberNotFound),
		errors.Is(err, attendance.ErrSessionNotFound),
		errors.Is(err, attendance.ErrRecordNotFound),
		errors.Is(err, marketplace.ErrNotFound),
		errors.Is(err, marketplace.ErrProductNotFound),
		errors.Is(err, marketplace.ErrPurchaseNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, attendance.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		g.logger.Error("query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func identityString(id [20]byte) string {
	return crypto.NewAddress(crypto.ClubPrefix, id[:]).String()
}

func derivedString(addr state.Address) string {
	return "0x" + hex.EncodeToString(addr[:])
}
