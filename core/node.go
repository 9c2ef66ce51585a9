package core

import (
	"errors"
	"math/big"
	"sync"

	"clubchain/core/events"
	"clubchain/core/state"
	"clubchain/core/types"
	"clubchain/native/attendance"
	"clubchain/native/marketplace"
	"clubchain/native/membership"
	"clubchain/storage"
)

// ErrAddressMismatch is returned when a caller-supplied address does not
// match the address derived from the operation's logical keys. Forged
// addresses are rejected, never silently accepted.
var ErrAddressMismatch = errors.New("core: supplied address does not match derivation")

// rawEvent adapts a committed state event to the emitter interface.
type rawEvent struct {
	evt types.Event
}

func (e rawEvent) EventType() string { return e.evt.Type }

// Event exposes the underlying attributes for subscribers.
func (e rawEvent) Event() *types.Event { return &e.evt }

// Node ties the account store and the native engines together and serializes
// every operation. Each operation is all-or-nothing: the staged writes reach
// the store only when the whole transition succeeds, otherwise they are
// discarded and the specific error is handed back to the caller untouched.
type Node struct {
	mu sync.Mutex

	db      storage.Database
	state   *state.Manager
	emitter events.Emitter

	members *membership.Ledger
	attend  *attendance.Engine
	market  *marketplace.Engine
}

// Option customises node construction.
type Option func(*Node)

// WithEmitter routes committed events to the provided emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) {
		if emitter != nil {
			n.emitter = emitter
		}
	}
}

// WithSchedule overrides the attendance points schedule.
func WithSchedule(schedule attendance.Schedule) Option {
	return func(n *Node) { n.attend.SetSchedule(schedule) }
}

// WithAdminAllowList restricts admin self-registration to the listed
// identities.
func WithAdminAllowList(identities [][20]byte) Option {
	return func(n *Node) { n.members.SetAdminAllowList(identities) }
}

// WithPaymentAsset sets the marketplace payment asset used when an
// initialize call leaves the asset empty.
func WithPaymentAsset(asset string) Option {
	return func(n *Node) { n.market.SetDefaultAsset(asset) }
}

// WithNowFunc overrides the time source for every engine. Primarily intended
// for tests.
func WithNowFunc(now func() int64) Option {
	return func(n *Node) {
		n.attend.SetNowFunc(now)
		n.market.SetNowFunc(now)
	}
}

// NewNode creates a node over the provided database.
func NewNode(db storage.Database, opts ...Option) *Node {
	n := &Node{
		db:      db,
		state:   state.NewManager(db),
		emitter: events.NoopEmitter{},
	}
	n.members = membership.NewLedger(n.state)
	n.attend = attendance.NewEngine(n.state, n.members)
	n.market = marketplace.NewEngine(n.state)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Close releases the backing database.
func (n *Node) Close() {
	n.db.Close()
}

// withState runs a state transition under the node lock and commits or
// discards the staged writes as one unit. Committed events go out to the
// emitter after the store write succeeds.
func (n *Node) withState(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := fn(); err != nil {
		n.state.Discard()
		return err
	}
	committed, err := n.state.Commit()
	if err != nil {
		n.state.Discard()
		return err
	}
	for _, evt := range committed {
		n.emitter.Emit(rawEvent{evt: evt})
	}
	return nil
}

// verifyAddress checks a caller-supplied address against its derivation. A
// zero supplied address means the caller relies on the node to derive it.
func verifyAddress(supplied, derived state.Address) error {
	var zero state.Address
	if supplied == zero || supplied == derived {
		return nil
	}
	return ErrAddressMismatch
}

// --- Membership operations ---

func (n *Node) RegisterMember(owner [20]byte, role membership.Role, authority [20]byte) (state.Address, error) {
	var addr state.Address
	err := n.withState(func() error {
		var err error
		addr, err = n.members.Register(owner, role, authority)
		return err
	})
	return addr, err
}

func (n *Node) DeactivateMember(memberAddr state.Address, owner [20]byte, authority [20]byte) error {
	if err := verifyAddress(memberAddr, state.MemberAddress(owner[:])); err != nil {
		return err
	}
	return n.withState(func() error {
		return n.members.Deactivate(owner, authority)
	})
}

func (n *Node) GetMember(owner [20]byte) (*membership.Member, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.members.Get(owner)
}

// --- Session and attendance operations ---

func (n *Node) InitializeSession(date string, startTime, lateTime uint64, authority [20]byte) (state.Address, error) {
	var addr state.Address
	err := n.withState(func() error {
		var err error
		addr, err = n.attend.InitializeSession(date, startTime, lateTime, authority)
		return err
	})
	return addr, err
}

func (n *Node) SetSessionActive(sessionAddr state.Address, date string, active bool, authority [20]byte) error {
	if err := verifyAddress(sessionAddr, state.SessionAddress(date)); err != nil {
		return err
	}
	return n.withState(func() error {
		return n.attend.SetActive(date, active, authority)
	})
}

func (n *Node) ReactivateSession(sessionAddr state.Address, date string, startTime, lateTime uint64, authority [20]byte) error {
	if err := verifyAddress(sessionAddr, state.SessionAddress(date)); err != nil {
		return err
	}
	return n.withState(func() error {
		return n.attend.Reactivate(date, startTime, lateTime, authority)
	})
}

// CheckIn records attendance for the caller. The supplied session and member
// addresses must match their derivations; a member can only check themselves
// in, so the member address is always derived from the caller identity.
func (n *Node) CheckIn(sessionAddr, memberAddr state.Address, date string, caller [20]byte) (state.Address, *attendance.Record, error) {
	if err := verifyAddress(sessionAddr, state.SessionAddress(date)); err != nil {
		return state.Address{}, nil, err
	}
	if err := verifyAddress(memberAddr, state.MemberAddress(caller[:])); err != nil {
		return state.Address{}, nil, err
	}
	var (
		addr   state.Address
		record *attendance.Record
	)
	err := n.withState(func() error {
		var err error
		addr, record, err = n.attend.CheckIn(date, caller)
		return err
	})
	if err != nil {
		return state.Address{}, nil, err
	}
	return addr, record, nil
}

func (n *Node) GetSession(date string) (*attendance.Session, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attend.GetSession(date)
}

func (n *Node) GetAttendanceRecord(date string, member [20]byte) (*attendance.Record, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attend.GetRecord(date, member)
}

// --- Marketplace operations ---

func (n *Node) InitializeMarketplace(admin [20]byte, paymentAsset string, treasury [20]byte) (state.Address, error) {
	var addr state.Address
	err := n.withState(func() error {
		var err error
		addr, err = n.market.Initialize(admin, paymentAsset, treasury)
		return err
	})
	return addr, err
}

func (n *Node) AddProduct(marketplaceAddr state.Address, admin [20]byte, name, description string, price *big.Int, stock uint64, authority [20]byte) (state.Address, *marketplace.Product, error) {
	if err := verifyAddress(marketplaceAddr, state.MarketplaceAddress(admin[:])); err != nil {
		return state.Address{}, nil, err
	}
	var (
		addr    state.Address
		product *marketplace.Product
	)
	err := n.withState(func() error {
		var err error
		addr, product, err = n.market.AddProduct(admin, name, description, price, stock, authority)
		return err
	})
	if err != nil {
		return state.Address{}, nil, err
	}
	return addr, product, nil
}

func (n *Node) UpdateProduct(admin [20]byte, id uint64, price marketplace.PriceUpdate, stock marketplace.StockUpdate, authority [20]byte) (*marketplace.Product, error) {
	var product *marketplace.Product
	err := n.withState(func() error {
		var err error
		product, err = n.market.UpdateProduct(admin, id, price, stock, authority)
		return err
	})
	return product, err
}

func (n *Node) DeactivateProduct(admin [20]byte, id uint64, authority [20]byte) error {
	return n.withState(func() error {
		return n.market.DeactivateProduct(admin, id, authority)
	})
}

func (n *Node) PurchaseProduct(marketplaceAddr, productAddr state.Address, admin [20]byte, id uint64, buyer [20]byte, quantity uint64) (state.Address, *marketplace.Purchase, error) {
	derivedMarket := state.MarketplaceAddress(admin[:])
	if err := verifyAddress(marketplaceAddr, derivedMarket); err != nil {
		return state.Address{}, nil, err
	}
	if err := verifyAddress(productAddr, state.ProductAddress(derivedMarket, id)); err != nil {
		return state.Address{}, nil, err
	}
	var (
		addr    state.Address
		receipt *marketplace.Purchase
	)
	err := n.withState(func() error {
		var err error
		addr, receipt, err = n.market.Purchase(admin, id, buyer, quantity)
		return err
	})
	if err != nil {
		return state.Address{}, nil, err
	}
	return addr, receipt, nil
}

func (n *Node) GetMarketplace(admin [20]byte) (*marketplace.State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetState(admin)
}

func (n *Node) GetProduct(admin [20]byte, id uint64) (*marketplace.Product, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetProduct(admin, id)
}

func (n *Node) GetPurchase(buyer [20]byte, index uint64) (*marketplace.Purchase, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetPurchase(buyer, index)
}

// GetAccount returns the identity's balance-bearing account record: the
// spendable points-token balance and the spend nonce.
func (n *Node) GetAccount(owner [20]byte) (*types.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.GetAccount(owner[:])
}
