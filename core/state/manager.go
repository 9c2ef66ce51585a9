package state

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"clubchain/core/types"
	"clubchain/storage"
)

var (
	// ErrNotFound marks reads of addresses with no record.
	ErrNotFound = errors.New("state: record not found")
	// ErrAlreadyExists marks create attempts against populated addresses.
	ErrAlreadyExists = errors.New("state: record already exists")
	// ErrInsufficientBalance marks transfers exceeding the sender's balance.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
)

// Manager mediates every read and write against the backing store. Records
// are RLP encoded and keyed by their derived address. Writes accumulate in an
// overlay until Commit flushes them, so a failed operation can be discarded
// without touching the store. The node serializes operations, so Manager is
// not safe for concurrent use.
type Manager struct {
	db      storage.Database
	overlay map[Address][]byte
	events  []types.Event
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[Address][]byte),
	}
}

// Has reports whether a record exists at the given address, consulting the
// overlay before the backing store.
func (m *Manager) Has(addr Address) (bool, error) {
	if _, ok := m.overlay[addr]; ok {
		return true, nil
	}
	return m.db.Has(addr[:])
}

// Get decodes the record at the given address into out. It returns
// ErrNotFound when the address is unpopulated.
func (m *Manager) Get(addr Address, out interface{}) error {
	data, ok := m.overlay[addr]
	if !ok {
		var err error
		data, err = m.db.Get(addr[:])
		if errors.Is(err, storage.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("state: read %x: %w", addr[:4], err)
		}
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return fmt.Errorf("state: decode %x: %w", addr[:4], err)
	}
	return nil
}

// Put encodes the record and stages it at the given address.
func (m *Manager) Put(addr Address, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode %x: %w", addr[:4], err)
	}
	m.overlay[addr] = encoded
	return nil
}

// Create stages a record at the given address, failing with ErrAlreadyExists
// when the address is already populated. Creation through this path is the
// ledger's only uniqueness mechanism: a derived address can hold at most one
// record for the lifetime of the ledger.
func (m *Manager) Create(addr Address, record interface{}) error {
	exists, err := m.Has(addr)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	return m.Put(addr, record)
}

// AppendEvent records a typed event to be published once the surrounding
// operation commits.
func (m *Manager) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	m.events = append(m.events, *evt)
}

// Commit flushes staged writes to the backing store as one atomic batch and
// returns the events accumulated since the last commit or discard. On a
// backend failure nothing is persisted and the overlay stays staged.
func (m *Manager) Commit() ([]types.Event, error) {
	if len(m.overlay) > 0 {
		writes := make([]storage.BatchWrite, 0, len(m.overlay))
		for addr, data := range m.overlay {
			key := addr
			writes = append(writes, storage.BatchWrite{Key: key[:], Value: data})
		}
		if err := m.db.WriteBatch(writes); err != nil {
			return nil, fmt.Errorf("state: commit batch: %w", err)
		}
	}
	events := m.events
	m.overlay = make(map[Address][]byte)
	m.events = nil
	return events, nil
}

// Discard drops all staged writes and pending events, restoring the manager
// to the last committed state.
func (m *Manager) Discard() {
	m.overlay = make(map[Address][]byte)
	m.events = nil
}

// --- Accounts ---

// GetAccount loads the balance account for an identity, returning a zero
// account when none has been persisted yet.
func (m *Manager) GetAccount(owner []byte) (*types.Account, error) {
	account := new(types.Account)
	err := m.Get(accountKey(owner), account)
	if errors.Is(err, ErrNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, err
	}
	if account.BalancePTS == nil {
		account.BalancePTS = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stages the balance account for an identity.
func (m *Manager) PutAccount(owner []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: account must not be nil")
	}
	if account.BalancePTS == nil {
		account.BalancePTS = big.NewInt(0)
	}
	if account.BalancePTS.Sign() < 0 {
		return fmt.Errorf("state: negative balance not allowed")
	}
	return m.Put(accountKey(owner), account)
}

// Mint credits freshly issued points tokens to an identity.
func (m *Manager) Mint(owner []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: mint amount must be positive")
	}
	account, err := m.GetAccount(owner)
	if err != nil {
		return err
	}
	account.BalancePTS = new(big.Int).Add(account.BalancePTS, amount)
	return m.PutAccount(owner, account)
}

// Transfer moves points tokens between identities and bumps the sender's
// spend nonce. The debit and credit are staged together, so either both
// reach the store or neither does.
func (m *Manager) Transfer(from, to []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: transfer amount must be positive")
	}
	if bytes.Equal(from, to) {
		return fmt.Errorf("state: transfer to self not allowed")
	}
	sender, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.BalancePTS.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	receiver, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	sender.BalancePTS = new(big.Int).Sub(sender.BalancePTS, amount)
	sender.Nonce++
	receiver.BalancePTS = new(big.Int).Add(receiver.BalancePTS, amount)
	if err := m.PutAccount(from, sender); err != nil {
		return err
	}
	return m.PutAccount(to, receiver)
}
