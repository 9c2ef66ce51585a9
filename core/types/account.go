package types

import "math/big"

// Account holds the balance-bearing side of a ledger identity. Membership,
// session, and marketplace records live at their own derived addresses; the
// account only tracks the spendable points-token balance and a spend nonce.
// The nonce counts outbound transfers and backs receipt ordering per buyer.
type Account struct {
	Nonce      uint64   `json:"nonce"`
	BalancePTS *big.Int `json:"balancePts"`
}

// NewAccount returns an account with a zero balance.
func NewAccount() *Account {
	return &Account{BalancePTS: big.NewInt(0)}
}
