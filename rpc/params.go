package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"clubchain/core/state"
	"clubchain/crypto"
)

func parseIdentity(field, encoded string) ([20]byte, error) {
	var id [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(encoded))
	if err != nil {
		return id, fmt.Errorf("%s: %w", field, err)
	}
	copy(id[:], addr.Bytes())
	return id, nil
}

// parseDerived decodes an optional caller-supplied derived address. An empty
// string leaves the zero address, which tells the node to derive it.
func parseDerived(field, encoded string) (state.Address, error) {
	var addr state.Address
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return addr, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("%s: %w", field, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("%s: must be %d bytes", field, len(addr))
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseAmount(field, encoded string) (*big.Int, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid decimal amount", field)
	}
	return amount, nil
}

func formatDerived(addr state.Address) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatIdentity(id [20]byte) string {
	return crypto.NewAddress(crypto.ClubPrefix, id[:]).String()
}
