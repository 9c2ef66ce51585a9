package events

import (
	"math/big"
	"strconv"

	"clubchain/crypto"
)

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func formatIdentity(identity []byte) string {
	if len(identity) != crypto.AddressLength {
		return ""
	}
	return crypto.NewAddress(crypto.ClubPrefix, identity).String()
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
