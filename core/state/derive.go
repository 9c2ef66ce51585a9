package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Address is a derived storage address. Records are keyed by the keccak256
// digest of their namespace tag and canonical key parts, so any party can
// recompute the address of an entity from its logical key alone.
type Address [32]byte

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// Equal reports whether two derived addresses are identical.
func (a Address) Equal(other Address) bool {
	return a == other
}

// Derive computes the storage address for the given namespace tag and key
// parts. Each part is length-prefixed before hashing so that adjacent parts
// can never be confused for one another regardless of their contents.
// Identical inputs always produce identical addresses.
func Derive(namespace string, parts ...[]byte) Address {
	buf := make([]byte, 0, 8+len(namespace))
	buf = appendPart(buf, []byte(namespace))
	for _, part := range parts {
		buf = appendPart(buf, part)
	}
	var addr Address
	copy(addr[:], ethcrypto.Keccak256(buf))
	return addr
}

func appendPart(buf, part []byte) []byte {
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(part)))
	buf = append(buf, length[:]...)
	return append(buf, part...)
}

// Uint64Key encodes an integer key part in its canonical fixed-width
// little-endian form. Two logically equal indices must never diverge in
// encoding, so every integer key part goes through this helper.
func Uint64Key(v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:]
}

// Namespace tags for every record type on the ledger. The tag plus the
// canonical key parts fully determine a record's storage address.
const (
	NamespaceMember      = "member"
	NamespaceSession     = "session"
	NamespaceAttendance  = "attendance"
	NamespaceMarketplace = "marketplace"
	NamespaceProduct     = "product"
	NamespacePurchase    = "purchase"
	namespaceAccount     = "account"
)

// MemberAddress derives the storage address of the member record owned by the
// given identity.
func MemberAddress(owner []byte) Address {
	return Derive(NamespaceMember, owner)
}

// SessionAddress derives the storage address of the session for a calendar
// date. The date must be in its canonical YYYY-MM-DD form.
func SessionAddress(sessionDate string) Address {
	return Derive(NamespaceSession, []byte(sessionDate))
}

// AttendanceAddress derives the storage address of the attendance record for
// a (session, member) pair.
func AttendanceAddress(session Address, member []byte) Address {
	return Derive(NamespaceAttendance, session[:], member)
}

// MarketplaceAddress derives the storage address of the marketplace owned by
// the given admin identity.
func MarketplaceAddress(admin []byte) Address {
	return Derive(NamespaceMarketplace, admin)
}

// ProductAddress derives the storage address of the product at the given
// index under a marketplace.
func ProductAddress(marketplace Address, index uint64) Address {
	return Derive(NamespaceProduct, marketplace[:], Uint64Key(index))
}

// PurchaseAddress derives the storage address of a buyer's purchase receipt
// at the given index.
func PurchaseAddress(buyer []byte, index uint64) Address {
	return Derive(NamespacePurchase, buyer, Uint64Key(index))
}

func accountKey(addr []byte) Address {
	return Derive(namespaceAccount, addr)
}
