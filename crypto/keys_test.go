package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(ClubPrefix)+"1") {
		t.Fatalf("expected club prefix, got %q", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), addr.Bytes())
	}
	if !decoded.Equal(addr) {
		t.Fatalf("equal should hold for round-tripped address")
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	for _, tc := range []string{"", "not-bech32", "club1"} {
		if _, err := DecodeAddress(tc); err == nil {
			t.Fatalf("expected error for %q", tc)
		}
	}

	// A single substituted character breaks the bech32 checksum.
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	encoded := key.PubKey().Address().String()
	last := encoded[len(encoded)-1]
	flipped := byte('q')
	if last == 'q' {
		flipped = 'p'
	}
	mutated := encoded[:len(encoded)-1] + string(flipped)
	if _, err := DecodeAddress(mutated); err == nil {
		t.Fatalf("expected checksum error for %q", mutated)
	}
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if !restored.PubKey().Address().Equal(key.PubKey().Address()) {
		t.Fatalf("restored key derives a different address")
	}
}
