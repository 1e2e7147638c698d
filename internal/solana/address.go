// ==================================
// File: internal/solana/address.go
// ==================================
package solana

import (
	"bytes"
	"errors"
	"fmt"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// AddressLength is the raw byte length of a Solana account address.
const AddressLength = 32

var ErrInvalidAddress = errors.New("invalid address")

// Address is a raw 32-byte Solana account address. It is the value type used
// throughout the decoding and derivation engine; conversion to the SDK's
// PublicKey happens only at RPC boundaries.
type Address [AddressLength]byte

// ParseAddress decodes a base58 string into an Address. The input must decode
// to exactly 32 bytes; character-count heuristics are not used, so short
// all-ones addresses like the system program parse fine.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q is not base58: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAddress, s, len(raw), AddressLength)
	}
	copy(a[:], raw)
	return a, nil
}

// MustAddress is ParseAddress for known-good literals; it panics on error.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies a 32-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Short returns an abbreviated form for log output.
func (a Address) Short() string {
	s := a.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Equals(other Address) bool {
	return bytes.Equal(a[:], other[:])
}

// ToSDK converts to the gagliardetto SDK key type used at RPC boundaries.
func (a Address) ToSDK() sdk.PublicKey {
	return sdk.PublicKeyFromBytes(a[:])
}

// FromSDK converts an SDK key into an Address.
func FromSDK(pk sdk.PublicKey) Address {
	var a Address
	copy(a[:], pk.Bytes())
	return a
}

// MarshalText renders the address as base58, which also drives JSON encoding.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
