// ==================================
// File: internal/solana/types.go
// ==================================
package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	// SignatureLength is the raw byte length of an ed25519 signature.
	SignatureLength = 64
	// HashLength is the raw byte length of a blockhash.
	HashLength = 32
)

// Signature is a raw transaction signature. Unsigned transactions carry
// zero-valued signature slots.
type Signature [SignatureLength]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	raw, err := base58.Decode(string(text))
	if err != nil {
		return fmt.Errorf("invalid signature %q: %w", string(text), err)
	}
	if len(raw) != SignatureLength {
		return fmt.Errorf("invalid signature length: got %d bytes, want %d", len(raw), SignatureLength)
	}
	copy(s[:], raw)
	return nil
}

// Hash is a 32-byte blockhash.
type Hash [HashLength]byte

// ParseHash decodes a base58 blockhash string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(raw) != HashLength {
		return h, fmt.Errorf("invalid hash length: got %d bytes, want %d", len(raw), HashLength)
	}
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
