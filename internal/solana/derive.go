// ==================================
// File: internal/solana/derive.go
// ==================================
package solana

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds and MaxSeedLength are the protocol limits on program-derived
	// address inputs: at most 16 seeds of at most 32 bytes each.
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// derivedAddressMarker is the domain-separation suffix hashed into every
// program-derived address.
const derivedAddressMarker = "ProgramDerivedAddress"

var (
	ErrSeedsTooLong = errors.New("seeds exceed derivation limits")

	// ErrInvalidDerivedAddress is returned by CreateProgramAddress when the
	// candidate digest lands on the ed25519 curve and therefore has a
	// corresponding private key.
	ErrInvalidDerivedAddress = errors.New("derived address lies on the curve")

	// ErrDerivationExhausted is returned by FindProgramAddress when all 256
	// bump seeds produce on-curve candidates.
	ErrDerivationExhausted = errors.New("no viable bump seed found")

	ErrIllegalOwner = errors.New("owner ends with the derived-address marker")
)

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d seeds, limit %d", ErrSeedsTooLong, len(seeds), MaxSeeds)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d is %d bytes, limit %d", ErrSeedsTooLong, i, len(s), MaxSeedLength)
		}
	}
	return nil
}

// isOnCurve reports whether b decodes to a valid compressed ed25519 point.
// Derived addresses must not, so that no private key exists for them.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress computes SHA256(seeds... || program || marker) and
// returns it as an address, rejecting candidates that lie on the curve.
// Seed limits are checked before any hashing.
//
// Mirrors the Solana SDK's create_program_address.
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, err
	}

	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(program[:])
	h.Write([]byte(derivedAddressMarker))

	var out Address
	copy(out[:], h.Sum(nil))

	if isOnCurve(out[:]) {
		return Address{}, ErrInvalidDerivedAddress
	}
	return out, nil
}

// FindProgramAddress searches bump seeds from 255 down to 0 and returns the
// first off-curve derived address together with the bump that produced it.
// Exhausting every bump yields ErrDerivationExhausted; seed-limit violations
// fail fast with ErrSeedsTooLong before any hashing.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return Address{}, 0, err
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidDerivedAddress) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, fmt.Errorf("%w for program %s", ErrDerivationExhausted, program)
}

// CreateWithSeed computes SHA256(base || seed || owner), the address scheme
// used by system-program create-with-seed accounts (the Anchor IDL account
// lives at one of these).
func CreateWithSeed(base Address, seed string, owner Address) (Address, error) {
	if len(seed) > MaxSeedLength {
		return Address{}, fmt.Errorf("%w: seed is %d bytes, limit %d", ErrSeedsTooLong, len(seed), MaxSeedLength)
	}
	if bytes.HasSuffix(owner[:], []byte(derivedAddressMarker)) {
		return Address{}, ErrIllegalOwner
	}

	h := sha256.New()
	h.Write(base[:])
	h.Write([]byte(seed))
	h.Write(owner[:])

	var out Address
	copy(out[:], h.Sum(nil))
	return out, nil
}

// FindAssociatedTokenAddress derives the canonical associated token account
// for a wallet and mint.
func FindAssociatedTokenAddress(wallet, mint Address) (Address, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{wallet[:], TokenProgram[:], mint[:]},
		AssociatedTokenProgram,
	)
	if err != nil {
		return Address{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return addr, nil
}
