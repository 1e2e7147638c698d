// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// Wallet is the connected wallet in watch-only form: it knows its public
// address and derives associated token accounts, but never holds signing
// capability. Built transactions carry zeroed signature slots for an
// external signer.
type Wallet struct {
	Address solana.Address

	mu       sync.Mutex
	ataCache map[solana.Address]solana.Address
}

// New creates a wallet from its base58 public key.
func New(publicKeyBase58 string) (*Wallet, error) {
	addr, err := solana.ParseAddress(publicKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet public key: %w", err)
	}
	return &Wallet{
		Address:  addr,
		ataCache: make(map[solana.Address]solana.Address),
	}, nil
}

// FromKeygenFile reads a Solana CLI keygen file, a JSON array of the 64
// expanded ed25519 key bytes, and keeps only the public half.
func FromKeygenFile(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keygen file: %w", err)
	}
	var key []int
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("failed to parse keygen file: %w", err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid keygen file: expected 64 bytes, got %d", len(key))
	}
	pub := make([]byte, solana.AddressLength)
	for i, v := range key {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid keygen file: value %d at index %d is not a byte", v, i)
		}
		if i >= 32 {
			pub[i-32] = byte(v)
		}
	}
	addr, err := solana.AddressFromBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("invalid keygen file: %w", err)
	}
	return &Wallet{
		Address:  addr,
		ataCache: make(map[solana.Address]solana.Address),
	}, nil
}

// Load builds the wallet from whichever source is configured: an explicit
// public key wins over a keygen file. Both empty means no wallet is
// connected and returns nil.
func Load(publicKey, keygenPath string) (*Wallet, error) {
	switch {
	case publicKey != "":
		return New(publicKey)
	case keygenPath != "":
		return FromKeygenFile(keygenPath)
	default:
		return nil, nil
	}
}

// ATA returns the wallet's associated token account for the given mint.
// Derived addresses are cached for reuse.
func (w *Wallet) ATA(mint solana.Address) (solana.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ata, ok := w.ataCache[mint]; ok {
		return ata, nil
	}
	ata, err := solana.FindAssociatedTokenAddress(w.Address, mint)
	if err != nil {
		return solana.Address{}, err
	}
	w.ataCache[mint] = ata
	return ata, nil
}

// PrecomputeATAs derives and caches the ATAs for a list of mints up
// front.
func (w *Wallet) PrecomputeATAs(mints []solana.Address) error {
	for _, mint := range mints {
		if _, err := w.ATA(mint); err != nil {
			return fmt.Errorf("failed to precompute ATA for mint %s: %w", mint.String(), err)
		}
	}
	return nil
}

// String returns the wallet's public key in base58.
func (w *Wallet) String() string {
	return w.Address.String()
}
