// ==================================
// File: internal/resolve/accounts.go
// ==================================

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// ErrMissingAccount reports leaves that no resolution rule could fill.
var ErrMissingAccount = errors.New("missing account")

// MissingAccountError names every leaf left unresolved once resolution
// reached a fixed point, with the seed traces of the stuck derivations.
type MissingAccountError struct {
	Paths  []string
	Traces map[string][]SeedTrace
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingAccount, strings.Join(e.Paths, ", "))
}

func (e *MissingAccountError) Unwrap() error { return ErrMissingAccount }

// Sources recorded per resolved leaf, telling which rule produced the
// address.
const (
	SourceOverride = "override"
	SourceFixed    = "fixed"
	SourceKnown    = "known"
	SourcePDA      = "pda"
	SourceWallet   = "wallet"
	SourceOmitted  = "omitted"
)

// walletPatterns are account-name fragments that mark a field as
// wallet-controlled. Matching is case and separator insensitive.
var walletPatterns = []string{"authority", "owner", "payer", "signer", "user"}

// Resolution is the outcome of resolving an instruction's account tree.
// Addresses and the other maps are keyed by dotted leaf path.
type Resolution struct {
	Addresses map[string]solana.Address
	Omitted   map[string]bool
	Bumps     map[string]uint8
	Traces    map[string][]SeedTrace
	Sources   map[string]string
}

// Address returns the resolved address for a leaf path.
func (r *Resolution) Address(path string) (solana.Address, bool) {
	addr, ok := r.Addresses[path]
	return addr, ok
}

// Resolver assigns addresses to instruction account leaves. For every
// leaf the first applicable rule wins: an explicit override, the IDL's
// fixed address, a well-known program or sysvar matched by name, a PDA
// derivation, the connected wallet, and finally omission when the leaf
// is optional.
type Resolver struct {
	wallet solana.Address
	logger *zap.Logger
}

// NewResolver creates a resolver for the given connected wallet. A zero
// wallet address disables the wallet fallback rule.
func NewResolver(wallet solana.Address, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		wallet: wallet,
		logger: logger.Named("account-resolver"),
	}
}

// Resolve fills the account tree of ix. PDA leaves whose seeds reference
// other leaves are retried across passes until everything is resolved or
// no pass makes progress; the pass count is bounded by the leaf count, so
// dependency cycles terminate. A fixed point with a required leaf still
// open fails with MissingAccountError.
func (r *Resolver) Resolve(ix *idl.Instruction, programID solana.Address, args map[string]string, overrides map[string]string) (*Resolution, error) {
	leaves := ix.FlatAccounts()
	res := &Resolution{
		Addresses: make(map[string]solana.Address, len(leaves)),
		Omitted:   make(map[string]bool),
		Bumps:     make(map[string]uint8),
		Traces:    make(map[string][]SeedTrace),
		Sources:   make(map[string]string, len(leaves)),
	}
	ctx := &Context{
		Instruction: ix,
		ProgramID:   programID,
		Args:        args,
		Accounts:    res.Addresses,
	}

	pending := leaves
	for pass := 0; pass < len(leaves) && len(pending) > 0; pass++ {
		progress := false
		var next []idl.FlatAccount
		for _, leaf := range pending {
			done, err := r.resolveLeaf(leaf, ctx, overrides, res)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", leaf.Path, err)
			}
			if done {
				progress = true
			} else {
				next = append(next, leaf)
			}
		}
		pending = next
		if !progress {
			break
		}
	}

	var missing []string
	for _, leaf := range pending {
		// A derivation that never completed can still be dropped when the
		// leaf is optional.
		if leaf.Optional {
			res.Omitted[leaf.Path] = true
			res.Sources[leaf.Path] = SourceOmitted
			continue
		}
		missing = append(missing, leaf.Path)
	}
	if len(missing) > 0 {
		traces := make(map[string][]SeedTrace, len(missing))
		for _, path := range missing {
			if tr, ok := res.Traces[path]; ok {
				traces[path] = tr
			}
		}
		return nil, &MissingAccountError{Paths: missing, Traces: traces}
	}
	return res, nil
}

// resolveLeaf applies the priority chain to one leaf. It reports done
// when the leaf got an address or was omitted; a PDA whose seeds are not
// ready yet reports not-done and is retried next pass.
func (r *Resolver) resolveLeaf(leaf idl.FlatAccount, ctx *Context, overrides map[string]string, res *Resolution) (bool, error) {
	if raw, ok := lookupOverride(overrides, leaf); ok {
		addr, err := solana.ParseAddress(raw)
		if err != nil {
			return false, fmt.Errorf("override %q: %w", raw, err)
		}
		r.assign(res, leaf.Path, addr, SourceOverride)
		return true, nil
	}

	if leaf.Address != "" {
		addr, err := solana.ParseAddress(leaf.Address)
		if err != nil {
			return false, fmt.Errorf("fixed address %q: %w", leaf.Address, err)
		}
		r.assign(res, leaf.Path, addr, SourceFixed)
		return true, nil
	}

	if addr, ok := solana.KnownAddress(leaf.Name); ok {
		r.assign(res, leaf.Path, addr, SourceKnown)
		return true, nil
	}

	if leaf.PDA != nil {
		seeds, program, trace, err := Seeds(leaf.PDA, ctx)
		res.Traces[leaf.Path] = trace
		if errors.Is(err, ErrSeedUnresolved) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		addr, bump, err := solana.FindProgramAddress(seeds, program)
		if err != nil {
			return false, err
		}
		res.Bumps[leaf.Path] = bump
		r.assign(res, leaf.Path, addr, SourcePDA)
		return true, nil
	}

	if !r.wallet.IsZero() && (leaf.Signer || walletNamed(leaf.Name) || leaf.Writable) {
		r.assign(res, leaf.Path, r.wallet, SourceWallet)
		return true, nil
	}

	if leaf.Optional {
		res.Omitted[leaf.Path] = true
		res.Sources[leaf.Path] = SourceOmitted
		r.logger.Debug("omitted optional account", zap.String("path", leaf.Path))
		return true, nil
	}
	return false, nil
}

func (r *Resolver) assign(res *Resolution, path string, addr solana.Address, source string) {
	res.Addresses[path] = addr
	res.Sources[path] = source
	r.logger.Debug("resolved account",
		zap.String("path", path),
		zap.String("address", addr.String()),
		zap.String("source", source))
}

// lookupOverride accepts values keyed by full leaf path, bare leaf name,
// or a normalized spelling of either.
func lookupOverride(overrides map[string]string, leaf idl.FlatAccount) (string, bool) {
	if v, ok := overrides[leaf.Path]; ok {
		return v, true
	}
	return LookupValue(overrides, leaf.Name)
}

func walletNamed(name string) bool {
	n := normalizeKey(name)
	for _, pattern := range walletPatterns {
		if strings.Contains(n, pattern) {
			return true
		}
	}
	return false
}
