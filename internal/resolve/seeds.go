// ==================================
// File: internal/resolve/seeds.go
// ==================================

// Package resolve turns an instruction's declared account tree into
// concrete addresses: PDA seed rules are evaluated against user-supplied
// arguments and already-resolved accounts, and every leaf is assigned an
// address through a fixed priority chain.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solana-foundation/connectorkit-sub003/internal/argcodec"
	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// ErrSeedUnresolved marks a derivation that cannot complete yet: a seed
// references an argument with no value or an account that is not resolved
// so far. Callers retry once more inputs are known; it is not a hard
// failure by itself.
var ErrSeedUnresolved = errors.New("seed unresolved")

// Context carries the inputs seed resolution draws from. Accounts holds
// the partially-built resolution state keyed by leaf path and grows as
// passes complete.
type Context struct {
	Instruction *idl.Instruction
	ProgramID   solana.Address
	Args        map[string]string
	Accounts    map[string]solana.Address
}

// SeedTrace records how one declared seed resolved, for display alongside
// the derived address.
type SeedTrace struct {
	Source   string
	Resolved bool
	Bytes    []byte
	Reason   string
}

// Seeds evaluates a PDA declaration against the context. On success it
// returns the seed byte sequences in declared order and the program the
// derivation hashes against (the declared override, or the instruction's
// own program). When any seed cannot resolve the error wraps
// ErrSeedUnresolved and the trace tells which seeds were short.
func Seeds(spec *idl.PdaSpec, ctx *Context) ([][]byte, solana.Address, []SeedTrace, error) {
	seeds := make([][]byte, 0, len(spec.Seeds))
	trace := make([]SeedTrace, 0, len(spec.Seeds))
	unresolved := false

	for _, seed := range spec.Seeds {
		entry := resolveSeed(seed, ctx)
		trace = append(trace, entry)
		if !entry.Resolved {
			unresolved = true
			continue
		}
		seeds = append(seeds, entry.Bytes)
	}

	program := ctx.ProgramID
	if spec.Program != nil {
		entry := resolveSeed(*spec.Program, ctx)
		entry.Source = "program " + entry.Source
		if entry.Resolved && len(entry.Bytes) != solana.AddressLength {
			entry.Resolved = false
			entry.Reason = fmt.Sprintf("program ref resolved to %d bytes, want %d", len(entry.Bytes), solana.AddressLength)
			entry.Bytes = nil
		}
		trace = append(trace, entry)
		if entry.Resolved {
			copy(program[:], entry.Bytes)
		} else {
			unresolved = true
		}
	}

	if unresolved {
		var short []string
		for _, entry := range trace {
			if !entry.Resolved {
				short = append(short, entry.Source)
			}
		}
		return nil, solana.Address{}, trace, fmt.Errorf("%w: %s", ErrSeedUnresolved, strings.Join(short, ", "))
	}
	return seeds, program, trace, nil
}

func resolveSeed(seed idl.Seed, ctx *Context) SeedTrace {
	entry := SeedTrace{Source: seed.String()}

	switch seed.Kind {
	case idl.SeedConst:
		entry.Resolved = true
		entry.Bytes = seed.Value

	case idl.SeedArg:
		arg, raw, ok := lookupArg(ctx, seed.Path)
		if !ok {
			entry.Reason = "no value for argument " + seed.Path
			return entry
		}
		value, err := argcodec.Parse(arg.Type, raw)
		if err != nil {
			entry.Reason = err.Error()
			return entry
		}
		bytes, err := value.SeedBytes()
		if err != nil {
			entry.Reason = err.Error()
			return entry
		}
		entry.Resolved = true
		entry.Bytes = bytes

	case idl.SeedAccount:
		addr, ok := lookupAccount(ctx, seed.Path)
		if !ok {
			entry.Reason = "account " + seed.Path + " not resolved yet"
			return entry
		}
		entry.Resolved = true
		entry.Bytes = addr.Bytes()

	default:
		entry.Reason = "unsupported seed kind"
	}
	return entry
}

// lookupArg finds the declared argument the path names and its current raw
// string value. The value map accepts exact keys, dotted keys ending in the
// argument name, and case/underscore-insensitive spellings.
func lookupArg(ctx *Context, path string) (*idl.Field, string, bool) {
	var arg *idl.Field
	for i := range ctx.Instruction.Args {
		if ctx.Instruction.Args[i].Name == path {
			arg = &ctx.Instruction.Args[i]
			break
		}
	}
	if arg == nil {
		want := normalizeKey(path)
		for i := range ctx.Instruction.Args {
			if normalizeKey(ctx.Instruction.Args[i].Name) == want {
				arg = &ctx.Instruction.Args[i]
				break
			}
		}
	}
	if arg == nil {
		return nil, "", false
	}

	raw, ok := LookupValue(ctx.Args, arg.Name)
	if !ok {
		return nil, "", false
	}
	return arg, raw, true
}

// lookupAccount finds an already-resolved address: by exact leaf path
// first, then by leaf name. Dotted paths that name a field inside an
// account's data cannot be resolved locally and simply miss.
func lookupAccount(ctx *Context, path string) (solana.Address, bool) {
	if addr, ok := ctx.Accounts[path]; ok {
		return addr, true
	}
	want := normalizeKey(path)
	for key, addr := range ctx.Accounts {
		if normalizeKey(lastSegment(key)) == want {
			return addr, true
		}
	}
	return solana.Address{}, false
}

// LookupValue fetches a value from a user-input map that may key fields
// either bare ("amount") or path-qualified ("createOrder.amount"). The
// bare key wins; qualified keys match on their last segment, case and
// separator insensitive.
func LookupValue(m map[string]string, name string) (string, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	want := normalizeKey(name)
	for key, v := range m {
		if normalizeKey(lastSegment(key)) == want {
			return v, true
		}
	}
	return "", false
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// normalizeKey strips case and separators so that "fee_payer", "feePayer"
// and "fee-payer" compare equal.
func normalizeKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(name))
}
