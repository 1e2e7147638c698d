// ==================================
// File: internal/builder/builder.go
// ==================================

// Package builder assembles unsigned Solana transactions from IDL
// instruction declarations and user-supplied values. It never signs:
// the output carries zeroed signature slots for the wallet to fill.
package builder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/solana-foundation/connectorkit-sub003/internal/argcodec"
	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/resolve"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// AccountMeta is one account an instruction touches, with the access
// flags the IDL declares for it.
type AccountMeta struct {
	Address  solana.Address
	Signer   bool
	Writable bool
}

// Instruction is a fully materialized instruction: target program,
// ordered account metas and encoded data.
type Instruction struct {
	ProgramID solana.Address
	Accounts  []AccountMeta
	Data      []byte
}

// ErrMissingArgument is returned when a required argument has no value.
// Only option-typed arguments may be left out.
var ErrMissingArgument = errors.New("argument value required")

// Builder turns IDL instructions into Instruction values using an
// account resolver for the address side.
type Builder struct {
	resolver *resolve.Resolver
	logger   *zap.Logger
}

// New creates a Builder on top of the given resolver.
func New(resolver *resolve.Resolver, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		resolver: resolver,
		logger:   logger.Named("builder"),
	}
}

// Data encodes the instruction's data section: the 8-byte discriminator
// followed by every declared argument in order. Argument values come
// from args keyed bare or path-qualified; a missing optional argument
// encodes as absent, a missing required one fails.
func Data(ix *idl.Instruction, args map[string]string) ([]byte, error) {
	data := make([]byte, 0, 64)
	data = append(data, ix.DiscriminatorBytes()...)
	for _, arg := range ix.Args {
		raw, ok := resolve.LookupValue(args, arg.Name)
		if !ok && arg.Type.Kind != idl.TypeOption {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, ErrMissingArgument)
		}
		value, err := argcodec.Parse(arg.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		encoded, err := value.DataBytes()
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		data = append(data, encoded...)
	}
	return data, nil
}

// Build materializes one instruction: arguments are encoded in declared
// order and the account tree is resolved to concrete addresses. Metas
// follow the IDL's flattened declaration order; omitted optional leaves
// are dropped from the list. The returned Resolution reports how each
// address was chosen.
func (b *Builder) Build(ix *idl.Instruction, programID solana.Address, args, overrides map[string]string) (*Instruction, *resolve.Resolution, error) {
	data, err := Data(ix, args)
	if err != nil {
		return nil, nil, err
	}

	res, err := b.resolver.Resolve(ix, programID, args, overrides)
	if err != nil {
		return nil, nil, err
	}

	leaves := ix.FlatAccounts()
	metas := make([]AccountMeta, 0, len(leaves))
	for _, leaf := range leaves {
		if res.Omitted[leaf.Path] {
			continue
		}
		addr, ok := res.Addresses[leaf.Path]
		if !ok {
			return nil, nil, fmt.Errorf("account %s: no address after resolution", leaf.Path)
		}
		metas = append(metas, AccountMeta{
			Address:  addr,
			Signer:   leaf.Signer,
			Writable: leaf.Writable,
		})
	}

	b.logger.Debug("built instruction",
		zap.String("instruction", ix.Name),
		zap.String("program", programID.String()),
		zap.Int("accounts", len(metas)),
		zap.Int("data_len", len(data)))

	return &Instruction{ProgramID: programID, Accounts: metas, Data: data}, res, nil
}
