// ==================================
// File: internal/builder/transaction.go
// ==================================

package builder

import (
	"errors"
	"fmt"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana/computebudget"
	"github.com/solana-foundation/connectorkit-sub003/internal/wire"
)

// ErrNoFeePayer is returned when a transaction is assembled without a
// fee payer address.
var ErrNoFeePayer = errors.New("fee payer required")

// ErrTooManyAccounts is returned when the distinct accounts of a transaction
// do not fit the single-byte index space of a legacy message.
var ErrTooManyAccounts = errors.New("too many distinct accounts")

// maxStaticAccounts is the addressable limit of a legacy message; every
// account index is a single byte.
const maxStaticAccounts = 256

type accountSlot struct {
	signer   bool
	writable bool
}

// Assemble compiles instructions into an unsigned legacy transaction.
// The fee payer always lands at index 0; remaining accounts are laid out
// writable signers, readonly signers, writable non-signers, readonly
// non-signers, keeping first-appearance order inside each class. Flags
// merge when the same address is referenced more than once. When budget
// is set, compute budget directives are prepended ahead of the payload
// instructions. Signature slots are allocated zeroed for later signing.
func Assemble(instrs []Instruction, feePayer solana.Address, blockhash solana.Hash, budget *computebudget.Config) (*wire.DecodedTransaction, error) {
	if feePayer.IsZero() {
		return nil, ErrNoFeePayer
	}

	all := make([]Instruction, 0, len(instrs)+2)
	if budget != nil {
		if budget.Units > 0 {
			all = append(all, Instruction{
				ProgramID: computebudget.ProgramID,
				Data:      computebudget.SetComputeUnitLimitData(budget.Units),
			})
		}
		if budget.UnitPrice > 0 {
			all = append(all, Instruction{
				ProgramID: computebudget.ProgramID,
				Data:      computebudget.SetComputeUnitPriceData(budget.UnitPrice),
			})
		}
	}
	all = append(all, instrs...)

	slots := make(map[solana.Address]*accountSlot)
	var order []solana.Address
	upsert := func(addr solana.Address, signer, writable bool) {
		if slot, ok := slots[addr]; ok {
			slot.signer = slot.signer || signer
			slot.writable = slot.writable || writable
			return
		}
		slots[addr] = &accountSlot{signer: signer, writable: writable}
		order = append(order, addr)
	}

	upsert(feePayer, true, true)
	for _, in := range all {
		for _, meta := range in.Accounts {
			upsert(meta.Address, meta.Signer, meta.Writable)
		}
	}
	// Program ids go last so a program doubling as an instruction account
	// keeps its meta position.
	for _, in := range all {
		upsert(in.ProgramID, false, false)
	}

	if len(order) > maxStaticAccounts {
		return nil, fmt.Errorf("%w: %d distinct accounts exceed the %d limit",
			ErrTooManyAccounts, len(order), maxStaticAccounts)
	}

	keys := make([]solana.Address, 0, len(order))
	for class := 0; class < 4; class++ {
		for _, addr := range order {
			if slotClass(slots[addr]) == class {
				keys = append(keys, addr)
			}
		}
	}

	var header wire.Header
	position := make(map[solana.Address]uint8, len(keys))
	for i, addr := range keys {
		position[addr] = uint8(i)
		slot := slots[addr]
		if slot.signer {
			header.NumRequiredSignatures++
			if !slot.writable {
				header.NumReadonlySigned++
			}
		} else if !slot.writable {
			header.NumReadonlyUnsigned++
		}
	}

	compiled := make([]wire.CompiledInstruction, len(all))
	for i, in := range all {
		ci := wire.CompiledInstruction{
			ProgramIndex: position[in.ProgramID],
			Data:         in.Data,
		}
		if len(in.Accounts) > 0 {
			ci.AccountIndices = make([]byte, 0, len(in.Accounts))
			for _, meta := range in.Accounts {
				ci.AccountIndices = append(ci.AccountIndices, position[meta.Address])
			}
		}
		compiled[i] = ci
	}

	return &wire.DecodedTransaction{
		Version:         wire.VersionLegacy,
		Signatures:      make([]solana.Signature, header.NumRequiredSignatures),
		Header:          header,
		StaticAccounts:  keys,
		RecentBlockhash: blockhash,
		Instructions:    compiled,
	}, nil
}

func slotClass(slot *accountSlot) int {
	switch {
	case slot.signer && slot.writable:
		return 0
	case slot.signer:
		return 1
	case slot.writable:
		return 2
	default:
		return 3
	}
}
