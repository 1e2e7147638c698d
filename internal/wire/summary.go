// ==================================
// File: internal/wire/summary.go
// ==================================
package wire

import (
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana/computebudget"
)

// ComputeBudget holds the budget directives found in a transaction. A nil
// field means the transaction carries no directive of that kind and the
// runtime default applies.
type ComputeBudget struct {
	UnitLimit              *uint32 `json:"computeUnitLimit,omitempty"`
	UnitPriceMicroLamports *uint64 `json:"computeUnitPriceMicroLamports,omitempty"`
}

// InspectComputeBudget scans the transaction's instructions for compute
// budget directives. When a directive appears more than once the last
// occurrence wins, matching runtime behavior. Budget instructions that fail
// to parse are skipped rather than failing the whole inspection.
func InspectComputeBudget(tx *DecodedTransaction) ComputeBudget {
	var budget ComputeBudget
	for _, ci := range tx.Instructions {
		// The budget program is always a static key; a table-loaded program
		// index can never address it.
		if int(ci.ProgramIndex) >= len(tx.StaticAccounts) {
			continue
		}
		if !tx.StaticAccounts[ci.ProgramIndex].Equals(computebudget.ProgramID) {
			continue
		}
		if len(ci.Data) == 0 {
			continue
		}
		switch ci.Data[0] {
		case computebudget.SetComputeUnitLimit:
			units, err := computebudget.ParseSetComputeUnitLimit(ci.Data)
			if err != nil {
				continue
			}
			budget.UnitLimit = &units
		case computebudget.SetComputeUnitPrice:
			price, err := computebudget.ParseSetComputeUnitPrice(ci.Data)
			if err != nil {
				continue
			}
			budget.UnitPriceMicroLamports = &price
		}
	}
	return budget
}

// TransactionSummary is a compact human-oriented digest of a decoded
// transaction, suitable for JSON output.
type TransactionSummary struct {
	Version             string   `json:"version"`
	SignatureCount      int      `json:"signatureCount"`
	RequiredSigners     int      `json:"requiredSigners"`
	FeePayer            string   `json:"feePayer,omitempty"`
	RecentBlockhash     string   `json:"recentBlockhash"`
	StaticAccountCount  int      `json:"staticAccountCount"`
	LoadedAccountCount  int      `json:"loadedAccountCount,omitempty"`
	InstructionCount    int      `json:"instructionCount"`
	AddressTableLookups int      `json:"addressTableLookups,omitempty"`
	Programs            []string `json:"programs,omitempty"`
	ComputeUnitLimit    *uint32  `json:"computeUnitLimit,omitempty"`
	ComputeUnitPrice    *uint64  `json:"computeUnitPriceMicroLamports,omitempty"`
}

// Summarize condenses a decoded transaction into its summary form.
func Summarize(tx *DecodedTransaction) TransactionSummary {
	summary := TransactionSummary{
		Version:             tx.Version.String(),
		SignatureCount:      len(tx.Signatures),
		RequiredSigners:     int(tx.Header.NumRequiredSignatures),
		RecentBlockhash:     tx.RecentBlockhash.String(),
		StaticAccountCount:  len(tx.StaticAccounts),
		LoadedAccountCount:  tx.keySpace() - len(tx.StaticAccounts),
		InstructionCount:    len(tx.Instructions),
		AddressTableLookups: len(tx.AddressTableLookups),
	}
	if payer, ok := tx.FeePayer(); ok {
		summary.FeePayer = payer.String()
	}

	seen := make(map[solana.Address]bool)
	for _, ci := range tx.Instructions {
		// Table-loaded program indices have no static key to report.
		if int(ci.ProgramIndex) >= len(tx.StaticAccounts) {
			continue
		}
		program := tx.StaticAccounts[ci.ProgramIndex]
		if seen[program] {
			continue
		}
		seen[program] = true
		summary.Programs = append(summary.Programs, program.String())
	}

	budget := InspectComputeBudget(tx)
	summary.ComputeUnitLimit = budget.UnitLimit
	summary.ComputeUnitPrice = budget.UnitPriceMicroLamports

	return summary
}
