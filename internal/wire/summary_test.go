// ==================================
// File: internal/wire/summary_test.go
// ==================================
package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana/computebudget"
)

func TestInspectComputeBudget_Production(t *testing.T) {
	tx, err := DecodeBase64(mainnetLegacy)
	require.NoError(t, err)

	budget := InspectComputeBudget(tx)
	require.NotNil(t, budget.UnitLimit)
	require.NotNil(t, budget.UnitPriceMicroLamports)
	assert.EqualValues(t, 125_000, *budget.UnitLimit)
	assert.EqualValues(t, 1_000, *budget.UnitPriceMicroLamports)

	tx, err = DecodeBase64(mainnetV0)
	require.NoError(t, err)

	budget = InspectComputeBudget(tx)
	require.NotNil(t, budget.UnitLimit)
	require.NotNil(t, budget.UnitPriceMicroLamports)
	assert.EqualValues(t, 200_000, *budget.UnitLimit)
	assert.EqualValues(t, 1_000, *budget.UnitPriceMicroLamports)
}

func TestInspectComputeBudget_LastWriteWins(t *testing.T) {
	tx := budgetFixture(
		computebudget.SetComputeUnitLimitData(300_000),
		computebudget.SetComputeUnitLimitData(150_000),
	)

	budget := InspectComputeBudget(tx)
	require.NotNil(t, budget.UnitLimit)
	assert.EqualValues(t, 150_000, *budget.UnitLimit)
	assert.Nil(t, budget.UnitPriceMicroLamports)
}

func TestInspectComputeBudget_NoDirectives(t *testing.T) {
	budget := InspectComputeBudget(legacyFixture())
	assert.Nil(t, budget.UnitLimit)
	assert.Nil(t, budget.UnitPriceMicroLamports)
}

func TestInspectComputeBudget_SkipsMalformed(t *testing.T) {
	tx := budgetFixture(
		[]byte{computebudget.SetComputeUnitLimit, 0x01},       // truncated
		[]byte{},                                              // empty
		computebudget.SetComputeUnitPriceData(42),
		[]byte{computebudget.RequestHeapFrame, 0x00, 0x00, 0x01, 0x00}, // unrelated directive
	)

	budget := InspectComputeBudget(tx)
	assert.Nil(t, budget.UnitLimit)
	require.NotNil(t, budget.UnitPriceMicroLamports)
	assert.EqualValues(t, 42, *budget.UnitPriceMicroLamports)
}

func TestInspectComputeBudget_SkipsLoadedProgramIndex(t *testing.T) {
	// A budget-shaped payload behind a table-loaded program index must not
	// count: the directive only matters under the static budget program.
	tx := v0Fixture()
	tx.Instructions = append(tx.Instructions, CompiledInstruction{
		ProgramIndex: uint8(len(tx.StaticAccounts)),
		Data:         computebudget.SetComputeUnitLimitData(1),
	})

	budget := InspectComputeBudget(tx)
	assert.Nil(t, budget.UnitLimit)
}

func TestSummarize_MinimalLegacy(t *testing.T) {
	tx := legacyFixture()

	summary := Summarize(tx)
	assert.Equal(t, "legacy", summary.Version)
	assert.Equal(t, 0, summary.SignatureCount)
	assert.Equal(t, 1, summary.RequiredSigners)
	assert.Equal(t, tx.StaticAccounts[0].String(), summary.FeePayer)
	assert.Equal(t, 2, summary.StaticAccountCount)
	assert.Equal(t, 0, summary.LoadedAccountCount)
	assert.Equal(t, 1, summary.InstructionCount)
	assert.Equal(t, []string{tx.StaticAccounts[1].String()}, summary.Programs)
	assert.Nil(t, summary.ComputeUnitLimit)
	assert.Nil(t, summary.ComputeUnitPrice)
}

func TestSummarize_Production(t *testing.T) {
	tx, err := DecodeBase64(mainnetLegacy)
	require.NoError(t, err)

	summary := Summarize(tx)
	assert.Equal(t, "legacy", summary.Version)
	assert.Equal(t, 1, summary.SignatureCount)
	assert.Equal(t, "cash11ndAmdKFEnG2wrQQ5Zqvr1kN9htxxLyoPLYFUV", summary.FeePayer)
	assert.Equal(t, 16, summary.StaticAccountCount)
	assert.Equal(t, 5, summary.InstructionCount)
	assert.Contains(t, summary.Programs, solana.ComputeBudgetProgram.String())
	assert.Contains(t, summary.Programs, solana.AssociatedTokenProgram.String())
	require.NotNil(t, summary.ComputeUnitLimit)
	assert.EqualValues(t, 125_000, *summary.ComputeUnitLimit)

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"computeUnitLimit":125000`)
	assert.Contains(t, string(out), `"computeUnitPriceMicroLamports":1000`)
	assert.Contains(t, string(out), `"feePayer":"cash11ndAmdKFEnG2wrQQ5Zqvr1kN9htxxLyoPLYFUV"`)
}

func TestSummarize_V0Counts(t *testing.T) {
	tx, err := DecodeBase64(mainnetV0)
	require.NoError(t, err)

	summary := Summarize(tx)
	assert.Equal(t, "v0", summary.Version)
	assert.Equal(t, 5, summary.StaticAccountCount)
	assert.Equal(t, 6, summary.LoadedAccountCount)
	assert.Equal(t, 1, summary.AddressTableLookups)
}

// budgetFixture builds a legacy transaction whose instructions all target the
// compute budget program with the given payloads.
func budgetFixture(payloads ...[]byte) *DecodedTransaction {
	tx := &DecodedTransaction{
		Version: VersionLegacy,
		Header:  Header{NumRequiredSignatures: 1, NumReadonlyUnsigned: 1},
		StaticAccounts: []solana.Address{
			testAddress(0x01),
			solana.ComputeBudgetProgram,
		},
		RecentBlockhash: testHash(0xcd),
	}
	for _, data := range payloads {
		tx.Instructions = append(tx.Instructions, CompiledInstruction{
			ProgramIndex: 1,
			Data:         data,
		})
	}
	return tx
}
