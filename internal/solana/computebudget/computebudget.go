// ====================================================
// File: internal/solana/computebudget/computebudget.go
// ====================================================
package computebudget

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// ProgramID is the compute budget program address.
var ProgramID = solana.ComputeBudgetProgram

// Instruction discriminants, in on-chain declaration order.
const (
	RequestUnitsDeprecated uint8 = 0
	RequestHeapFrame       uint8 = 1
	SetComputeUnitLimit    uint8 = 2
	SetComputeUnitPrice    uint8 = 3
)

const (
	setComputeUnitLimitLen = 5
	setComputeUnitPriceLen = 9
)

// DefaultUnits is the runtime's per-instruction default compute allowance.
const DefaultUnits uint32 = 200_000

var ErrInvalidInstructionData = errors.New("invalid compute budget instruction data")

// Config describes the budget directives to prepend to a built transaction.
// A zero UnitPrice omits the price directive.
type Config struct {
	Units     uint32
	UnitPrice uint64
}

// DefaultConfig requests the runtime default allowance with no priority fee.
func DefaultConfig() Config {
	return Config{Units: DefaultUnits}
}

// SetComputeUnitLimitData encodes a SetComputeUnitLimit directive:
// discriminant byte followed by the unit count as little-endian u32.
func SetComputeUnitLimitData(units uint32) []byte {
	data := make([]byte, setComputeUnitLimitLen)
	data[0] = SetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return data
}

// SetComputeUnitPriceData encodes a SetComputeUnitPrice directive:
// discriminant byte followed by the micro-lamport price as little-endian u64.
func SetComputeUnitPriceData(microLamports uint64) []byte {
	data := make([]byte, setComputeUnitPriceLen)
	data[0] = SetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return data
}

// ParseSetComputeUnitLimit extracts the unit count from a
// SetComputeUnitLimit directive.
func ParseSetComputeUnitLimit(data []byte) (uint32, error) {
	if len(data) != setComputeUnitLimitLen {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidInstructionData, setComputeUnitLimitLen, len(data))
	}
	if data[0] != SetComputeUnitLimit {
		return 0, fmt.Errorf("%w: discriminant %d is not SetComputeUnitLimit", ErrInvalidInstructionData, data[0])
	}
	return binary.LittleEndian.Uint32(data[1:]), nil
}

// ParseSetComputeUnitPrice extracts the micro-lamport price from a
// SetComputeUnitPrice directive.
func ParseSetComputeUnitPrice(data []byte) (uint64, error) {
	if len(data) != setComputeUnitPriceLen {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidInstructionData, setComputeUnitPriceLen, len(data))
	}
	if data[0] != SetComputeUnitPrice {
		return 0, fmt.Errorf("%w: discriminant %d is not SetComputeUnitPrice", ErrInvalidInstructionData, data[0])
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}
