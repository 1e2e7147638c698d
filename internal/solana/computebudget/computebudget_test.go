package computebudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetComputeUnitLimitData(t *testing.T) {
	data := SetComputeUnitLimitData(300_000)
	assert.Equal(t, []byte{2, 0xe0, 0x93, 0x04, 0x00}, data)

	units, err := ParseSetComputeUnitLimit(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(300_000), units)
}

func TestSetComputeUnitPriceData(t *testing.T) {
	data := SetComputeUnitPriceData(10_000)
	assert.Equal(t, []byte{3, 0x10, 0x27, 0, 0, 0, 0, 0, 0}, data)

	price, err := ParseSetComputeUnitPrice(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), price)
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{2, 1}},
		{"long", []byte{2, 1, 2, 3, 4, 5}},
		{"wrong discriminant", []byte{1, 1, 2, 3, 4}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSetComputeUnitLimit(tc.data)
			assert.ErrorIs(t, err, ErrInvalidInstructionData)
		})
	}

	_, err := ParseSetComputeUnitPrice([]byte{2, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultUnits, cfg.Units)
	assert.Zero(t, cfg.UnitPrice)
}
