// ==================================
// File: internal/wire/cursor_test.go
// ==================================
package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortVec_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		value   int
		encoded []byte
	}{
		{0x0, []byte{0x0}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0xff, []byte{0xff, 0x01}},
		{0x100, []byte{0x80, 0x02}},
		{0x7fff, []byte{0xff, 0xff, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
		{0x200000, []byte{0x80, 0x80, 0x80, 0x01}},
		{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	} {
		assert.Equal(t, tc.encoded, appendShortVecLen(nil, tc.value), "encode %#x", tc.value)

		cur := newCursor(tc.encoded)
		decoded, err := cur.readShortVecLen()
		require.NoError(t, err, "decode %#x", tc.value)
		assert.Equal(t, tc.value, decoded)
		assert.Equal(t, 0, cur.remaining(), "decode %#x must consume the buffer", tc.value)
	}
}

func TestShortVec_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		encoded []byte
	}{
		{"empty", nil},
		{"truncated continuation", []byte{0x80}},
		{"never terminates", []byte{0x80, 0x80, 0x80, 0x80, 0x80}},
		{"exceeds 32 bits", []byte{0xff, 0xff, 0xff, 0xff, 0x1f}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newCursor(tc.encoded).readShortVecLen()
			assert.ErrorIs(t, err, ErrMalformedWire)
		})
	}
}

func TestCursor_Reads(t *testing.T) {
	cur := newCursor([]byte{0x01, 0x02, 0x03, 0x04})

	b, err := cur.peekByte()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01, b)
	assert.Equal(t, 4, cur.remaining())

	b, err = cur.readByte()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01, b)

	chunk, err := cur.readBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03, 0x04}, chunk)
	assert.Equal(t, 0, cur.remaining())

	_, err = cur.readByte()
	assert.ErrorIs(t, err, ErrMalformedWire)
	_, err = cur.peekByte()
	assert.ErrorIs(t, err, ErrMalformedWire)
	_, err = cur.readBytes(1)
	assert.ErrorIs(t, err, ErrMalformedWire)
}

func TestCursor_ReadBytesCopies(t *testing.T) {
	src := []byte{0xaa, 0xbb}
	cur := newCursor(src)

	chunk, err := cur.readBytes(2)
	require.NoError(t, err)

	src[0] = 0x00
	assert.Equal(t, []byte{0xaa, 0xbb}, chunk)
}
