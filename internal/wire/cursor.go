// ==================================
// File: internal/wire/cursor.go
// ==================================
package wire

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedWire is returned for any structural violation while
	// decoding a wire transaction. Decoding never returns partial results.
	ErrMalformedWire = errors.New("malformed wire transaction")

	// ErrUnsupportedVersion is returned when the message carries a versioned
	// prefix whose version number is recognized as versioned but not handled.
	ErrUnsupportedVersion = errors.New("unsupported transaction version")
)

// cursor is a forward-only reader over a raw transaction buffer. Every read
// is bounds-checked; failures surface as ErrMalformedWire with the offset.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("%w: unexpected end of buffer at offset %d", ErrMalformedWire, c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, fmt.Errorf("%w: unexpected end of buffer at offset %d", ErrMalformedWire, c.pos)
	}
	return c.buf[c.pos], nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedWire, n, c.pos, c.remaining())
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// readShortVecLen decodes the compact array-length prefix: seven value bits
// per byte accumulated little-endian, high bit marking continuation. Values
// are bounded to fit a 32-bit count.
func (c *cursor) readShortVecLen() (int, error) {
	var val uint64
	for i := 0; ; i++ {
		if i >= 5 {
			return 0, fmt.Errorf("%w: shortvec length does not terminate at offset %d", ErrMalformedWire, c.pos)
		}
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		val |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			break
		}
	}
	if val > math.MaxUint32 {
		return 0, fmt.Errorf("%w: shortvec length %d exceeds 32 bits", ErrMalformedWire, val)
	}
	return int(val), nil
}

// appendShortVecLen is the encode-side inverse of readShortVecLen.
func appendShortVecLen(dst []byte, n int) []byte {
	v := uint32(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
