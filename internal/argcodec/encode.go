// ==================================
// File: internal/argcodec/encode.go
// ==================================
package argcodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
)

// DataBytes encodes the value in instruction-data form: little-endian
// fixed-width integers, u32 length prefixes on strings, bytes and vecs, a
// one-byte presence tag on options, and unprefixed fixed arrays.
func (v Value) DataBytes() ([]byte, error) {
	return v.appendData(nil)
}

func (v Value) appendData(out []byte) ([]byte, error) {
	switch v.Type.Kind {
	case idl.TypePrimitive:
		return v.appendPrimitiveData(out)

	case idl.TypeOption:
		if v.inner == nil {
			return append(out, 0), nil
		}
		return v.inner.appendData(append(out, 1))

	case idl.TypeVec:
		out = binary.LittleEndian.AppendUint32(out, uint32(len(v.list)))
		return v.appendListData(out)

	case idl.TypeArray:
		return v.appendListData(out)

	case idl.TypeDefined:
		if v.bytes != nil {
			return append(out, v.bytes...), nil
		}
		return nil, fmt.Errorf("%w: %s needs a 0x or base64: encoded payload", ErrEncodeFailure, v.Type)

	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrEncodeFailure, v.Type)
	}
}

func (v Value) appendListData(out []byte) ([]byte, error) {
	var err error
	for _, elem := range v.list {
		if out, err = elem.appendData(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (v Value) appendPrimitiveData(out []byte) ([]byte, error) {
	if width, ok := intWidths[v.Type.Primitive]; ok {
		return appendIntLE(out, v.num, width), nil
	}

	switch v.Type.Primitive {
	case "bool":
		if v.boolean {
			return append(out, 1), nil
		}
		return append(out, 0), nil
	case "f32":
		return binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v.float))), nil
	case "f64":
		return binary.LittleEndian.AppendUint64(out, math.Float64bits(v.float)), nil
	case "string":
		out = binary.LittleEndian.AppendUint32(out, uint32(len(v.str)))
		return append(out, v.str...), nil
	case "bytes":
		out = binary.LittleEndian.AppendUint32(out, uint32(len(v.bytes)))
		return append(out, v.bytes...), nil
	case "pubkey":
		return append(out, v.address[:]...), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode primitive %q", ErrEncodeFailure, v.Type.Primitive)
	}
}

// SeedBytes encodes the value for PDA derivation. Seeds differ from
// instruction data in carrying no length prefixes: strings and bytes
// contribute their raw content.
func (v Value) SeedBytes() ([]byte, error) {
	switch v.Type.Kind {
	case idl.TypePrimitive:
		return v.primitiveSeedBytes()

	case idl.TypeVec, idl.TypeArray:
		var out []byte
		for i, elem := range v.list {
			b, err := elem.SeedBytes()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, b...)
		}
		return out, nil

	case idl.TypeDefined:
		if v.bytes != nil {
			return v.bytes, nil
		}
		return nil, fmt.Errorf("%w: %s cannot be used as a seed without a 0x or base64: payload", ErrEncodeFailure, v.Type)

	default:
		return nil, fmt.Errorf("%w: %s cannot be used as a seed", ErrEncodeFailure, v.Type)
	}
}

func (v Value) primitiveSeedBytes() ([]byte, error) {
	if width, ok := intWidths[v.Type.Primitive]; ok {
		return appendIntLE(nil, v.num, width), nil
	}

	switch v.Type.Primitive {
	case "bool":
		if v.boolean {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case "string":
		return []byte(v.str), nil
	case "bytes":
		return v.bytes, nil
	case "pubkey":
		return v.address.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s cannot be used as a seed", ErrEncodeFailure, v.Type)
	}
}

// appendIntLE writes the two's-complement little-endian form of v at the
// given byte width. Range checking happened at parse time.
func appendIntLE(out []byte, v *big.Int, width int) []byte {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	norm := new(big.Int).Mod(v, mod)

	buf := make([]byte, width)
	norm.FillBytes(buf)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return append(out, buf...)
}
