// ==================================
// File: internal/argcodec/argcodec.go
// ==================================

// Package argcodec converts human-edited argument strings into typed values
// and typed values into their binary instruction-data and PDA-seed
// encodings.
package argcodec

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

var (
	// ErrEncodeFailure is returned when a raw string cannot be interpreted
	// as, or a value cannot be encoded for, its declared type.
	ErrEncodeFailure = errors.New("argument encode failure")

	// ErrArityMismatch is returned when a fixed-length array receives the
	// wrong number of elements.
	ErrArityMismatch = errors.New("array arity mismatch")
)

// Value is a parsed argument paired with its declared type. Integer
// payloads are held as big integers so u128/i128 need no special casing.
type Value struct {
	Type idl.TypeExpr

	num     *big.Int
	boolean bool
	str     string
	bytes   []byte
	address solana.Address
	float   float64
	inner   *Value  // option payload, nil when absent
	list    []Value // vec and array elements
	rawJSON json.RawMessage
}

// intWidths maps integer primitives to their byte width; presence also
// identifies a primitive as an integer.
var intWidths = map[string]int{
	"u8": 1, "u16": 2, "u32": 4, "u64": 8, "u128": 16,
	"i8": 1, "i16": 2, "i32": 4, "i64": 8, "i128": 16,
}

// Parse interprets a raw string as a value of the declared type.
//
// Integers accept decimal or 0x-prefixed hex. Bool treats "true" and "1" as
// true and anything else as false. Bytes accept raw UTF-8, 0x-prefixed hex
// or a base64: prefix. An Option with an empty trimmed string is absent.
// Vec and Array accept a JSON array literal or a comma-separated list, with
// Array element count checked against the declared length. Defined values
// parse best-effort and never fail here; encoding decides later whether the
// payload is usable.
func Parse(expr idl.TypeExpr, raw string) (Value, error) {
	v := Value{Type: expr}

	switch expr.Kind {
	case idl.TypePrimitive:
		return parsePrimitive(expr, raw)

	case idl.TypeOption:
		if strings.TrimSpace(raw) == "" {
			return v, nil
		}
		elem, err := Parse(*expr.Elem, raw)
		if err != nil {
			return v, err
		}
		v.inner = &elem
		return v, nil

	case idl.TypeVec, idl.TypeArray:
		elements, err := splitElements(raw)
		if err != nil {
			return v, err
		}
		if expr.Kind == idl.TypeArray && len(elements) != expr.Len {
			return v, fmt.Errorf("%w: got %d elements, want %d", ErrArityMismatch, len(elements), expr.Len)
		}
		v.list = make([]Value, len(elements))
		for i, element := range elements {
			elem, err := Parse(*expr.Elem, element)
			if err != nil {
				return v, fmt.Errorf("element %d: %w", i, err)
			}
			v.list[i] = elem
		}
		return v, nil

	case idl.TypeDefined:
		return parseDefined(expr, raw), nil

	default:
		return v, fmt.Errorf("%w: unsupported type %s", ErrEncodeFailure, expr)
	}
}

func parsePrimitive(expr idl.TypeExpr, raw string) (Value, error) {
	v := Value{Type: expr}
	trimmed := strings.TrimSpace(raw)

	if width, ok := intWidths[expr.Primitive]; ok {
		num, err := parseInt(trimmed, width, expr.Primitive[0] == 'i')
		if err != nil {
			return v, fmt.Errorf("%s: %w", expr.Primitive, err)
		}
		v.num = num
		return v, nil
	}

	switch expr.Primitive {
	case "bool":
		v.boolean = trimmed == "true" || trimmed == "1"
		return v, nil

	case "f32":
		f, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			return v, fmt.Errorf("%w: %q is not an f32", ErrEncodeFailure, raw)
		}
		v.float = f
		return v, nil

	case "f64":
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return v, fmt.Errorf("%w: %q is not an f64", ErrEncodeFailure, raw)
		}
		v.float = f
		return v, nil

	case "string":
		if decoded, ok := hexPayload(trimmed); ok {
			v.str = string(decoded)
			return v, nil
		}
		v.str = raw
		return v, nil

	case "bytes":
		payload, err := bytesPayload(trimmed)
		if err != nil {
			return v, err
		}
		v.bytes = payload
		return v, nil

	case "pubkey":
		addr, err := solana.ParseAddress(trimmed)
		if err != nil {
			return v, err
		}
		v.address = addr
		return v, nil

	default:
		return v, fmt.Errorf("%w: unknown primitive %q", ErrEncodeFailure, expr.Primitive)
	}
}

// parseDefined keeps whatever it is given: raw byte payloads stay bytes so
// they can pass through to the wire, valid JSON is retained structurally,
// anything else is kept as the raw string.
func parseDefined(expr idl.TypeExpr, raw string) Value {
	v := Value{Type: expr}
	trimmed := strings.TrimSpace(raw)

	if payload, err := bytesPayload(trimmed); err == nil && isEncodedPayload(trimmed) {
		v.bytes = payload
		return v
	}
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		v.rawJSON = json.RawMessage(trimmed)
		return v
	}
	v.str = raw
	return v
}

func parseInt(s string, width int, signed bool) (*big.Int, error) {
	digits := s
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}

	v, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrEncodeFailure, s)
	}
	if negative {
		v.Neg(v)
	}

	bits := uint(width * 8)
	var lo, hi *big.Int
	if signed {
		hi = new(big.Int).Lsh(big.NewInt(1), bits-1) // 2^(bits-1)
		lo = new(big.Int).Neg(hi)
	} else {
		hi = new(big.Int).Lsh(big.NewInt(1), bits)
		lo = new(big.Int)
	}
	if v.Cmp(lo) < 0 || v.Cmp(hi) >= 0 {
		return nil, fmt.Errorf("%w: %s out of range for %d-bit value", ErrEncodeFailure, s, bits)
	}
	return v, nil
}

// hexPayload decodes a 0x-prefixed hex string.
func hexPayload(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// isEncodedPayload reports whether the string carries an explicit binary
// encoding prefix rather than literal text.
func isEncodedPayload(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") || strings.HasPrefix(s, "base64:")
}

func bytesPayload(s string) ([]byte, error) {
	if decoded, ok := hexPayload(s); ok {
		return decoded, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("%w: invalid hex payload %q", ErrEncodeFailure, s)
	}
	if encoded, ok := strings.CutPrefix(s, "base64:"); ok {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrEncodeFailure, err)
		}
		return decoded, nil
	}
	return []byte(s), nil
}

// splitElements breaks a composite input into element strings: a JSON array
// literal when present, otherwise a comma-separated list. An empty input is
// zero elements.
func splitElements(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return nil, fmt.Errorf("%w: invalid array literal: %v", ErrEncodeFailure, err)
		}
		out := make([]string, len(items))
		for i, item := range items {
			var str string
			if err := json.Unmarshal(item, &str); err == nil {
				out[i] = str
			} else {
				out[i] = string(item)
			}
		}
		return out, nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}
