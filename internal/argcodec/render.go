// ==================================
// File: internal/argcodec/render.go
// ==================================
package argcodec

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// Render produces the canonical string form of a value: the form Parse
// accepts back into an equal value. Integers render decimal regardless of
// how they were entered.
func (v Value) Render() string {
	switch v.Type.Kind {
	case idl.TypePrimitive:
		return v.renderPrimitive()

	case idl.TypeOption:
		if v.inner == nil {
			return ""
		}
		return v.inner.Render()

	case idl.TypeVec, idl.TypeArray:
		parts := make([]string, len(v.list))
		for i, elem := range v.list {
			parts[i] = elem.Render()
		}
		return strings.Join(parts, ",")

	case idl.TypeDefined:
		switch {
		case v.bytes != nil:
			return "0x" + hex.EncodeToString(v.bytes)
		case v.rawJSON != nil:
			return string(v.rawJSON)
		default:
			return v.str
		}

	default:
		return ""
	}
}

func (v Value) renderPrimitive() string {
	if _, ok := intWidths[v.Type.Primitive]; ok {
		return v.num.String()
	}

	switch v.Type.Primitive {
	case "bool":
		return strconv.FormatBool(v.boolean)
	case "f32":
		return strconv.FormatFloat(v.float, 'g', -1, 32)
	case "f64":
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case "string":
		return v.str
	case "bytes":
		return "0x" + hex.EncodeToString(v.bytes)
	case "pubkey":
		return v.address.String()
	default:
		return ""
	}
}

// IsAbsent reports whether the value is an option with no payload.
func (v Value) IsAbsent() bool {
	return v.Type.Kind == idl.TypeOption && v.inner == nil
}

// Default produces the placeholder string used to pre-populate an editable
// argument field: "1" for numbers, "false" for bool, the connected signer
// for pubkey, and empty for free-form types. Fixed arrays pre-populate to
// their declared length so the arity is visible.
func Default(expr idl.TypeExpr, signer solana.Address) string {
	switch expr.Kind {
	case idl.TypePrimitive:
		switch expr.Primitive {
		case "bool":
			return "false"
		case "pubkey":
			return signer.String()
		case "string", "bytes":
			return ""
		default:
			return "1"
		}

	case idl.TypeArray:
		elem := Default(*expr.Elem, signer)
		parts := make([]string, expr.Len)
		for i := range parts {
			parts[i] = elem
		}
		return strings.Join(parts, ",")

	default:
		return ""
	}
}
