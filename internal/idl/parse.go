// ==================================
// File: internal/idl/parse.go
// ==================================
package idl

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Parse decodes an IDL document. Modern documents carry the program address
// at the top level and name/version/spec under metadata; legacy documents
// carry name and version at the top level. Both normalize the same way.
func Parse(data []byte) (*Idl, error) {
	var raw struct {
		Address  string `json:"address"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		Metadata struct {
			Name    string `json:"name"`
			Version string `json:"version"`
			Spec    string `json:"spec"`
			Address string `json:"address"`
		} `json:"metadata"`
		Instructions []Instruction `json:"instructions"`
		Accounts     []TypeDef     `json:"accounts"`
		Types        []TypeDef     `json:"types"`
		Errors       []ErrorDef    `json:"errors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid idl document: %w", err)
	}

	parsed := &Idl{
		Address:      raw.Address,
		Name:         raw.Name,
		Version:      raw.Version,
		Spec:         raw.Metadata.Spec,
		Instructions: raw.Instructions,
		Accounts:     raw.Accounts,
		Types:        raw.Types,
		Errors:       raw.Errors,
	}
	if parsed.Address == "" {
		parsed.Address = raw.Metadata.Address
	}
	if parsed.Name == "" {
		parsed.Name = raw.Metadata.Name
	}
	if parsed.Version == "" {
		parsed.Version = raw.Metadata.Version
	}
	return parsed, nil
}

// byteSlice accepts the two spellings IDL documents use for byte blobs:
// a JSON array of numbers or a base64 string.
type byteSlice []byte

func (b *byteSlice) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return fmt.Errorf("byte value %d out of range", v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected byte array or base64 string")
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid base64 byte string: %w", err)
	}
	*b = decoded
	return nil
}

func (ix *Instruction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string    `json:"name"`
		Discriminator byteSlice `json:"discriminator"`
		Accounts      []Account `json:"accounts"`
		Args          []Field   `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*ix = Instruction{
		Name:          raw.Name,
		Discriminator: raw.Discriminator,
		Accounts:      raw.Accounts,
		Args:          raw.Args,
	}
	return nil
}

func (td *TypeDef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string          `json:"name"`
		Discriminator byteSlice       `json:"discriminator"`
		Type          json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*td = TypeDef{
		Name:          raw.Name,
		Discriminator: raw.Discriminator,
		Type:          raw.Type,
	}
	return nil
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       string    `json:"name"`
		Writable   bool      `json:"writable"`
		IsMut      bool      `json:"isMut"`
		Signer     bool      `json:"signer"`
		IsSigner   bool      `json:"isSigner"`
		Optional   bool      `json:"optional"`
		IsOptional bool      `json:"isOptional"`
		Address    string    `json:"address"`
		PDA        *PdaSpec  `json:"pda"`
		Accounts   []Account `json:"accounts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Account{
		Name:     raw.Name,
		Writable: raw.Writable || raw.IsMut,
		Signer:   raw.Signer || raw.IsSigner,
		Optional: raw.Optional || raw.IsOptional,
		Address:  raw.Address,
		PDA:      raw.PDA,
		Accounts: raw.Accounts,
	}
	return nil
}

// Unrecognized seed kinds parse as SeedUnsupported rather than failing the
// whole document; they only matter if the instruction is actually built.
func (s *Seed) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
		Path  string          `json:"path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "const":
		value, ok := constSeedValue(raw.Value)
		if !ok {
			*s = Seed{Kind: SeedUnsupported, Path: raw.Path}
			return nil
		}
		*s = Seed{Kind: SeedConst, Value: value}
	case "arg":
		*s = Seed{Kind: SeedArg, Path: raw.Path}
	case "account":
		*s = Seed{Kind: SeedAccount, Path: raw.Path}
	default:
		*s = Seed{Kind: SeedUnsupported, Path: raw.Path}
	}
	return nil
}

// constSeedValue handles the const-seed encodings in the wild: a byte
// array in modern documents, a plain string in older ones.
func constSeedValue(raw json.RawMessage) ([]byte, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var bytes byteSlice
	if err := json.Unmarshal(raw, &bytes); err == nil {
		return bytes, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s), true
	}
	return nil, false
}

// primitiveNames is the closed set of scalar type names, with the legacy
// publicKey spelling normalized to pubkey.
var primitiveNames = map[string]string{
	"bool":      "bool",
	"u8":        "u8",
	"u16":       "u16",
	"u32":       "u32",
	"u64":       "u64",
	"u128":      "u128",
	"i8":        "i8",
	"i16":       "i16",
	"i32":       "i32",
	"i64":       "i64",
	"i128":      "i128",
	"f32":       "f32",
	"f64":       "f64",
	"string":    "string",
	"bytes":     "bytes",
	"pubkey":    "pubkey",
	"publicKey": "pubkey",
}

func (t *TypeExpr) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if primitive, ok := primitiveNames[name]; ok {
			*t = TypeExpr{Kind: TypePrimitive, Primitive: primitive}
		} else {
			*t = TypeExpr{Kind: TypeUnsupported, Primitive: name}
		}
		return nil
	}

	var obj struct {
		Vec     *TypeExpr         `json:"vec"`
		Option  *TypeExpr         `json:"option"`
		COption *TypeExpr         `json:"coption"`
		Array   []json.RawMessage `json:"array"`
		Defined json.RawMessage   `json:"defined"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*t = TypeExpr{Kind: TypeUnsupported}
		return nil
	}

	switch {
	case obj.Vec != nil:
		*t = TypeExpr{Kind: TypeVec, Elem: obj.Vec}
	case obj.Option != nil:
		*t = TypeExpr{Kind: TypeOption, Elem: obj.Option}
	case obj.COption != nil:
		*t = TypeExpr{Kind: TypeOption, Elem: obj.COption}
	case len(obj.Array) == 2:
		var elem TypeExpr
		var length int
		if json.Unmarshal(obj.Array[0], &elem) != nil || json.Unmarshal(obj.Array[1], &length) != nil || length < 0 {
			*t = TypeExpr{Kind: TypeUnsupported}
			return nil
		}
		*t = TypeExpr{Kind: TypeArray, Elem: &elem, Len: length}
	case len(obj.Defined) > 0:
		name, ok := definedName(obj.Defined)
		if !ok {
			*t = TypeExpr{Kind: TypeUnsupported}
			return nil
		}
		*t = TypeExpr{Kind: TypeDefined, Defined: name}
	default:
		*t = TypeExpr{Kind: TypeUnsupported}
	}
	return nil
}

// definedName handles both {"defined": "Name"} and {"defined": {"name": "Name"}}.
func definedName(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name, true
	}
	return "", false
}
