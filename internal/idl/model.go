// ==================================
// File: internal/idl/model.go
// ==================================

// Package idl models Anchor program interface definitions: the instruction
// catalog, argument types, account trees and derivation rules needed to
// build instructions against an arbitrary program.
package idl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Idl is a parsed program interface definition. Both the modern layout
// (top-level address plus metadata block) and the legacy layout (top-level
// name and version) normalize into this shape.
type Idl struct {
	Address      string
	Name         string
	Version      string
	Spec         string
	Instructions []Instruction
	Accounts     []TypeDef
	Types        []TypeDef
	Errors       []ErrorDef
}

// Instruction describes one callable program entry point.
type Instruction struct {
	Name          string
	Discriminator []byte
	Accounts      []Account
	Args          []Field
}

// Field is a named, typed value: an instruction argument or a struct field.
type Field struct {
	Name string          `json:"name"`
	Type TypeExpr        `json:"type"`
	Docs json.RawMessage `json:"docs,omitempty"`
}

// TypeDef is a named type declaration. The body is kept raw; only account
// definitions need the name and discriminator resolved.
type TypeDef struct {
	Name          string
	Discriminator []byte
	Type          json.RawMessage
}

// ErrorDef is a program error code declaration.
type ErrorDef struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// TypeKind discriminates the closed set of type expressions an IDL can
// declare for arguments.
type TypeKind uint8

const (
	TypePrimitive TypeKind = iota
	TypeVec
	TypeArray
	TypeOption
	TypeDefined
	TypeUnsupported
)

// TypeExpr is one node of a type expression tree.
type TypeExpr struct {
	Kind      TypeKind
	Primitive string    // TypePrimitive: bool, u8..u128, i8..i128, f32, f64, string, bytes, pubkey
	Elem      *TypeExpr // TypeVec, TypeArray, TypeOption
	Len       int       // TypeArray
	Defined   string    // TypeDefined
}

func (t TypeExpr) String() string {
	switch t.Kind {
	case TypePrimitive:
		return t.Primitive
	case TypeVec:
		return fmt.Sprintf("vec<%s>", t.Elem)
	case TypeArray:
		return fmt.Sprintf("array<%s; %d>", t.Elem, t.Len)
	case TypeOption:
		return fmt.Sprintf("option<%s>", t.Elem)
	case TypeDefined:
		return fmt.Sprintf("defined<%s>", t.Defined)
	default:
		return "unsupported"
	}
}

// Account is one node of an instruction's account tree. A node with nested
// Accounts is a grouping; only leaves become instruction metas.
type Account struct {
	Name     string
	Writable bool
	Signer   bool
	Optional bool
	Address  string
	PDA      *PdaSpec
	Accounts []Account
}

func (a Account) IsGroup() bool {
	return len(a.Accounts) > 0
}

// PdaSpec declares how an account's address derives from seeds. A non-nil
// Program overrides the owning program as the derivation base.
type PdaSpec struct {
	Seeds   []Seed `json:"seeds"`
	Program *Seed  `json:"program,omitempty"`
}

// SeedKind discriminates where a seed's bytes come from.
type SeedKind uint8

const (
	SeedConst SeedKind = iota
	SeedArg
	SeedAccount
	SeedUnsupported
)

// Seed is one component of a PDA derivation.
type Seed struct {
	Kind  SeedKind
	Value []byte // SeedConst
	Path  string // SeedArg, SeedAccount
}

func (s Seed) String() string {
	switch s.Kind {
	case SeedConst:
		return fmt.Sprintf("const(%d bytes)", len(s.Value))
	case SeedArg:
		return "arg(" + s.Path + ")"
	case SeedAccount:
		return "account(" + s.Path + ")"
	default:
		return "unsupported(" + s.Path + ")"
	}
}

// FlatAccount is a leaf of the account tree together with its full dotted
// path, e.g. "market.baseVault" for a leaf nested in a group.
type FlatAccount struct {
	Path string
	Account
}

// FlatAccounts returns the instruction's account leaves in declaration
// order, depth first. This order is the instruction's account meta order.
func (ix *Instruction) FlatAccounts() []FlatAccount {
	var out []FlatAccount
	var walk func(prefix string, accounts []Account)
	walk = func(prefix string, accounts []Account) {
		for _, acc := range accounts {
			path := acc.Name
			if prefix != "" {
				path = prefix + "." + acc.Name
			}
			if acc.IsGroup() {
				walk(path, acc.Accounts)
				continue
			}
			out = append(out, FlatAccount{Path: path, Account: acc})
		}
	}
	walk("", ix.Accounts)
	return out
}

// Instruction finds an entry point by name. Exact matches win; otherwise
// names are compared case- and underscore-insensitively so that
// "createOrder" finds "create_order".
func (i *Idl) Instruction(name string) (*Instruction, bool) {
	for n := range i.Instructions {
		if i.Instructions[n].Name == name {
			return &i.Instructions[n], true
		}
	}
	want := normalizeName(name)
	for n := range i.Instructions {
		if normalizeName(i.Instructions[n].Name) == want {
			return &i.Instructions[n], true
		}
	}
	return nil, false
}

// InstructionNames lists the declared entry points in declaration order.
func (i *Idl) InstructionNames() []string {
	names := make([]string, len(i.Instructions))
	for n := range i.Instructions {
		names[n] = i.Instructions[n].Name
	}
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
