// ==================================
// File: internal/wire/codec.go
// ==================================
package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// Version identifies the message format of a wire transaction.
type Version int8

const (
	VersionLegacy Version = iota - 1
	Version0
)

func (v Version) String() string {
	if v == VersionLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", int8(v))
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Header is the three-byte message header.
type Header struct {
	NumRequiredSignatures uint8 `json:"numRequiredSignatures"`
	NumReadonlySigned     uint8 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsigned   uint8 `json:"numReadonlyUnsignedAccounts"`
}

// CompiledInstruction is an instruction with its accounts replaced by
// indices into the transaction's account-key space. Immutable once decoded.
type CompiledInstruction struct {
	ProgramIndex   uint8
	AccountIndices []byte
	Data           []byte
}

func (ci CompiledInstruction) MarshalJSON() ([]byte, error) {
	indices := make([]int, len(ci.AccountIndices))
	for i, idx := range ci.AccountIndices {
		indices[i] = int(idx)
	}
	return json.Marshal(struct {
		ProgramIndex int    `json:"programIdIndex"`
		Accounts     []int  `json:"accounts"`
		Data         []byte `json:"data"`
	}{
		ProgramIndex: int(ci.ProgramIndex),
		Accounts:     indices,
		Data:         ci.Data,
	})
}

// AddressTableLookup loads extra account keys from an on-chain lookup table.
// Present only in versioned messages.
type AddressTableLookup struct {
	TableAddress    solana.Address
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

func (l AddressTableLookup) MarshalJSON() ([]byte, error) {
	writable := make([]int, len(l.WritableIndexes))
	for i, idx := range l.WritableIndexes {
		writable[i] = int(idx)
	}
	readonly := make([]int, len(l.ReadonlyIndexes))
	for i, idx := range l.ReadonlyIndexes {
		readonly[i] = int(idx)
	}
	return json.Marshal(struct {
		TableAddress    solana.Address `json:"accountKey"`
		WritableIndexes []int          `json:"writableIndexes"`
		ReadonlyIndexes []int          `json:"readonlyIndexes"`
	}{l.TableAddress, writable, readonly})
}

// DecodedTransaction is the structured form of a wire transaction. It is
// created per decode call and treated as read-only; signatures are retained
// so that Encode reproduces the input byte for byte.
type DecodedTransaction struct {
	Version             Version               `json:"version"`
	Signatures          []solana.Signature    `json:"signatures"`
	Header              Header                `json:"header"`
	StaticAccounts      []solana.Address      `json:"staticAccounts"`
	RecentBlockhash     solana.Hash           `json:"recentBlockhash"`
	Instructions        []CompiledInstruction `json:"instructions"`
	AddressTableLookups []AddressTableLookup  `json:"addressTableLookups,omitempty"`
}

// FeePayer returns the account charged for the transaction, which is the
// first static key whenever at least one signature is required.
func (tx *DecodedTransaction) FeePayer() (solana.Address, bool) {
	if tx.Header.NumRequiredSignatures == 0 || len(tx.StaticAccounts) == 0 {
		return solana.Address{}, false
	}
	return tx.StaticAccounts[0], true
}

// keySpace is the number of addressable account slots: static keys plus, for
// versioned messages, every table-loaded key.
func (tx *DecodedTransaction) keySpace() int {
	n := len(tx.StaticAccounts)
	for _, l := range tx.AddressTableLookups {
		n += len(l.WritableIndexes) + len(l.ReadonlyIndexes)
	}
	return n
}

// DecodeBase64 decodes a base64-encoded wire transaction.
func DecodeBase64(s string) (*DecodedTransaction, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedWire, err)
	}
	return Decode(raw)
}

// Decode parses a raw wire transaction, legacy or version 0. Any structural
// violation returns an error and no partial result.
func Decode(raw []byte) (*DecodedTransaction, error) {
	cur := newCursor(raw)
	tx := &DecodedTransaction{Version: VersionLegacy}

	sigCount, err := cur.readShortVecLen()
	if err != nil {
		return nil, fmt.Errorf("failed to read signature count: %w", err)
	}
	if sigCount > cur.remaining()/solana.SignatureLength {
		return nil, fmt.Errorf("%w: %d signatures exceed remaining %d bytes", ErrMalformedWire, sigCount, cur.remaining())
	}
	if sigCount > 0 {
		tx.Signatures = make([]solana.Signature, sigCount)
	}
	for i := range tx.Signatures {
		b, err := cur.readBytes(solana.SignatureLength)
		if err != nil {
			return nil, fmt.Errorf("failed to read signature %d: %w", i, err)
		}
		copy(tx.Signatures[i][:], b)
	}

	// A legacy message starts directly with the header; a versioned message
	// carries one prefix byte with the high bit set and the version in the
	// low seven bits.
	first, err := cur.peekByte()
	if err != nil {
		return nil, fmt.Errorf("missing message: %w", err)
	}
	if first&0x80 != 0 {
		version := first & 0x7f
		if version != 0 {
			return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
		}
		tx.Version = Version0
		_, _ = cur.readByte()
	}

	if tx.Header.NumRequiredSignatures, err = cur.readByte(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if tx.Header.NumReadonlySigned, err = cur.readByte(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if tx.Header.NumReadonlyUnsigned, err = cur.readByte(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	accountCount, err := cur.readShortVecLen()
	if err != nil {
		return nil, fmt.Errorf("failed to read account count: %w", err)
	}
	if accountCount > cur.remaining()/solana.AddressLength {
		return nil, fmt.Errorf("%w: %d account keys exceed remaining %d bytes", ErrMalformedWire, accountCount, cur.remaining())
	}
	if accountCount > 0 {
		tx.StaticAccounts = make([]solana.Address, accountCount)
	}
	for i := range tx.StaticAccounts {
		b, err := cur.readBytes(solana.AddressLength)
		if err != nil {
			return nil, fmt.Errorf("failed to read account key %d: %w", i, err)
		}
		copy(tx.StaticAccounts[i][:], b)
	}

	// Every required signer occupies a leading static slot, so the header
	// can never demand more signatures than there are static keys.
	if int(tx.Header.NumRequiredSignatures) > len(tx.StaticAccounts) {
		return nil, fmt.Errorf("%w: %d required signatures exceed %d static accounts",
			ErrMalformedWire, tx.Header.NumRequiredSignatures, len(tx.StaticAccounts))
	}

	blockhash, err := cur.readBytes(solana.HashLength)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent blockhash: %w", err)
	}
	copy(tx.RecentBlockhash[:], blockhash)

	instructionCount, err := cur.readShortVecLen()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction count: %w", err)
	}
	if instructionCount > cur.remaining() {
		return nil, fmt.Errorf("%w: %d instructions exceed remaining %d bytes", ErrMalformedWire, instructionCount, cur.remaining())
	}
	if instructionCount > 0 {
		tx.Instructions = make([]CompiledInstruction, instructionCount)
	}
	for i := range tx.Instructions {
		var ci CompiledInstruction
		if ci.ProgramIndex, err = cur.readByte(); err != nil {
			return nil, fmt.Errorf("failed to read instruction %d program index: %w", i, err)
		}
		idxCount, err := cur.readShortVecLen()
		if err != nil {
			return nil, fmt.Errorf("failed to read instruction %d account count: %w", i, err)
		}
		if ci.AccountIndices, err = cur.readBytes(idxCount); err != nil {
			return nil, fmt.Errorf("failed to read instruction %d accounts: %w", i, err)
		}
		dataLen, err := cur.readShortVecLen()
		if err != nil {
			return nil, fmt.Errorf("failed to read instruction %d data length: %w", i, err)
		}
		if ci.Data, err = cur.readBytes(dataLen); err != nil {
			return nil, fmt.Errorf("failed to read instruction %d data: %w", i, err)
		}
		tx.Instructions[i] = ci
	}

	if tx.Version == Version0 {
		lookupCount, err := cur.readShortVecLen()
		if err != nil {
			return nil, fmt.Errorf("failed to read lookup count: %w", err)
		}
		if lookupCount > cur.remaining() {
			return nil, fmt.Errorf("%w: %d lookups exceed remaining %d bytes", ErrMalformedWire, lookupCount, cur.remaining())
		}
		if lookupCount > 0 {
			tx.AddressTableLookups = make([]AddressTableLookup, lookupCount)
		}
		for i := range tx.AddressTableLookups {
			var l AddressTableLookup
			table, err := cur.readBytes(solana.AddressLength)
			if err != nil {
				return nil, fmt.Errorf("failed to read lookup %d table address: %w", i, err)
			}
			copy(l.TableAddress[:], table)

			writableCount, err := cur.readShortVecLen()
			if err != nil {
				return nil, fmt.Errorf("failed to read lookup %d writable count: %w", i, err)
			}
			if l.WritableIndexes, err = cur.readBytes(writableCount); err != nil {
				return nil, fmt.Errorf("failed to read lookup %d writable indexes: %w", i, err)
			}
			readonlyCount, err := cur.readShortVecLen()
			if err != nil {
				return nil, fmt.Errorf("failed to read lookup %d readonly count: %w", i, err)
			}
			if l.ReadonlyIndexes, err = cur.readBytes(readonlyCount); err != nil {
				return nil, fmt.Errorf("failed to read lookup %d readonly indexes: %w", i, err)
			}
			tx.AddressTableLookups[i] = l
		}
	}

	if cur.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after message", ErrMalformedWire, cur.remaining())
	}

	// Instruction indices address the full key space, which for versioned
	// messages includes table-loaded keys parsed above.
	space := tx.keySpace()
	for i, ci := range tx.Instructions {
		if int(ci.ProgramIndex) >= space {
			return nil, fmt.Errorf("%w: instruction %d program index %d out of range (%d keys)", ErrMalformedWire, i, ci.ProgramIndex, space)
		}
		for _, idx := range ci.AccountIndices {
			if int(idx) >= space {
				return nil, fmt.Errorf("%w: instruction %d account index %d out of range (%d keys)", ErrMalformedWire, i, idx, space)
			}
		}
	}

	return tx, nil
}

// Encode is the byte-level inverse of Decode: for any input Decode accepts,
// Encode(Decode(input)) reproduces it exactly.
func Encode(tx *DecodedTransaction) []byte {
	out := appendShortVecLen(nil, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		out = append(out, sig[:]...)
	}

	if tx.Version != VersionLegacy {
		out = append(out, 0x80|byte(tx.Version))
	}

	out = append(out, tx.Header.NumRequiredSignatures, tx.Header.NumReadonlySigned, tx.Header.NumReadonlyUnsigned)

	out = appendShortVecLen(out, len(tx.StaticAccounts))
	for _, acc := range tx.StaticAccounts {
		out = append(out, acc[:]...)
	}

	out = append(out, tx.RecentBlockhash[:]...)

	out = appendShortVecLen(out, len(tx.Instructions))
	for _, ci := range tx.Instructions {
		out = append(out, ci.ProgramIndex)
		out = appendShortVecLen(out, len(ci.AccountIndices))
		out = append(out, ci.AccountIndices...)
		out = appendShortVecLen(out, len(ci.Data))
		out = append(out, ci.Data...)
	}

	if tx.Version != VersionLegacy {
		out = appendShortVecLen(out, len(tx.AddressTableLookups))
		for _, l := range tx.AddressTableLookups {
			out = append(out, l.TableAddress[:]...)
			out = appendShortVecLen(out, len(l.WritableIndexes))
			out = append(out, l.WritableIndexes...)
			out = appendShortVecLen(out, len(l.ReadonlyIndexes))
			out = append(out, l.ReadonlyIndexes...)
		}
	}

	return out
}

// EncodeBase64 serializes a transaction to the base64 wire form.
func EncodeBase64(tx *DecodedTransaction) string {
	return base64.StdEncoding.EncodeToString(Encode(tx))
}
