// ==================================
// File: internal/solana/programs.go
// ==================================
package solana

import "strings"

// Well-known program, sysvar, and mint addresses.
var (
	SystemProgram          = MustAddress("11111111111111111111111111111111")
	TokenProgram           = MustAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgram = MustAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	ComputeBudgetProgram   = MustAddress("ComputeBudget111111111111111111111111111111")
	MemoProgram            = MustAddress("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	MemoProgramV1          = MustAddress("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
	WrappedSOLMint         = MustAddress("So11111111111111111111111111111111111111112")

	SysvarRent              = MustAddress("SysvarRent111111111111111111111111111111111")
	SysvarClock             = MustAddress("SysvarC1ock11111111111111111111111111111111")
	SysvarRecentBlockhashes = MustAddress("SysvarRecentB1ockHashes11111111111111111111")
	SysvarInstructions      = MustAddress("Sysvar1nstructions1111111111111111111111111")
)

// knownByName maps normalized IDL account names to fixed addresses. IDL
// authors name these accounts freely ("tokenProgram", "token_program",
// "rent"), so lookup goes through normalizeAccountName.
var knownByName = map[string]Address{
	"system":        SystemProgram,
	"systemprogram": SystemProgram,

	"tokenprogram":    TokenProgram,
	"spltokenprogram": TokenProgram,

	"associatedtokenprogram":        AssociatedTokenProgram,
	"associatedtokenaccountprogram": AssociatedTokenProgram,
	"ataprogram":                    AssociatedTokenProgram,

	"computebudget":        ComputeBudgetProgram,
	"computebudgetprogram": ComputeBudgetProgram,

	"memoprogram": MemoProgram,

	"wsol":           WrappedSOLMint,
	"wsolmint":       WrappedSOLMint,
	"wrappedsol":     WrappedSOLMint,
	"wrappedsolmint": WrappedSOLMint,
	"nativemint":     WrappedSOLMint,

	"rent":       SysvarRent,
	"rentsysvar": SysvarRent,
	"sysvarrent": SysvarRent,

	"clock":       SysvarClock,
	"clocksysvar": SysvarClock,
	"sysvarclock": SysvarClock,

	"recentblockhashes":       SysvarRecentBlockhashes,
	"sysvarrecentblockhashes": SysvarRecentBlockhashes,

	"instructions":          SysvarInstructions,
	"instructionsysvar":     SysvarInstructions,
	"instructionssysvar":    SysvarInstructions,
	"sysvarinstructions":    SysvarInstructions,
	"instructionsysvarinfo": SysvarInstructions,
}

// KnownAddress resolves a declared account name against the well-known
// address table. Matching is case- and separator-insensitive.
func KnownAddress(name string) (Address, bool) {
	addr, ok := knownByName[normalizeAccountName(name)]
	return addr, ok
}

// normalizeAccountName lowercases and strips the separators IDL naming
// conventions differ on.
func normalizeAccountName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
