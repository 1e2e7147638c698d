// ==================================
// File: cmd/connectorkit/build.go
// ==================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/solana-foundation/connectorkit-sub003/internal/builder"
	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/resolve"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana/computebudget"
	"github.com/solana-foundation/connectorkit-sub003/internal/wallet"
	"github.com/solana-foundation/connectorkit-sub003/internal/wire"
)

// kvFlags collects repeated name=value flags.
type kvFlags map[string]string

func (f kvFlags) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (f kvFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	f[key] = value
	return nil
}

type resolvedAccount struct {
	Path    string `json:"path"`
	Address string `json:"address,omitempty"`
	Source  string `json:"source"`
	Bump    *uint8 `json:"bump,omitempty"`
	Omitted bool   `json:"omitted,omitempty"`
}

type buildResult struct {
	Transaction string                  `json:"transaction"`
	Summary     wire.TransactionSummary `json:"summary"`
	Accounts    []resolvedAccount       `json:"accounts"`
}

// runBuild assembles an unsigned transaction from one IDL instruction. The
// output carries the base64 wire bytes plus how every account was resolved.
func runBuild(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	endpoint := fs.String("endpoint", "", "RPC endpoint (overrides config)")
	idlPath := fs.String("idl", "", "IDL JSON file (defaults to the loader chain for -program)")
	program := fs.String("program", "", "program id (defaults to the IDL's address)")
	ixName := fs.String("ix", "", "instruction name")
	blockhash := fs.String("blockhash", "", "recent blockhash (fetched from RPC when empty)")
	feePayer := fs.String("fee-payer", "", "fee payer address (defaults to the configured wallet)")
	cuLimit := fs.Uint("cu-limit", uint(computebudget.DefaultUnits), "compute unit limit")
	cuPrice := fs.Uint64("cu-price", 0, "priority fee in micro-lamports per compute unit")
	argValues := kvFlags{}
	accountValues := kvFlags{}
	fs.Var(argValues, "arg", "instruction argument as name=value (repeatable)")
	fs.Var(accountValues, "account", "account override as name=address (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ixName == "" && fs.NArg() > 0 {
		*ixName = fs.Arg(0)
	}
	if *ixName == "" {
		return errors.New("build: instruction name required (-ix)")
	}
	if *cuLimit > math.MaxUint32 {
		return fmt.Errorf("build: -cu-limit %d exceeds the u32 maximum %d", *cuLimit, uint64(math.MaxUint32))
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.log.WithComponent("build")

	w, err := wallet.Load(a.cfg.WalletPubkey, a.cfg.WalletKeyfile)
	if err != nil {
		return err
	}
	var walletAddr solana.Address
	if w != nil {
		walletAddr = w.Address
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.rpcTimeout())
	defer cancel()
	client := newRPCClient(a, *endpoint)

	var programID solana.Address
	if *program != "" {
		programID, err = solana.ParseAddress(*program)
		if err != nil {
			return err
		}
	}

	var doc *idl.Idl
	if *idlPath != "" {
		doc, err = idl.LoadFile(*idlPath)
	} else {
		if programID.IsZero() {
			return errors.New("build: pass -idl <file> or -program <address>")
		}
		doc, err = newLoader(a, client).Load(ctx, programID)
	}
	if err != nil {
		return err
	}
	if programID.IsZero() {
		if doc.Address == "" {
			return errors.New("build: IDL names no program address, pass -program")
		}
		programID, err = solana.ParseAddress(doc.Address)
		if err != nil {
			return fmt.Errorf("IDL program address: %w", err)
		}
	}

	ix, ok := doc.Instruction(*ixName)
	if !ok {
		return fmt.Errorf("instruction %q not in IDL %s (have: %s)",
			*ixName, doc.Name, strings.Join(doc.InstructionNames(), ", "))
	}

	payerAddr := walletAddr
	if *feePayer != "" {
		payerAddr, err = solana.ParseAddress(*feePayer)
		if err != nil {
			return fmt.Errorf("fee payer: %w", err)
		}
	}
	if payerAddr.IsZero() {
		return errors.New("build: fee payer required, pass -fee-payer or configure a wallet")
	}

	var hash solana.Hash
	if *blockhash != "" {
		hash, err = solana.ParseHash(*blockhash)
		if err != nil {
			return err
		}
	} else {
		hash, err = latestBlockhash(ctx, client)
		if err != nil {
			return err
		}
	}

	b := builder.New(resolve.NewResolver(walletAddr, a.log.Logger), a.log.Logger)
	instr, res, err := b.Build(ix, programID, argValues, accountValues)
	if err != nil {
		return err
	}

	budget := computebudget.Config{Units: uint32(*cuLimit), UnitPrice: *cuPrice}
	tx, err := builder.Assemble([]builder.Instruction{*instr}, payerAddr, hash, &budget)
	if err != nil {
		return err
	}
	log.Info("built transaction",
		zap.String("program", programID.String()),
		zap.String("instruction", ix.Name),
		zap.String("fee_payer", payerAddr.String()),
		zap.Int("accounts", len(instr.Accounts)))

	out := buildResult{
		Transaction: wire.EncodeBase64(tx),
		Summary:     wire.Summarize(tx),
	}
	for _, leaf := range ix.FlatAccounts() {
		entry := resolvedAccount{Path: leaf.Path, Source: res.Sources[leaf.Path]}
		if res.Omitted[leaf.Path] {
			entry.Omitted = true
		} else {
			entry.Address = res.Addresses[leaf.Path].String()
		}
		if bump, ok := res.Bumps[leaf.Path]; ok {
			entry.Bump = &bump
		}
		out.Accounts = append(out.Accounts, entry)
	}
	return writeJSON(stdout, out)
}
