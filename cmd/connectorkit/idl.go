// ==================================
// File: cmd/connectorkit/idl.go
// ==================================
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"io"

	"go.uber.org/zap"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

type idlInstructionInfo struct {
	Name          string `json:"name"`
	Discriminator string `json:"discriminator"`
	Accounts      int    `json:"accounts"`
	Args          int    `json:"args"`
}

type idlInfo struct {
	Program      string               `json:"program,omitempty"`
	Name         string               `json:"name"`
	Version      string               `json:"version,omitempty"`
	Instructions []idlInstructionInfo `json:"instructions"`
}

// runIdl resolves an IDL through the loader chain (or a local file) and
// lists its callable instructions.
func runIdl(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("idl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	endpoint := fs.String("endpoint", "", "RPC endpoint (overrides config)")
	program := fs.String("program", "", "program id to load the IDL for")
	file := fs.String("file", "", "read the IDL from a local JSON file instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *program == "" && fs.NArg() > 0 {
		*program = fs.Arg(0)
	}

	var (
		doc *idl.Idl
		err error
	)
	switch {
	case *file != "":
		doc, err = idl.LoadFile(*file)
		if err != nil {
			return err
		}
	case *program != "":
		programID, parseErr := solana.ParseAddress(*program)
		if parseErr != nil {
			return parseErr
		}
		a, appErr := newApp(*configPath)
		if appErr != nil {
			return appErr
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(context.Background(), a.rpcTimeout())
		defer cancel()

		loader := newLoader(a, newRPCClient(a, *endpoint))
		doc, err = loader.Load(ctx, programID)
		if err != nil {
			return err
		}
		a.log.WithComponent("idl").Info("loaded IDL",
			zap.String("program", programID.String()),
			zap.String("name", doc.Name),
			zap.Int("instructions", len(doc.Instructions)))
	default:
		return errors.New("idl: pass -program <address> or -file <path>")
	}

	info := idlInfo{
		Program: doc.Address,
		Name:    doc.Name,
		Version: doc.Version,
	}
	if *program != "" {
		info.Program = *program
	}
	for i := range doc.Instructions {
		ix := &doc.Instructions[i]
		info.Instructions = append(info.Instructions, idlInstructionInfo{
			Name:          ix.Name,
			Discriminator: hex.EncodeToString(ix.DiscriminatorBytes()),
			Accounts:      len(ix.FlatAccounts()),
			Args:          len(ix.Args),
		})
	}
	return writeJSON(stdout, info)
}
