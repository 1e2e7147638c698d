// ==================================
// File: cmd/connectorkit/decode.go
// ==================================
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/solana-foundation/connectorkit-sub003/internal/wire"
)

// runDecode turns a base64 transaction into JSON. It is fully offline and
// needs neither config nor network.
func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	b64 := fs.String("b64", "", "base64-encoded transaction")
	file := fs.String("file", "", "file containing a base64 transaction")
	summary := fs.Bool("summary", false, "print a condensed summary instead of the full decode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input, err := transactionInput(*b64, *file, fs.Args(), stdin)
	if err != nil {
		return err
	}

	tx, err := wire.DecodeBase64(input)
	if err != nil {
		return err
	}

	if *summary {
		return writeJSON(stdout, wire.Summarize(tx))
	}
	return writeJSON(stdout, tx)
}

// transactionInput picks the base64 payload from, in order, the -b64 flag, a
// positional argument, the -file flag, or stdin.
func transactionInput(b64, file string, positional []string, stdin io.Reader) (string, error) {
	if b64 != "" {
		return strings.TrimSpace(b64), nil
	}
	if len(positional) > 0 {
		return strings.TrimSpace(positional[0]), nil
	}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read transaction file: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(raw))
	if input == "" {
		return "", errors.New("no transaction given: pass -b64, -file, or pipe base64 on stdin")
	}
	return input, nil
}
