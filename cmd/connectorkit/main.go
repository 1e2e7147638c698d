// ==================================
// File: cmd/connectorkit/main.go
// ==================================
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solana-foundation/connectorkit-sub003/internal/config"
	"github.com/solana-foundation/connectorkit-sub003/internal/logger"
)

const usageText = `connectorkit inspects and builds Solana transactions.

Usage:

  connectorkit <command> [flags] [args]

Commands:

  decode   decode a base64 transaction into JSON
  fetch    fetch transactions by signature over RPC and decode them
  idl      load a program IDL and list its instructions
  build    build an unsigned transaction from an IDL instruction

Run "connectorkit <command> -h" for command flags.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches to a subcommand and maps its outcome to an exit code.
// Command output goes to stdout; diagnostics and logs stay on stderr.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "decode":
		err = runDecode(rest, stdin, stdout, stderr)
	case "fetch":
		err = runFetch(rest, stdout, stderr)
	case "idl":
		err = runIdl(rest, stdout, stderr)
	case "build":
		err = runBuild(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(stderr, usageText)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// app bundles the pieces every online subcommand needs.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	lg, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		Level:       cfg.LogLevel,
		MaxSize:     cfg.LogMaxSize,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAge:      cfg.LogMaxAge,
		Compress:    true,
		Development: cfg.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &app{cfg: cfg, log: lg}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) rpcTimeout() time.Duration {
	return time.Duration(a.cfg.RPCTimeout) * time.Millisecond
}

func (a *app) idlTimeout() time.Duration {
	return time.Duration(a.cfg.IdlTimeout) * time.Millisecond
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
