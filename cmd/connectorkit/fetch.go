// ==================================
// File: cmd/connectorkit/fetch.go
// ==================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v5"
	sdk "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solana-foundation/connectorkit-sub003/internal/wire"
)

// fetchParallelism caps concurrent RPC calls so a long signature list does
// not hammer the endpoint.
const fetchParallelism = 4

type fetchResult struct {
	Signature   string                   `json:"signature"`
	Slot        uint64                   `json:"slot"`
	BlockTime   *int64                   `json:"blockTime,omitempty"`
	Summary     *wire.TransactionSummary `json:"summary,omitempty"`
	Transaction *wire.DecodedTransaction `json:"transaction,omitempty"`
}

// runFetch pulls raw transactions by signature and decodes them locally.
// Results keep the order of the input signatures.
func runFetch(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	endpoint := fs.String("endpoint", "", "RPC endpoint (overrides config)")
	summary := fs.Bool("summary", false, "print condensed summaries instead of full decodes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sigStrings := fs.Args()
	if len(sigStrings) == 0 {
		return errors.New("fetch: at least one transaction signature required")
	}
	sigs := make([]sdk.Signature, len(sigStrings))
	for i, s := range sigStrings {
		sig, err := sdk.SignatureFromBase58(s)
		if err != nil {
			return fmt.Errorf("invalid signature %q: %w", s, err)
		}
		sigs[i] = sig
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	client := newRPCClient(a, *endpoint)
	log := a.log.WithComponent("fetch")

	ctx, cancel := context.WithTimeout(context.Background(), a.rpcTimeout())
	defer cancel()

	results := make([]fetchResult, len(sigs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i, sig := range sigs {
		g.Go(func() error {
			res, err := fetchTransaction(gctx, client, sig, a.cfg.Retries)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", sig, err)
			}

			raw := res.Transaction.GetBinary()
			tx, err := wire.Decode(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", sig, err)
			}
			log.Debug("fetched transaction",
				zap.String("signature", sig.String()),
				zap.Uint64("slot", res.Slot),
				zap.Int("size", len(raw)))

			out := fetchResult{Signature: sig.String(), Slot: res.Slot}
			if res.BlockTime != nil {
				t := int64(*res.BlockTime)
				out.BlockTime = &t
			}
			if *summary {
				s := wire.Summarize(tx)
				out.Summary = &s
			} else {
				out.Transaction = tx
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeJSON(stdout, results)
}

// fetchTransaction retries transient RPC failures with exponential backoff.
func fetchTransaction(ctx context.Context, client *rpc.Client, sig sdk.Signature, retries int) (*rpc.GetTransactionResult, error) {
	if retries < 1 {
		retries = 1
	}
	maxVersion := uint64(0)
	op := func() (*rpc.GetTransactionResult, error) {
		res, err := client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       sdk.EncodingBase64,
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if err != nil {
			return nil, err
		}
		if res.Transaction == nil {
			return nil, backoff.Permanent(errors.New("transaction has no payload"))
		}
		return res, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(retries)))
}
