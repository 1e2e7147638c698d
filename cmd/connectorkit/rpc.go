// ==================================
// File: cmd/connectorkit/rpc.go
// ==================================
package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solana-foundation/connectorkit-sub003/internal/idl"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// rpcFetcher adapts the SDK client to the loader's account-fetch interface.
type rpcFetcher struct {
	client *rpc.Client
}

func (f *rpcFetcher) FetchAccountData(ctx context.Context, address solana.Address) ([]byte, error) {
	resp, err := f.client.GetAccountInfo(ctx, address.ToSDK())
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("account %s not found", address)
	}
	return resp.Value.Data.GetBinary(), nil
}

// newRPCClient builds a client for the configured endpoint, with an optional
// per-command override.
func newRPCClient(a *app, override string) *rpc.Client {
	endpoint := a.cfg.RPCEndpoint
	if override != "" {
		endpoint = override
	}
	return rpc.New(endpoint)
}

// newLoader wires the IDL loader chain: disk cache, on-chain account,
// repository fallbacks.
func newLoader(a *app, client *rpc.Client) *idl.Loader {
	return idl.NewLoader(idl.LoaderConfig{
		CacheDir:     a.cfg.IdlCacheDir,
		Repositories: a.cfg.IdlRepositories,
		HTTPTimeout:  a.idlTimeout(),
	}, &rpcFetcher{client: client}, a.log.Logger)
}

func latestBlockhash(ctx context.Context, client *rpc.Client) (solana.Hash, error) {
	resp, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("fetch latest blockhash: %w", err)
	}
	return solana.Hash(resp.Value.Blockhash), nil
}
