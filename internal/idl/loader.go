// ==================================
// File: internal/idl/loader.go
// ==================================

package idl

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
)

// ErrNotFound is returned when every IDL source came up empty.
var ErrNotFound = errors.New("idl not found")

// DefaultRepositories are the community endpoints tried after the local
// cache and the on-chain account. Each template takes the program id.
var DefaultRepositories = []string{
	"https://api.apr.dev/api/idl/%s",
	"https://raw.githubusercontent.com/coral-xyz/anchor/master/ts/packages/anchor/src/idl/%s.json",
}

// AccountFetcher reads raw account data, typically over RPC. The loader
// uses it for the on-chain IDL account; a nil fetcher skips that source.
type AccountFetcher interface {
	FetchAccountData(ctx context.Context, address solana.Address) ([]byte, error)
}

// LoaderConfig tunes the IDL loading chain.
type LoaderConfig struct {
	// CacheDir holds fetched IDLs as <program>.json; empty disables the
	// disk cache.
	CacheDir string
	// Repositories overrides DefaultRepositories when non-empty.
	Repositories []string
	// HTTPTimeout bounds each repository request. Zero means 10s.
	HTTPTimeout time.Duration
}

// Loader fetches and memoizes IDL documents per program: local cache
// file first, then the canonical on-chain Anchor IDL account, then the
// community repositories. Concurrent loads of the same program collapse
// into one fetch.
type Loader struct {
	logger   *zap.Logger
	client   *http.Client
	fetcher  AccountFetcher
	cacheDir string
	repos    []string

	mu    sync.RWMutex
	memo  map[solana.Address]*Idl
	group singleflight.Group
}

// NewLoader creates a loader. fetcher may be nil when no RPC access is
// available; the on-chain source is then skipped.
func NewLoader(cfg LoaderConfig, fetcher AccountFetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	repos := cfg.Repositories
	if len(repos) == 0 {
		repos = DefaultRepositories
	}
	return &Loader{
		logger:   logger.Named("idl-loader"),
		client:   &http.Client{Timeout: timeout},
		fetcher:  fetcher,
		cacheDir: cfg.CacheDir,
		repos:    repos,
		memo:     make(map[solana.Address]*Idl),
	}
}

// LoadFile reads and parses an IDL document from disk, bypassing the
// per-program loading chain.
func LoadFile(path string) (*Idl, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read IDL file: %w", err)
	}
	return Parse(raw)
}

// Load returns the IDL for a program, fetching it on first use.
func (l *Loader) Load(ctx context.Context, programID solana.Address) (*Idl, error) {
	l.mu.RLock()
	cached, ok := l.memo[programID]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := l.group.Do(programID.String(), func() (interface{}, error) {
		return l.load(ctx, programID)
	})
	if err != nil {
		return nil, err
	}
	idl := v.(*Idl)

	l.mu.Lock()
	l.memo[programID] = idl
	l.mu.Unlock()
	return idl, nil
}

func (l *Loader) load(ctx context.Context, programID solana.Address) (*Idl, error) {
	if raw, err := l.loadLocal(programID); err == nil {
		idl, perr := Parse(raw)
		if perr == nil {
			l.logger.Debug("loaded IDL from local cache",
				zap.String("program", programID.String()))
			return idl, nil
		}
		l.logger.Warn("cached IDL is unreadable, refetching",
			zap.String("program", programID.String()),
			zap.Error(perr))
	}

	if l.fetcher != nil {
		idl, err := l.loadOnChain(ctx, programID)
		if err == nil {
			l.logger.Debug("loaded IDL from on-chain account",
				zap.String("program", programID.String()))
			return idl, nil
		}
		l.logger.Debug("on-chain IDL lookup failed",
			zap.String("program", programID.String()),
			zap.Error(err))
	}

	raw, err := l.loadFromRepositories(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to load IDL for program %s: %w", programID.String(), err)
	}
	idl, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("repository IDL for program %s: %w", programID.String(), err)
	}
	l.logger.Debug("loaded IDL from repository",
		zap.String("program", programID.String()))
	l.saveLocal(programID, raw)
	return idl, nil
}

func (l *Loader) cachePath(programID solana.Address) string {
	return filepath.Join(l.cacheDir, programID.String()+".json")
}

func (l *Loader) loadLocal(programID solana.Address) ([]byte, error) {
	if l.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(l.cachePath(programID))
}

func (l *Loader) saveLocal(programID solana.Address, raw []byte) {
	if l.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		l.logger.Warn("failed to create IDL cache dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.cachePath(programID), raw, 0o644); err != nil {
		l.logger.Warn("failed to cache IDL",
			zap.String("program", programID.String()),
			zap.Error(err))
	}
}

func (l *Loader) loadOnChain(ctx context.Context, programID solana.Address) (*Idl, error) {
	idlAddr, err := IdlAddress(programID)
	if err != nil {
		return nil, err
	}
	data, err := l.fetcher.FetchAccountData(ctx, idlAddr)
	if err != nil {
		return nil, err
	}
	raw, err := ExtractOnChainIdl(data)
	if err != nil {
		return nil, err
	}
	idl, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	l.saveLocal(programID, raw)
	return idl, nil
}

func (l *Loader) loadFromRepositories(ctx context.Context, programID solana.Address) ([]byte, error) {
	var lastErr error
	for _, tmpl := range l.repos {
		url := fmt.Sprintf(tmpl, programID.String())
		raw, err := l.fetchURL(ctx, url)
		if err != nil {
			lastErr = err
			l.logger.Debug("repository fetch failed",
				zap.String("url", url),
				zap.Error(err))
			continue
		}
		return raw, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, lastErr
}

func (l *Loader) fetchURL(ctx context.Context, url string) ([]byte, error) {
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}
		return io.ReadAll(resp.Body)
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
}

// IdlAddress derives the canonical Anchor IDL account for a program:
// the program's empty-seed PDA extended with the "anchor:idl" seed.
func IdlAddress(programID solana.Address) (solana.Address, error) {
	base, _, err := solana.FindProgramAddress(nil, programID)
	if err != nil {
		return solana.Address{}, err
	}
	return solana.CreateWithSeed(base, "anchor:idl", programID)
}

// idlAccountHeaderLen covers the 8-byte account discriminator, the
// 32-byte authority and the u32 data length.
const idlAccountHeaderLen = 8 + 32 + 4

// ExtractOnChainIdl unpacks the JSON document from a raw Anchor IDL
// account: header then a zlib-compressed payload of the stated length.
func ExtractOnChainIdl(data []byte) ([]byte, error) {
	if len(data) < idlAccountHeaderLen {
		return nil, fmt.Errorf("idl account too short: %d bytes", len(data))
	}
	size := int(binary.LittleEndian.Uint32(data[40:idlAccountHeaderLen]))
	if size > len(data)-idlAccountHeaderLen {
		return nil, fmt.Errorf("idl account declares %d bytes, only %d present", size, len(data)-idlAccountHeaderLen)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[idlAccountHeaderLen : idlAccountHeaderLen+size]))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate idl payload: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate idl payload: %w", err)
	}
	return raw, nil
}
