// ==================================
// File: cmd/connectorkit/main_test.go
// ==================================
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-foundation/connectorkit-sub003/internal/builder"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana"
	"github.com/solana-foundation/connectorkit-sub003/internal/solana/computebudget"
	"github.com/solana-foundation/connectorkit-sub003/internal/wire"
)

const (
	testProgramAddr = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	testWalletAddr  = "cash11ndAmdKFEnG2wrQQ5Zqvr1kN9htxxLyoPLYFUV"
	testMintAddr    = "BZRmKeTGHYguYvSZ7wpFAZjJ1rqT9Tsq3PmUcL1pbhri"
)

const testIdlJSON = `{
  "address": "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P",
  "metadata": {"name": "escrow", "version": "0.1.0"},
  "instructions": [
    {
      "name": "deposit",
      "discriminator": [242, 35, 198, 137, 82, 225, 242, 182],
      "accounts": [
        {"name": "user", "writable": true, "signer": true},
        {"name": "mint"},
        {
          "name": "vault",
          "writable": true,
          "pda": {
            "seeds": [
              {"kind": "const", "value": [118, 97, 117, 108, 116]},
              {"kind": "account", "path": "mint"}
            ]
          }
        },
        {"name": "systemProgram", "address": "11111111111111111111111111111111"}
      ],
      "args": [{"name": "amount", "type": "u64"}]
    }
  ]
}`

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTestConfig(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf("log_file: %s\nlog_level: error\n", filepath.Join(dir, "logs", "cli.log"))
	for _, line := range lines {
		content += line + "\n"
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureTxBase64(t *testing.T) string {
	t.Helper()
	payer := solana.MustAddress(testWalletAddr)
	var hash solana.Hash
	for i := range hash {
		hash[i] = 0x5a
	}
	instr := builder.Instruction{
		ProgramID: solana.MustAddress(testProgramAddr),
		Accounts:  []builder.AccountMeta{{Address: solana.MustAddress(testMintAddr)}},
		Data:      []byte{9, 9, 9},
	}
	tx, err := builder.Assemble([]builder.Instruction{instr}, payer, hash, nil)
	require.NoError(t, err)
	return wire.EncodeBase64(tx)
}

func TestRun_Usage(t *testing.T) {
	code, stdout, _ := execute(t, "", "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")

	code, _, stderr := execute(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, stderr = execute(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRunDecode_Full(t *testing.T) {
	code, stdout, stderr := execute(t, "", "decode", "-b64", fixtureTxBase64(t))
	require.Equal(t, 0, code, stderr)

	var decoded struct {
		Version         string   `json:"version"`
		StaticAccounts  []string `json:"staticAccounts"`
		RecentBlockhash string   `json:"recentBlockhash"`
		Instructions    []struct {
			ProgramIndex int    `json:"programIdIndex"`
			Accounts     []int  `json:"accounts"`
			Data         []byte `json:"data"`
		} `json:"instructions"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, "legacy", decoded.Version)
	require.NotEmpty(t, decoded.StaticAccounts)
	assert.Equal(t, testWalletAddr, decoded.StaticAccounts[0])
	require.Len(t, decoded.Instructions, 1)
	assert.Equal(t, []byte{9, 9, 9}, decoded.Instructions[0].Data)
	assert.Equal(t, testProgramAddr, decoded.StaticAccounts[decoded.Instructions[0].ProgramIndex])
}

func TestRunDecode_SummaryFromStdin(t *testing.T) {
	code, stdout, stderr := execute(t, fixtureTxBase64(t)+"\n", "decode", "-summary")
	require.Equal(t, 0, code, stderr)

	var summary wire.TransactionSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, "legacy", summary.Version)
	assert.Equal(t, testWalletAddr, summary.FeePayer)
	assert.Equal(t, 1, summary.InstructionCount)
	assert.Contains(t, summary.Programs, testProgramAddr)
}

func TestRunDecode_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.b64")
	require.NoError(t, os.WriteFile(path, []byte(fixtureTxBase64(t)+"\n"), 0o644))

	code, stdout, stderr := execute(t, "", "decode", "-file", path, "-summary")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, testWalletAddr)
}

func TestRunDecode_BadInput(t *testing.T) {
	code, _, stderr := execute(t, "", "decode", "-b64", "not-base64!!")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")

	code, _, stderr = execute(t, "", "decode")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no transaction given")
}

func TestRunFetch_DecodesRPCResult(t *testing.T) {
	txBase64 := fixtureTxBase64(t)
	sigBytes := bytes.Repeat([]byte{7}, 64)
	sig := base58.Encode(sigBytes)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "getTransaction", req.Method)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"slot":4242,"blockTime":1700000000,"transaction":[%q,"base64"]}}`,
			req.ID, txBase64)
	}))
	defer srv.Close()

	cfg := writeTestConfig(t)
	code, stdout, stderr := execute(t, "",
		"fetch", "-config", cfg, "-endpoint", srv.URL, "-summary", sig)
	require.Equal(t, 0, code, stderr)

	var results []fetchResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, sig, results[0].Signature)
	assert.Equal(t, uint64(4242), results[0].Slot)
	require.NotNil(t, results[0].BlockTime)
	assert.Equal(t, int64(1700000000), *results[0].BlockTime)
	require.NotNil(t, results[0].Summary)
	assert.Equal(t, testWalletAddr, results[0].Summary.FeePayer)
}

func TestRunFetch_InvalidSignature(t *testing.T) {
	code, _, stderr := execute(t, "", "fetch", "not-a-signature")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid signature")

	code, _, stderr = execute(t, "", "fetch")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "at least one transaction signature")
}

func TestRunIdl_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idl.json")
	require.NoError(t, os.WriteFile(path, []byte(testIdlJSON), 0o644))

	code, stdout, stderr := execute(t, "", "idl", "-file", path)
	require.Equal(t, 0, code, stderr)

	var info idlInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "escrow", info.Name)
	assert.Equal(t, "0.1.0", info.Version)
	assert.Equal(t, testProgramAddr, info.Program)
	require.Len(t, info.Instructions, 1)
	assert.Equal(t, "deposit", info.Instructions[0].Name)
	assert.Equal(t, "f223c68952e1f2b6", info.Instructions[0].Discriminator)
	assert.Equal(t, 4, info.Instructions[0].Accounts)
	assert.Equal(t, 1, info.Instructions[0].Args)
}

func TestRunIdl_NoSource(t *testing.T) {
	code, _, stderr := execute(t, "", "idl")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "pass -program")
}

func TestRunBuild_Offline(t *testing.T) {
	idlPath := filepath.Join(t.TempDir(), "idl.json")
	require.NoError(t, os.WriteFile(idlPath, []byte(testIdlJSON), 0o644))
	cfg := writeTestConfig(t, "wallet_pubkey: "+testWalletAddr)

	blockhash := testMintAddr // any 32-byte base58 string works as a hash
	code, stdout, stderr := execute(t, "",
		"build", "-config", cfg, "-idl", idlPath, "-ix", "deposit",
		"-arg", "amount=5",
		"-account", "mint="+testMintAddr,
		"-blockhash", blockhash,
		"-cu-limit", "100000", "-cu-price", "25")
	require.Equal(t, 0, code, stderr)

	var out struct {
		Transaction string                  `json:"transaction"`
		Summary     wire.TransactionSummary `json:"summary"`
		Accounts    []resolvedAccount       `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))

	tx, err := wire.DecodeBase64(out.Transaction)
	require.NoError(t, err)
	payer, ok := tx.FeePayer()
	require.True(t, ok)
	assert.Equal(t, testWalletAddr, payer.String())
	require.Len(t, tx.Instructions, 3)

	deposit := tx.Instructions[2]
	assert.Equal(t, testProgramAddr, tx.StaticAccounts[deposit.ProgramIndex].String())
	wantData := append([]byte{242, 35, 198, 137, 82, 225, 242, 182}, 5, 0, 0, 0, 0, 0, 0, 0)
	assert.Equal(t, wantData, deposit.Data)

	budget := wire.InspectComputeBudget(tx)
	require.NotNil(t, budget.UnitLimit)
	assert.Equal(t, uint32(100000), *budget.UnitLimit)
	require.NotNil(t, budget.UnitPriceMicroLamports)
	assert.Equal(t, uint64(25), *budget.UnitPriceMicroLamports)

	program := solana.MustAddress(testProgramAddr)
	mint := solana.MustAddress(testMintAddr)
	wantVault, _, err := solana.FindProgramAddress([][]byte{[]byte("vault"), mint.Bytes()}, program)
	require.NoError(t, err)

	byPath := make(map[string]resolvedAccount, len(out.Accounts))
	for _, acc := range out.Accounts {
		byPath[acc.Path] = acc
	}
	assert.Equal(t, testWalletAddr, byPath["user"].Address)
	assert.Equal(t, "wallet", byPath["user"].Source)
	assert.Equal(t, testMintAddr, byPath["mint"].Address)
	assert.Equal(t, "override", byPath["mint"].Source)
	assert.Equal(t, wantVault.String(), byPath["vault"].Address)
	assert.Equal(t, "pda", byPath["vault"].Source)
	require.NotNil(t, byPath["vault"].Bump)
	assert.Equal(t, "fixed", byPath["systemProgram"].Source)
	assert.Equal(t, solana.SystemProgram.String(), byPath["systemProgram"].Address)

	assert.Contains(t, out.Summary.Programs, computebudget.ProgramID.String())
	assert.Contains(t, out.Summary.Programs, testProgramAddr)
}

func TestRunBuild_ComputeLimitTooLarge(t *testing.T) {
	code, _, stderr := execute(t, "",
		"build", "-ix", "deposit", "-cu-limit", "4294967296")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "cu-limit")
}

func TestRunBuild_UnknownInstruction(t *testing.T) {
	idlPath := filepath.Join(t.TempDir(), "idl.json")
	require.NoError(t, os.WriteFile(idlPath, []byte(testIdlJSON), 0o644))
	cfg := writeTestConfig(t, "wallet_pubkey: "+testWalletAddr)

	code, _, stderr := execute(t, "",
		"build", "-config", cfg, "-idl", idlPath, "-ix", "withdraw",
		"-blockhash", testMintAddr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `instruction "withdraw" not in IDL`)
	assert.Contains(t, stderr, "deposit")
}

func TestRunBuild_NoFeePayer(t *testing.T) {
	idlPath := filepath.Join(t.TempDir(), "idl.json")
	require.NoError(t, os.WriteFile(idlPath, []byte(testIdlJSON), 0o644))
	cfg := writeTestConfig(t)

	code, _, stderr := execute(t, "",
		"build", "-config", cfg, "-idl", idlPath, "-ix", "deposit",
		"-blockhash", testMintAddr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fee payer required")
}
