package solana

import (
	"testing"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	// Expected values generated by the Solana reference implementation.
	// The seed pubkey typo is part of the upstream test fixture.
	seedKey := MustAddress("SeedPubey1111111111111111111111111111111111")
	programID := MustAddress("BPFLoader1111111111111111111111111111111111")

	cases := []struct {
		expected string
		seeds    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			seeds:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			seeds:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			seeds:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			seeds:    [][]byte{seedKey[:]},
		},
	}

	for _, tc := range cases {
		addr, err := CreateProgramAddress(tc.seeds, programID)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, addr.String())
	}

	a, err := CreateProgramAddress([][]byte{[]byte("Talking")}, programID)
	require.NoError(t, err)
	b, err := CreateProgramAddress([][]byte{[]byte("Talking"), []byte("Squirrels")}, programID)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	programID := MustAddress("BPFLoader1111111111111111111111111111111111")

	exceeded := make([]byte, MaxSeedLength+1)
	_, err := CreateProgramAddress([][]byte{exceeded}, programID)
	assert.ErrorIs(t, err, ErrSeedsTooLong)

	_, err = CreateProgramAddress([][]byte{[]byte("short seed"), exceeded}, programID)
	assert.ErrorIs(t, err, ErrSeedsTooLong)

	tooMany := make([][]byte, MaxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(tooMany, programID)
	assert.ErrorIs(t, err, ErrSeedsTooLong)

	maxSeed := make([]byte, MaxSeedLength)
	_, err = CreateProgramAddress([][]byte{maxSeed}, programID)
	assert.NoError(t, err)
}

func TestFindProgramAddress_Ref(t *testing.T) {
	// Program id -> derived address pairs generated by the reference
	// implementation for seeds ["Lil'", "Bits"].
	references := []struct {
		programID string
		expected  string
	}{
		{"4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM", "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd"},
		{"8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh", "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S"},
		{"CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3", "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv"},
		{"GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeP", "2mN5Nfq9v1EwTV9FPTHPESZ3XiZce9wi5PQoULFuxvev"},
		{"LX3EUdRUBUa3TbsYXLEUdj9J3prXkWXvLYSWyYyc2Jj", "9CqF6oTZtW5zSeoLnZRoQmj3s2tXGPqifM1W8Z8LVE1z"},
		{"QRSsyMWN1yHT9ir42bgNZUNZ4PdEhcSWCrL2AryKpy5", "FwBDYafabYZLDC8FwaDCsLxWkKnaQxKuQv3afDAGiXJ8"},
		{"UKrXU5bFrTzrqqpZXs8GVDbp4xPweiM65ADXNAy3ddR", "2Y1miPDc3BkHVdNFeFTtRkiw8nbptrBqboJkbqxk5SFt"},
		{"YEGAxog9gxiGXxo538aAQxq55XAebpFfwU72ZUxmSHm", "5jeaj2d8T2hjU63h2chjtSnuUmjti6qZK7oi6jwTspoo"},
		{"c8fpTXm3XTRgE5maYQ24Li4L65wMYvAFomzXknxVEx7", "6brHYNpseuh39WW3Md5WxTyw12kqumR4tTyZqzkyPWZP"},
		{"g35TxFqwMx95vCk63fTxGTHb6ei4W24qg5t2x6xD3cT", "ESVKwnyn9DEkNcR5ZnHFbMK66nCArc9dChFCULstzLy5"},
		{"jwV7SyvqCSrVcKibYvurCCWr7DUmT7yRYPmY9QwvrGo", "69BytoSYkhMovVk8gfGUwhf9P8HSnrcYhaoWY2dgmrPE"},
		{"oqtkwi1j2wZuJSh74CMk7wk77nFUQDt1Qhf3Liweew9", "EfwG5mLknsUXPLHkUp1doxgN1W4Azr3gkZ1Zu6w6AxdF"},
	}

	seeds := [][]byte{[]byte("Lil'"), []byte("Bits")}

	for _, r := range references {
		programID := MustAddress(r.programID)

		addr, bump, err := FindProgramAddress(seeds, programID)
		require.NoError(t, err)
		assert.Equal(t, r.expected, addr.String())

		// The returned bump must reproduce the same address directly.
		recreated, err := CreateProgramAddress(append(seeds, []byte{bump}), programID)
		require.NoError(t, err)
		assert.Equal(t, addr, recreated)
	}
}

func TestFindProgramAddress_Deterministic(t *testing.T) {
	programID := MustAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	seeds := [][]byte{[]byte("vault"), WrappedSOLMint[:]}

	addr1, bump1, err := FindProgramAddress(seeds, programID)
	require.NoError(t, err)
	addr2, bump2, err := FindProgramAddress(seeds, programID)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Equal(t, bump1, bump2)
}

func TestFindProgramAddress_MatchesSDK(t *testing.T) {
	programID := MustAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	seedSets := [][][]byte{
		{[]byte("metadata")},
		{[]byte("pool"), TokenProgram[:]},
		{{0, 1, 2, 3}, []byte("state"), WrappedSOLMint[:]},
	}

	for _, seeds := range seedSets {
		addr, bump, err := FindProgramAddress(seeds, programID)
		require.NoError(t, err)

		sdkAddr, sdkBump, err := sdk.FindProgramAddress(seeds, programID.ToSDK())
		require.NoError(t, err)

		assert.Equal(t, FromSDK(sdkAddr), addr)
		assert.Equal(t, sdkBump, bump)
	}
}

func TestFindProgramAddress_SeedLimits(t *testing.T) {
	programID := MustAddress("BPFLoader1111111111111111111111111111111111")

	oversized := make([]byte, MaxSeedLength+1)
	_, _, err := FindProgramAddress([][]byte{oversized}, programID)
	assert.ErrorIs(t, err, ErrSeedsTooLong)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	// Vector from the SPL associated-token-account reference.
	wallet := MustAddress("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	mint := MustAddress("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")

	ata, err := FindAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)
	assert.Equal(t, "H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ", ata.String())

	sdkATA, _, err := sdk.FindAssociatedTokenAddress(wallet.ToSDK(), mint.ToSDK())
	require.NoError(t, err)
	assert.Equal(t, FromSDK(sdkATA), ata)
}

func TestCreateWithSeed(t *testing.T) {
	base := MustAddress("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	owner := MustAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	addr1, err := CreateWithSeed(base, "anchor:idl", owner)
	require.NoError(t, err)
	addr2, err := CreateWithSeed(base, "anchor:idl", owner)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
	assert.False(t, addr1.IsZero())

	other, err := CreateWithSeed(base, "something:else", owner)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, other)

	_, err = CreateWithSeed(base, string(make([]byte, MaxSeedLength+1)), owner)
	assert.ErrorIs(t, err, ErrSeedsTooLong)
}

func TestIsOnCurve(t *testing.T) {
	// Any real wallet key is on the curve; so is the all-zero key.
	wallet := MustAddress("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	assert.True(t, isOnCurve(wallet[:]))
	assert.True(t, isOnCurve(SystemProgram[:]))

	// Derived addresses are off the curve by construction.
	pda := MustAddress("Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd")
	assert.False(t, isOnCurve(pda[:]))
}
