package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-core/internal/adapters/chain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTickToPrice(t *testing.T) {
	out, err := run(t, "tick-to-price", "--tick", "0")
	require.NoError(t, err)

	var got priceOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, fixedpoint.Q64.String(), got.SqrtPriceX64)
	assert.InDelta(t, 1.0, got.Price, 1e-12)

	out, err = run(t, "price-to-tick", "--sqrt-price-x64", got.SqrtPriceX64)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int32(0), got.Tick)

	_, err = run(t, "tick-to-price", "--tick", "500000")
	require.Error(t, err)
}

func TestRewardAmount(t *testing.T) {
	out, err := run(t, "reward-amount", "--open", "100", "--end", "200")
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":100}`, out)

	_, err = run(t, "reward-amount", "--open", "200", "--end", "100")
	require.Error(t, err)
}

func TestPoolLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "clmm.db")
	configID, owner := solana.PublicKey{10}.String(), solana.PublicKey{11}.String()
	poolID := solana.PublicKey{20}.String()

	_, err := run(t, "--db", db, "config", "put", "--id", configID, "--owner", owner, "--tick-spacing", "60")
	require.NoError(t, err)

	_, err = run(t, "--db", db, "pool", "create",
		"--config", configID, "--id", poolID,
		"--mint0", solana.PublicKey{1}.String(), "--mint1", solana.PublicKey{2}.String(),
		"--vault0", solana.PublicKey{3}.String(), "--vault1", solana.PublicKey{4}.String(),
	)
	require.NoError(t, err)

	out, err := run(t, "--db", db, "pool", "show", poolID)
	require.NoError(t, err)
	var detail struct {
		Address     string `json:"address"`
		TickSpacing uint16 `json:"tick_spacing"`
		Liquidity   string `json:"liquidity"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, poolID, detail.Address)
	assert.Equal(t, uint16(60), detail.TickSpacing)
	assert.Equal(t, "0", detail.Liquidity)

	out, err = run(t, "--db", db, "pool", "list")
	require.NoError(t, err)
	assert.Contains(t, out, poolID)

	out, err = run(t, "--db", db, "quote", "--pool", poolID, "--amount", "1000", "--zero-for-one")
	require.NoError(t, err)
	assert.Contains(t, out, `"amountOut": "0"`, "an empty pool fills nothing")
}

func TestPoolCreateDerivesAddresses(t *testing.T) {
	db := filepath.Join(t.TempDir(), "clmm.db")
	configID, owner := solana.PublicKey{10}, solana.PublicKey{11}
	mint0, mint1 := solana.PublicKey{1}, solana.PublicKey{2}

	_, err := run(t, "--db", db, "config", "put", "--id", configID.String(), "--owner", owner.String())
	require.NoError(t, err)

	out, err := run(t, "--db", db, "pool", "create",
		"--config", configID.String(), "--mint0", mint0.String(), "--mint1", mint1.String())
	require.NoError(t, err)

	addrs := chain.NewAddresses(solana.PublicKey{})
	poolID, err := addrs.Pool(configID, mint0, mint1)
	require.NoError(t, err)
	vault0, err := addrs.Vault(poolID, mint0)
	require.NoError(t, err)

	var detail struct {
		Address     string `json:"address"`
		TokenVault0 string `json:"token_vault_0"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, poolID.String(), detail.Address)
	assert.Equal(t, vault0.String(), detail.TokenVault0)

	_, err = run(t, "--db", db, "pool", "create", "--id", "not-a-key",
		"--config", configID.String(), "--mint0", mint0.String(), "--mint1", mint1.String())
	require.Error(t, err)
}

func TestExecuteLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = prev })

	root := newRootCmd()
	root.SetArgs([]string{"tick-to-price", "--no-such-flag"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Equal(t, 1, execute(root))
	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Contains(t, logs.String(), "no-such-flag")

	ok := newRootCmd()
	ok.SetArgs([]string{"tick-to-price", "--tick", "0"})
	ok.SetOut(&bytes.Buffer{})
	assert.Equal(t, 0, execute(ok))
}
