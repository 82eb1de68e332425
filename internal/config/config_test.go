package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VOW_CONTRACT_ADDRESS", "0x1111111111111111111111111111111111111111")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(4202), cfg.Chain.ChainID)
	assert.Equal(t, "Lisk Sepolia Testnet", cfg.Chain.Name)
	assert.Equal(t, 30*time.Second, cfg.Ledger.RPCTimeout)
	assert.Equal(t, 2*time.Second, cfg.Ledger.ReceiptPollInterval)
	assert.Equal(t, "smartvow-state.json", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VOW_CONTRACT_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("CHAIN_ID", "31337")
	t.Setenv("RPC_RATE_RPS", "5.5")
	t.Setenv("STATE_FILE", "/tmp/state.json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(31337), cfg.Chain.ChainID)
	assert.Equal(t, 5.5, cfg.Ledger.RateRPS)
	assert.Equal(t, "/tmp/state.json", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingVowAddress(t *testing.T) {
	t.Setenv("VOW_CONTRACT_ADDRESS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOW_CONTRACT_ADDRESS")
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("VOW_CONTRACT_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
