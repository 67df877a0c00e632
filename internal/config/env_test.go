package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Defaults(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("TOKEN_ADDRESS", "0x1111111111111111111111111111111111111111")

	require.NoError(t, Init())
	c := Get()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, uint64(1), c.ExpectedChainID)
	assert.Equal(t, "TOKEN", c.DefaultTokenSymbol)
	assert.Equal(t, 15*time.Second, c.NodeTimeout)
	assert.Equal(t, 2, c.ReadRetries)
	assert.Equal(t, 3*time.Minute, c.ConfirmTimeout)
	assert.Equal(t, int64(65536), c.MaxKeystoreBytes)
	assert.Equal(t, []string{"http://localhost:8080"}, c.AllowedOrigins)
	assert.Empty(t, c.PriceCurrency)
}

func TestInit_Overrides(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("TOKEN_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("EXPECTED_CHAIN_ID", "11155111")
	t.Setenv("READ_RETRIES", "0")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")

	require.NoError(t, Init())
	c := Get()
	assert.Equal(t, uint64(11155111), c.ExpectedChainID)
	assert.Equal(t, 0, c.ReadRetries)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, c.AllowedOrigins)
}

func TestInit_RequiresNodeAndToken(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("TOKEN_ADDRESS", "")
	assert.Error(t, Init())
}

func TestValidate(t *testing.T) {
	c := &Config{
		EthRPCURL:           "http://127.0.0.1:8545",
		TokenAddress:        "0x1111111111111111111111111111111111111111",
		NodeTimeout:         time.Second,
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Second,
		MaxKeystoreBytes:    1,
	}
	assert.NoError(t, c.Validate())

	c.ReadRetries = -1
	assert.Error(t, c.Validate())

	c.ReadRetries = 0
	c.NodeTimeout = 0
	assert.Error(t, c.Validate())
}
