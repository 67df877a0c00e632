package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_MissingFile(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"inspect", filepath.Join(t.TempDir(), "missing.json")})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
	assert.NotContains(t, out.String(), "Address:")
}

func TestInspect_RequiresArgument(t *testing.T) {
	rootCmd.SetArgs([]string{"inspect"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestServe_RejectsInvalidTokenAddress(t *testing.T) {
	cfg := &config.Config{
		Port:                "0",
		EthRPCURL:           "http://127.0.0.1:1",
		TokenAddress:        "not-an-address",
		NodeTimeout:         time.Second,
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Second,
		MaxKeystoreBytes:    1024,
		LogLevel:            "error",
	}
	err := serve(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_ADDRESS")
}
