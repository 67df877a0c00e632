package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGeckoClient_GetTokenRate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/simple/token_price/ethereum", r.URL.Path)
		assert.Equal(t, "0x1111111111111111111111111111111111111111", r.URL.Query().Get("contract_addresses"))
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"0x1111111111111111111111111111111111111111":{"eur":0.9234}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL+"/", "ethereum")
	rate, err := c.GetTokenRate(context.Background(), testToken, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.9234", rate)

	rate, err = c.GetTokenRate(context.Background(), testToken, "eur")
	require.NoError(t, err)
	assert.Equal(t, "0.9234", rate)
	assert.Equal(t, int32(1), hits.Load(), "rate is cached")
}

func TestCoinGeckoClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vs_currencies") == "usd" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL, "")
	_, err := c.GetTokenRate(context.Background(), testToken, "usd")
	assert.ErrorContains(t, err, "status 429")

	_, err = c.GetTokenRate(context.Background(), testToken, "rub")
	assert.ErrorContains(t, err, "no rub price")
}
