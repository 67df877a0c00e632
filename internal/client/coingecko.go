package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
	rateTTL      = time.Minute
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL  string
	platform string
	client   *http.Client
	rates    *gocache.Cache
}

// NewCoinGeckoClient creates a new CoinGecko client. An empty baseURL selects
// the public API; platform is the CoinGecko asset platform id, e.g. "ethereum".
func NewCoinGeckoClient(baseURL, platform string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = coingeckoAPI
	}
	if platform == "" {
		platform = "ethereum"
	}
	return &CoinGeckoClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		platform: platform,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		rates: gocache.New(rateTTL, 5*time.Minute),
	}
}

// TokenPriceResponse response from CoinGecko API: contract address -> currency -> price
type TokenPriceResponse map[string]map[string]float64

// GetTokenRate gets the price of one token unit in currency as a decimal string
func (c *CoinGeckoClient) GetTokenRate(ctx context.Context, token ethcommon.Address, currency string) (string, error) {
	contract := strings.ToLower(token.Hex())
	currency = strings.ToLower(currency)
	key := contract + "/" + currency
	if rate, ok := c.rates.Get(key); ok {
		return rate.(string), nil
	}

	q := url.Values{}
	q.Set("contract_addresses", contract)
	q.Set("vs_currencies", currency)
	endpoint := fmt.Sprintf("%s/simple/token_price/%s?%s", c.baseURL, url.PathEscape(c.platform), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build rate request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get rate: status %d", resp.StatusCode)
	}

	var priceResp TokenPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return "", fmt.Errorf("failed to decode rate: %w", err)
	}
	price, ok := priceResp[contract][currency]
	if !ok {
		return "", fmt.Errorf("no %s price for token %s", currency, token.Hex())
	}

	rate := strconv.FormatFloat(price, 'f', -1, 64)
	c.rates.Set(key, rate, gocache.DefaultExpiration)
	return rate, nil
}
