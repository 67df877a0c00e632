package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: passwords are never read from the environment; the HTTP import carries
// one per request and the inspect command prompts for it.
type Config struct {
	Port                string        `envconfig:"PORT" default:"8080"`
	EthRPCURL           string        `envconfig:"ETH_RPC_URL" required:"true"`
	ExpectedChainID     uint64        `envconfig:"EXPECTED_CHAIN_ID" default:"1"`
	TokenAddress        string        `envconfig:"TOKEN_ADDRESS" required:"true"`
	DefaultTokenSymbol  string        `envconfig:"DEFAULT_TOKEN_SYMBOL" default:"TOKEN"`
	NodeTimeout         time.Duration `envconfig:"NODE_TIMEOUT" default:"15s"`
	ReadRetries         int           `envconfig:"READ_RETRIES" default:"2"`
	RetryBackoff        time.Duration `envconfig:"RETRY_BACKOFF" default:"250ms"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"3m"`
	ReceiptPollInterval time.Duration `envconfig:"RECEIPT_POLL_INTERVAL" default:"2s"`
	MaxKeystoreBytes    int64         `envconfig:"MAX_KEYSTORE_BYTES" default:"65536"`
	SendCooldown        time.Duration `envconfig:"SEND_COOLDOWN" default:"0s"`

	LogLevel  string        `envconfig:"LOG_LEVEL" default:"info"`
	LogDir    string        `envconfig:"LOG_DIR"`
	LogMaxAge time.Duration `envconfig:"LOG_MAX_AGE" default:"168h"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`

	// Fiat valuation of the token balance is off unless PriceCurrency is set
	PriceAPIURL   string `envconfig:"PRICE_API_URL" default:"https://api.coingecko.com/api/v3"`
	PriceCurrency string `envconfig:"PRICE_CURRENCY"`
	PricePlatform string `envconfig:"PRICE_PLATFORM" default:"ethereum"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	return nil
}

// Validate checks values envconfig cannot check by itself
func (c *Config) Validate() error {
	if c.EthRPCURL == "" || c.TokenAddress == "" {
		return errors.New("ETH_RPC_URL and TOKEN_ADDRESS must be set")
	}
	if c.ReadRetries < 0 {
		return errors.New("READ_RETRIES must not be negative")
	}
	if c.NodeTimeout <= 0 || c.ConfirmTimeout <= 0 || c.ReceiptPollInterval <= 0 {
		return errors.New("NODE_TIMEOUT, CONFIRM_TIMEOUT and RECEIPT_POLL_INTERVAL must be positive")
	}
	if c.SendCooldown < 0 {
		return errors.New("SEND_COOLDOWN must not be negative")
	}
	if c.MaxKeystoreBytes <= 0 {
		return errors.New("MAX_KEYSTORE_BYTES must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// PromptForPassword prompts for a keystore password in the terminal.
// The password is read without echoing (hidden input).
// Caller must zero the returned slice after use.
func PromptForPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the command interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}
