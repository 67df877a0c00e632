// Package wallet is the core of the local wallet: it imports a keystore into
// the session, reports balances and sends token transfers through the chain
// gateway. HTTP and CLI surfaces call into it and hold no wallet state.
package wallet

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/client"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"
	"github.com/AlexZinkM/evm-local-wallet/internal/session"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "wallet")

// Gateway is the chain access the wallet needs; *client.ChainGateway implements it.
type Gateway interface {
	ChainID(ctx context.Context) (*big.Int, error)
	ChainMismatch() bool
	ExpectedChainID() *big.Int
	GetNativeBalance(ctx context.Context, address ethcommon.Address) (*big.Int, error)
	GetTokenInfo(ctx context.Context, token ethcommon.Address) (*client.TokenInfo, error)
	GetTokenBalance(ctx context.Context, token, address ethcommon.Address) (*big.Int, error)
	TransferToken(ctx context.Context, token, from ethcommon.Address, signer client.TxSigner, to, humanAmount string) (*model.TransferReceipt, error)
	TransactionStatus(ctx context.Context, hash ethcommon.Hash) (*model.TxStatusResponse, error)
}

// PriceSource quotes one whole token in a fiat currency
type PriceSource interface {
	GetTokenRate(ctx context.Context, token ethcommon.Address, currency string) (string, error)
}

// Service owns the session identity and the configured token
type Service struct {
	store   *session.Store
	gateway Gateway
	token   ethcommon.Address

	prices   PriceSource
	currency string

	cooldown time.Duration
	payMu    sync.Mutex
	lastSend time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithPrices enables fiat valuation of the token balance
func WithPrices(prices PriceSource, currency string) Option {
	return func(s *Service) {
		if prices != nil && currency != "" {
			s.prices = prices
			s.currency = currency
		}
	}
}

// WithSendCooldown refuses a send started less than d after the last
// confirmed one. Zero disables the check.
func WithSendCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.cooldown = d
	}
}

// NewService creates a wallet over store and gateway for one token contract
func NewService(store *session.Store, gateway Gateway, token ethcommon.Address, opts ...Option) *Service {
	s := &Service{
		store:   store,
		gateway: gateway,
		token:   token,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentAddress returns the address of the imported keystore, if any
func (s *Service) CurrentAddress() (ethcommon.Address, bool) {
	return s.store.CurrentAddress()
}

// Clear wipes the imported key
func (s *Service) Clear() {
	s.store.Clear()
}
