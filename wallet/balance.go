package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexZinkM/evm-local-wallet/internal/client"
	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// GetBalances gets the native and token balance of address. An empty address
// means the imported identity's own account.
func (s *Service) GetBalances(ctx context.Context, address string) (*model.Balances, error) {
	held, ok := s.store.CurrentAddress()
	if !ok {
		return nil, model.ErrNoIdentityLoaded
	}

	account := held
	if address != "" {
		if !common.IsValidAddress(address) {
			return nil, model.ErrInvalidAddress
		}
		account = ethcommon.HexToAddress(address)
	}

	var (
		native *big.Int
		info   *client.TokenInfo
		raw    *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		native, err = s.gateway.GetNativeBalance(gctx, account)
		return err
	})
	g.Go(func() (err error) {
		info, err = s.gateway.GetTokenInfo(gctx, s.token)
		return err
	})
	g.Go(func() (err error) {
		raw, err = s.gateway.GetTokenBalance(gctx, s.token, account)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.Balances{
		Address:   account.Hex(),
		Native:    common.WeiToEther(native),
		NativeWei: native.String(),
		Token: model.TokenBalance{
			Contract: s.token.Hex(),
			Symbol:   info.Symbol,
			Decimals: info.Decimals,
			Balance:  common.FormatUnits(raw, info.Decimals),
			Raw:      raw.String(),
		},
	}, nil
}

// Valuate attaches the fiat value of the token balance when a price source is
// configured. A failed quote leaves the balances unvalued.
func (s *Service) Valuate(ctx context.Context, balances *model.Balances) *model.BalanceResponse {
	resp := &model.BalanceResponse{Balances: *balances}
	if s.prices == nil {
		return resp
	}

	rate, err := s.prices.GetTokenRate(ctx, s.token, s.currency)
	if err != nil {
		log.WithError(err).Debug("Token price unavailable")
		return resp
	}
	value, err := multiplyDecimal(balances.Token.Balance, rate)
	if err != nil {
		log.WithError(err).Debug("Could not value token balance")
		return resp
	}

	resp.Currency = s.currency
	resp.Rate = rate
	resp.Value = value
	return resp
}

// multiplyDecimal multiplies two decimal strings exactly and rounds to cents
func multiplyDecimal(amount, rate string) (string, error) {
	a, ok := new(big.Rat).SetString(amount)
	if !ok {
		return "", fmt.Errorf("invalid amount %q", amount)
	}
	r, ok := new(big.Rat).SetString(rate)
	if !ok {
		return "", fmt.Errorf("invalid rate %q", rate)
	}
	return new(big.Rat).Mul(a, r).FloatString(2), nil
}
