package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/common"
	"github.com/AlexZinkM/evm-local-wallet/internal/config"
	"github.com/AlexZinkM/evm-local-wallet/internal/metrics"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "client")

const (
	gasLimitMarginPercent = 20
	tokenInfoTTL          = time.Hour
)

// TxSigner signs a transaction on behalf of from. Implementations must fail
// rather than sign with a different account.
type TxSigner interface {
	SignTx(from ethcommon.Address, tx *types.Transaction, signer types.Signer) (*types.Transaction, error)
}

// TokenInfo is the ERC-20 metadata needed to scale amounts
type TokenInfo struct {
	Symbol   string
	Decimals uint8
}

// Options tune the gateway's node interaction
type Options struct {
	ExpectedChainID     *big.Int
	DefaultSymbol       string
	NodeTimeout         time.Duration
	ReadRetries         int
	RetryBackoff        time.Duration
	ConfirmTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// OptionsFromConfig maps process configuration onto gateway options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ExpectedChainID:     new(big.Int).SetUint64(cfg.ExpectedChainID),
		DefaultSymbol:       cfg.DefaultTokenSymbol,
		NodeTimeout:         cfg.NodeTimeout,
		ReadRetries:         cfg.ReadRetries,
		RetryBackoff:        cfg.RetryBackoff,
		ConfirmTimeout:      cfg.ConfirmTimeout,
		ReceiptPollInterval: cfg.ReceiptPollInterval,
	}
}

// ChainGateway bridges the signing identity and transfer requests to an EVM node
type ChainGateway struct {
	node Node
	opts Options

	tokenInfo *gocache.Cache

	mu            sync.Mutex
	chainID       *big.Int
	chainMismatch bool

	// sendMu serializes nonce assignment, signing and submission.
	sendMu    sync.Mutex
	nextNonce map[ethcommon.Address]uint64
}

// Dial connects to the node at rpcURL and wraps it in a gateway
func Dial(ctx context.Context, rpcURL string, opts Options) (*ChainGateway, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, model.WrapError(model.KindNodeUnavailable, "failed to connect to node", err)
	}
	return NewChainGateway(ec, opts), nil
}

// NewChainGateway creates a gateway over an existing node connection
func NewChainGateway(node Node, opts Options) *ChainGateway {
	if opts.NodeTimeout <= 0 {
		opts.NodeTimeout = 15 * time.Second
	}
	if opts.ReadRetries < 0 {
		opts.ReadRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 3 * time.Minute
	}
	if opts.ReceiptPollInterval <= 0 {
		opts.ReceiptPollInterval = 2 * time.Second
	}
	if opts.DefaultSymbol == "" {
		opts.DefaultSymbol = "TOKEN"
	}
	return &ChainGateway{
		node:      node,
		opts:      opts,
		tokenInfo: gocache.New(tokenInfoTTL, 10*time.Minute),
		nextNonce: make(map[ethcommon.Address]uint64),
	}
}

// Close releases the node connection
func (g *ChainGateway) Close() {
	if c, ok := g.node.(interface{ Close() }); ok {
		c.Close()
	}
}

// ChainID returns the node's chain id. The first successful lookup is compared
// with the expected id; a mismatch is logged as a warning, not refused.
func (g *ChainGateway) ChainID(ctx context.Context) (*big.Int, error) {
	g.mu.Lock()
	cached := g.chainID
	g.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	id, err := readCall(ctx, g, "eth_chainId", g.node.ChainID)
	if err != nil {
		return nil, unavailable("eth_chainId", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chainID == nil {
		g.chainID = id
		if g.opts.ExpectedChainID != nil && g.opts.ExpectedChainID.Cmp(id) != 0 {
			g.chainMismatch = true
			log.WithFields(logrus.Fields{
				"expected": g.opts.ExpectedChainID.String(),
				"reported": id.String(),
			}).Warn("Node reports a different chain than configured")
		} else {
			log.WithField("chainId", id.String()).Info("Connected to node")
		}
	}
	return new(big.Int).Set(g.chainID), nil
}

// ChainMismatch reports whether the node's chain differs from the expected one
func (g *ChainGateway) ChainMismatch() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chainMismatch
}

// ExpectedChainID returns the configured chain id
func (g *ChainGateway) ExpectedChainID() *big.Int {
	if g.opts.ExpectedChainID == nil {
		return nil
	}
	return new(big.Int).Set(g.opts.ExpectedChainID)
}

// GetNativeBalance returns the account balance in wei
func (g *ChainGateway) GetNativeBalance(ctx context.Context, address ethcommon.Address) (*big.Int, error) {
	balance, err := readCall(ctx, g, "eth_getBalance", func(ctx context.Context) (*big.Int, error) {
		return g.node.BalanceAt(ctx, address, nil)
	})
	if err != nil {
		return nil, unavailable("eth_getBalance", err)
	}
	return balance, nil
}

// GetTokenInfo returns the token's symbol and decimals. A failing symbol()
// falls back to the configured default symbol; decimals are mandatory.
func (g *ChainGateway) GetTokenInfo(ctx context.Context, token ethcommon.Address) (*TokenInfo, error) {
	if cached, ok := g.tokenInfo.Get(token.Hex()); ok {
		info := *cached.(*TokenInfo)
		return &info, nil
	}

	out, err := g.callView(ctx, token, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, err := unpackDecimals(out)
	if err != nil {
		return nil, model.WrapError(model.KindInvalidToken, "token decimals() returned unusable data", err)
	}

	info := &TokenInfo{Decimals: decimals}
	symbolOK := false
	if out, err := g.callView(ctx, token, "symbol"); err != nil {
		log.WithError(err).WithField("token", token.Hex()).Debug("symbol() failed, using default symbol")
	} else if symbol, err := unpackSymbol(out); err != nil || symbol == "" {
		log.WithField("token", token.Hex()).Debug("symbol() returned unusable data, using default symbol")
	} else {
		info.Symbol = symbol
		symbolOK = true
	}
	if !symbolOK {
		info.Symbol = g.opts.DefaultSymbol
		return info, nil
	}

	cached := *info
	g.tokenInfo.Set(token.Hex(), &cached, gocache.DefaultExpiration)
	return info, nil
}

// GetTokenBalance returns the raw base-unit token balance of address
func (g *ChainGateway) GetTokenBalance(ctx context.Context, token, address ethcommon.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", address)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	out, err := readCall(ctx, g, "eth_call", func(ctx context.Context) ([]byte, error) {
		return g.node.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	})
	if err != nil {
		return nil, viewError("balanceOf", err)
	}
	balance, err := unpackBalance(out)
	if err != nil {
		return nil, model.WrapError(model.KindInvalidToken, "token balanceOf() returned unusable data", err)
	}
	return balance, nil
}

func (g *ChainGateway) callView(ctx context.Context, token ethcommon.Address, method string) ([]byte, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := readCall(ctx, g, "eth_call", func(ctx context.Context) ([]byte, error) {
		return g.node.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	})
	if err != nil {
		return nil, viewError(method, err)
	}
	return out, nil
}

func viewError(method string, err error) error {
	if isNodeRejection(err) {
		return model.WrapError(model.KindInvalidToken, "token "+method+"() call was rejected", err)
	}
	return unavailable("eth_call", err)
}

// TransferToken sends humanAmount of token from the signer's account to to and
// waits for the transaction to be included. Nothing here is retried: a failed
// or ambiguous submission is reported, never resent.
func (g *ChainGateway) TransferToken(ctx context.Context, token, from ethcommon.Address, signer TxSigner, to, humanAmount string) (*model.TransferReceipt, error) {
	if !common.IsValidAddress(to) {
		return nil, model.ErrInvalidRecipient
	}
	recipient := ethcommon.HexToAddress(to)
	if recipient == (ethcommon.Address{}) {
		return nil, model.NewError(model.KindInvalidRecipient, "refusing to send to the zero address")
	}

	info, err := g.GetTokenInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	amount, err := common.ParseUnits(humanAmount, info.Decimals)
	if err != nil {
		return nil, model.NewError(model.KindInvalidAmount, fmt.Sprintf("invalid amount: %v (token has %d decimals)", err, info.Decimals))
	}

	data, err := packTransfer(recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}

	signed, err := g.signAndSubmit(ctx, token, from, signer, data)
	if err != nil {
		metrics.Transfers.WithLabelValues(metrics.Result(err)).Inc()
		return nil, err
	}

	logger := log.WithFields(logrus.Fields{
		"txHash": signed.Hash().Hex(),
		"from":   from.Hex(),
		"to":     recipient.Hex(),
		"amount": common.FormatUnits(amount, info.Decimals),
		"token":  info.Symbol,
	})
	logger.Info("Submitted token transfer")

	receipt, err := g.waitMined(ctx, signed.Hash())
	if err != nil {
		g.forgetNonce(from)
		metrics.Transfers.WithLabelValues(metrics.Result(err)).Inc()
		logger.WithError(err).Warn("Token transfer not confirmed")
		return nil, err
	}
	logger.WithField("block", receipt.BlockNumber).Info("Token transfer confirmed")
	metrics.Transfers.WithLabelValues(metrics.Result(nil)).Inc()
	return receipt, nil
}

// signAndSubmit builds, signs and submits a call to token. The send mutex is
// held for the whole sequence so concurrent sends get consecutive nonces.
func (g *ChainGateway) signAndSubmit(ctx context.Context, token, from ethcommon.Address, signer TxSigner, data []byte) (*types.Transaction, error) {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()

	chainID, err := g.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := readCall(ctx, g, "eth_getTransactionCount", func(ctx context.Context) (uint64, error) {
		return g.node.PendingNonceAt(ctx, from)
	})
	if err != nil {
		return nil, unavailable("eth_getTransactionCount", err)
	}
	if next, ok := g.nextNonce[from]; ok && next > nonce {
		nonce = next
	}

	gas, err := readCall(ctx, g, "eth_estimateGas", func(ctx context.Context) (uint64, error) {
		return g.node.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &token, Data: data})
	})
	if err != nil {
		if isNodeRejection(err) {
			return nil, model.TransferFailed("node rejected the transfer", err)
		}
		return nil, unavailable("eth_estimateGas", err)
	}
	gas += gas * gasLimitMarginPercent / 100

	txData, err := g.feeFields(ctx, chainID, nonce, gas, token, data)
	if err != nil {
		return nil, err
	}

	tx, err := signer.SignTx(from, types.NewTx(txData), types.LatestSignerForChainID(chainID))
	if err != nil {
		return nil, err
	}

	err = writeCall(ctx, g, "eth_sendRawTransaction", func(ctx context.Context) error {
		return g.node.SendTransaction(ctx, tx)
	})
	if err != nil {
		if isNodeRejection(err) {
			return nil, model.TransferFailed("node rejected the transaction", err)
		}
		return nil, model.WrapError(model.KindNodeUnavailable,
			"submission state unknown for transaction "+tx.Hash().Hex()+", check its status before resending", err)
	}
	g.nextNonce[from] = nonce + 1
	return tx, nil
}

// forgetNonce drops the local nonce hint for from. Later sends use the node's
// pending nonce, so a dropped transaction cannot leave a gap behind it.
func (g *ChainGateway) forgetNonce(from ethcommon.Address) {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()
	delete(g.nextNonce, from)
}

// feeFields picks a dynamic-fee transaction when the chain reports a base fee
// and a legacy gas-price transaction otherwise.
func (g *ChainGateway) feeFields(ctx context.Context, chainID *big.Int, nonce, gas uint64, to ethcommon.Address, data []byte) (types.TxData, error) {
	head, err := readCall(ctx, g, "eth_getBlockByNumber", func(ctx context.Context) (*types.Header, error) {
		return g.node.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return nil, unavailable("eth_getBlockByNumber", err)
	}

	if head.BaseFee != nil {
		tip, err := readCall(ctx, g, "eth_maxPriorityFeePerGas", g.node.SuggestGasTipCap)
		if err != nil {
			return nil, unavailable("eth_maxPriorityFeePerGas", err)
		}
		feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		return &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     new(big.Int),
			Data:      data,
		}, nil
	}

	gasPrice, err := readCall(ctx, g, "eth_gasPrice", g.node.SuggestGasPrice)
	if err != nil {
		return nil, unavailable("eth_gasPrice", err)
	}
	return &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	}, nil
}

// waitMined polls for the receipt of hash until it is included or the
// confirmation timeout passes. Only a receipt is a terminal success.
func (g *ChainGateway) waitMined(ctx context.Context, hash ethcommon.Hash) (*model.TransferReceipt, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(g.opts.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.receipt(ctx, hash)
		if err == nil {
			metrics.ConfirmationSeconds.Observe(time.Since(started).Seconds())
			r := toTransferReceipt(receipt)
			if r.Status != model.TransactionStatusSuccess {
				return nil, model.TransferFailed(
					fmt.Sprintf("transaction %s reverted in block %d", hash.Hex(), r.BlockNumber),
					errors.New("execution reverted"),
				)
			}
			return r, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			log.WithError(err).WithField("txHash", hash.Hex()).Debug("Receipt lookup failed, polling again")
		}

		select {
		case <-ctx.Done():
			return nil, model.WrapError(model.KindNodeUnavailable,
				"timed out waiting for confirmation of transaction "+hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *ChainGateway) receipt(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.NodeTimeout)
	defer cancel()
	receipt, err := g.node.TransactionReceipt(callCtx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			metrics.NodeRequests.WithLabelValues("eth_getTransactionReceipt", "ok").Inc()
		} else {
			metrics.NodeRequests.WithLabelValues("eth_getTransactionReceipt", "error").Inc()
		}
		return nil, err
	}
	metrics.NodeRequests.WithLabelValues("eth_getTransactionReceipt", "ok").Inc()
	return receipt, nil
}

// TransactionStatus looks up the inclusion state of hash without waiting
func (g *ChainGateway) TransactionStatus(ctx context.Context, hash ethcommon.Hash) (*model.TxStatusResponse, error) {
	receipt, err := readCall(ctx, g, "eth_getTransactionReceipt", func(ctx context.Context) (*types.Receipt, error) {
		return g.node.TransactionReceipt(ctx, hash)
	})
	if errors.Is(err, ethereum.NotFound) {
		return &model.TxStatusResponse{TxHash: hash.Hex(), Status: model.TransactionStatusPending}, nil
	}
	if err != nil {
		return nil, unavailable("eth_getTransactionReceipt", err)
	}
	r := toTransferReceipt(receipt)
	return &model.TxStatusResponse{TxHash: r.TxHash, Status: r.Status, BlockNumber: r.BlockNumber}, nil
}

func toTransferReceipt(receipt *types.Receipt) *model.TransferReceipt {
	status := model.TransactionStatusSuccess
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = model.TransactionStatusFailed
	}
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	return &model.TransferReceipt{
		TxHash:      receipt.TxHash.Hex(),
		Status:      status,
		BlockNumber: block,
		BlockHash:   receipt.BlockHash.Hex(),
		GasUsed:     receipt.GasUsed,
	}
}
