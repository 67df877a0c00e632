package client

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/metrics"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Node is the subset of *ethclient.Client the gateway talks to.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error)
}

// isTransient reports whether err is a connectivity failure worth retrying on a
// read-only call. JSON-RPC application errors are never transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}

// isNodeRejection reports whether the node answered with a JSON-RPC error.
func isNodeRejection(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// unavailable wraps a node failure as model.KindNodeUnavailable.
func unavailable(method string, err error) error {
	if model.KindOf(err) != "" {
		return err
	}
	return model.WrapError(model.KindNodeUnavailable, "node request failed", pkgerrors.Wrap(err, method))
}

// readCall runs one read-only node request under the node timeout, retrying
// transient failures up to retries extra times with linear backoff.
func readCall[T any](ctx context.Context, g *ChainGateway, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := 1 + g.opts.ReadRetries
	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.opts.NodeTimeout)
		v, err := fn(callCtx)
		cancel()
		if err == nil {
			metrics.NodeRequests.WithLabelValues(method, "ok").Inc()
			return v, nil
		}
		if !isTransient(err) || attempt >= attempts || ctx.Err() != nil {
			metrics.NodeRequests.WithLabelValues(method, "error").Inc()
			return zero, err
		}
		metrics.NodeRequests.WithLabelValues(method, "retry").Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"method":  method,
			"attempt": attempt,
		}).Debug("Retrying node read")

		select {
		case <-ctx.Done():
			return zero, err
		case <-time.After(g.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
}

// writeCall runs one state-changing node request under the node timeout.
// It is never retried.
func writeCall(ctx context.Context, g *ChainGateway, method string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.NodeTimeout)
	defer cancel()
	if err := fn(callCtx); err != nil {
		metrics.NodeRequests.WithLabelValues(method, "error").Inc()
		return err
	}
	metrics.NodeRequests.WithLabelValues(method, "ok").Inc()
	return nil
}
