package metrics

import (
	"github.com/AlexZinkM/evm-local-wallet/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KeystoreImports counts keystore imports by resulting error kind ("ok" on success).
	KeystoreImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_keystore_imports_total",
		Help: "Keystore import attempts by result",
	}, []string{"result"})

	// NodeRequests counts node round trips by JSON-RPC method and outcome.
	NodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_node_requests_total",
		Help: "Node requests by method and result (ok, retry, error)",
	}, []string{"method", "result"})

	// Transfers counts token transfers by terminal result.
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_token_transfers_total",
		Help: "Token transfers by result",
	}, []string{"result"})

	// ConfirmationSeconds observes time from submission to a receipt.
	ConfirmationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wallet_transfer_confirmation_seconds",
		Help:    "Time between submission and inclusion of a transfer",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// IdentityLoaded is 1 while a signing identity is held.
	IdentityLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_identity_loaded",
		Help: "Whether a signing identity is currently held",
	})
)

// Result is the result label for err: "ok" for nil, the error kind when typed,
// "error" otherwise.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := model.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
