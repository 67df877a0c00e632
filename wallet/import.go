package wallet

import (
	"context"

	"github.com/AlexZinkM/evm-local-wallet/internal/crypto"
	"github.com/AlexZinkM/evm-local-wallet/internal/metrics"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"
)

// ImportKeystore decrypts raw with password and makes the result the session
// identity, replacing any previous one. password is wiped before returning.
// An unreachable node does not fail the import: the configured chain id is
// reported with ChainVerified unset.
func (s *Service) ImportKeystore(ctx context.Context, raw, password []byte) (*model.ImportResult, error) {
	identity, err := crypto.DecryptKeystore(raw, password)
	if err != nil {
		metrics.KeystoreImports.WithLabelValues(metrics.Result(err)).Inc()
		log.WithField("kind", model.KindOf(err)).Warn("Keystore import failed")
		return nil, err
	}
	address := identity.Address()
	s.store.Set(identity)
	metrics.KeystoreImports.WithLabelValues(metrics.Result(nil)).Inc()

	result := &model.ImportResult{Address: address.Hex()}
	chainID, err := s.gateway.ChainID(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not verify chain id, reporting configured value")
		if expected := s.gateway.ExpectedChainID(); expected != nil {
			result.ChainID = expected.String()
		}
	} else {
		result.ChainID = chainID.String()
		result.ChainVerified = true
		result.ChainMismatch = s.gateway.ChainMismatch()
	}

	log.WithField("address", result.Address).WithField("chainId", result.ChainID).Info("Imported keystore")
	return result, nil
}
