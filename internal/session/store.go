package session

import (
	"sync"

	"github.com/AlexZinkM/evm-local-wallet/internal/crypto"
	"github.com/AlexZinkM/evm-local-wallet/internal/metrics"
	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "session")

// Store holds at most one signing identity for the process lifetime.
// All access is serialized by a single mutex, which is held only while the
// identity is read, replaced or lent to a callback, never across node I/O.
type Store struct {
	mu       sync.Mutex
	identity *crypto.Identity
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{}
}

// Set replaces the held identity. The previous identity is destroyed first.
func (s *Store) Set(identity *crypto.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity != nil {
		s.identity.Destroy()
		log.WithField("address", s.identity.Address().Hex()).Info("Replaced signing identity")
	}
	s.identity = identity
	if identity != nil {
		metrics.IdentityLoaded.Set(1)
	} else {
		metrics.IdentityLoaded.Set(0)
	}
}

// CurrentAddress returns the held identity's address, if any
func (s *Store) CurrentAddress() (ethcommon.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return ethcommon.Address{}, false
	}
	return s.identity.Address(), true
}

// Loaded reports whether an identity is held
func (s *Store) Loaded() bool {
	_, ok := s.CurrentAddress()
	return ok
}

// WithIdentity lends the held identity to fn for one operation.
// fn must not retain the identity or perform network calls.
func (s *Store) WithIdentity(fn func(identity *crypto.Identity) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return model.ErrNoIdentityLoaded
	}
	return fn(s.identity)
}

// SignTx signs tx with the held identity, which must still be the account
// the transaction was built for.
func (s *Store) SignTx(from ethcommon.Address, tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	var signed *types.Transaction
	err := s.WithIdentity(func(identity *crypto.Identity) error {
		if identity.Address() != from {
			return model.NewError(model.KindTransferFailed, "signing identity changed during transfer")
		}
		var err error
		signed, err = identity.SignTx(tx, signer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// Clear destroys and drops the held identity
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return
	}
	s.identity.Destroy()
	log.WithField("address", s.identity.Address().Hex()).Info("Cleared signing identity")
	s.identity = nil
	metrics.IdentityLoaded.Set(0)
}
