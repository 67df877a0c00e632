package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

// SendToken transfers humanAmount of the configured token from the imported
// identity to to, and returns once the transaction is included in a block.
// A failed or unconfirmed send is reported and never retried.
func (s *Service) SendToken(ctx context.Context, to, humanAmount string) (*model.SendResponse, error) {
	from, ok := s.store.CurrentAddress()
	if !ok {
		return nil, model.ErrNoIdentityLoaded
	}
	if err := s.checkCooldown(); err != nil {
		return nil, err
	}

	receipt, err := s.gateway.TransferToken(ctx, s.token, from, s.store, to, humanAmount)
	if err != nil {
		log.WithFields(logrus.Fields{
			"from": from.Hex(),
			"kind": model.KindOf(err),
		}).Warn("Token transfer failed")
		return nil, err
	}

	s.markSent()
	return &model.SendResponse{
		TxHash:      receipt.TxHash,
		Status:      string(receipt.Status),
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}, nil
}

func (s *Service) checkCooldown() error {
	if s.cooldown <= 0 {
		return nil
	}
	s.payMu.Lock()
	defer s.payMu.Unlock()

	if !s.lastSend.IsZero() {
		if since := time.Since(s.lastSend); since < s.cooldown {
			remaining := s.cooldown - since
			return model.NewError(model.KindSendCooldown, fmt.Sprintf("cooldown active, please wait %v", remaining.Round(time.Second)))
		}
	}
	return nil
}

func (s *Service) markSent() {
	s.payMu.Lock()
	s.lastSend = time.Now()
	s.payMu.Unlock()
}
