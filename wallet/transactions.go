package wallet

import (
	"context"

	"github.com/AlexZinkM/evm-local-wallet/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// TransactionStatus gets the inclusion state of a previously sent transaction.
// It is how an operator resolves a send that ended in NodeUnavailable.
func (s *Service) TransactionStatus(ctx context.Context, hash ethcommon.Hash) (*model.TxStatusResponse, error) {
	return s.gateway.TransactionStatus(ctx, hash)
}
