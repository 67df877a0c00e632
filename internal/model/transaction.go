package model

import "fmt"

// TransactionStatus is the on-chain inclusion state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// TransferReceipt is produced only once a transfer has been included in a block
type TransferReceipt struct {
	TxHash      string            `json:"txHash"`
	Status      TransactionStatus `json:"status"`
	BlockNumber uint64            `json:"blockNumber"`
	BlockHash   string            `json:"blockHash"`
	GasUsed     uint64            `json:"gasUsed"`
}

// TxStatusResponse represents response for GET /wallet/tx
type TxStatusResponse struct {
	TxHash      string            `json:"txHash"`
	Status      TransactionStatus `json:"status"`
	BlockNumber uint64            `json:"blockNumber,omitempty"`
}

// TxStatusRequest represents request parameters for GET /wallet/tx
type TxStatusRequest struct {
	Hash string `form:"hash"`
}

// Validate validates TxStatusRequest parameters.
func (r *TxStatusRequest) Validate() error {
	h := r.Hash
	if len(h) >= 2 && (h[:2] == "0x" || h[:2] == "0X") {
		h = h[2:]
	}
	if len(h) != 64 {
		return fmt.Errorf("hash must be 32 bytes hex")
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return fmt.Errorf("hash must be hex")
		}
	}
	return nil
}
