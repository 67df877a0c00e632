package model

// ImportResult is what the core reports after a keystore import
type ImportResult struct {
	Address       string `json:"address"`
	ChainID       string `json:"chainId"`
	ChainVerified bool   `json:"chainVerified"` // false when the node could not be reached
	ChainMismatch bool   `json:"chainMismatch"` // node reported a different network than configured
}

// ImportResponse represents response for POST /wallet/import
type ImportResponse struct {
	ImportResult
	QR string `json:"qr,omitempty"` // base64 PNG of the address
}
