package model

// TokenBalance is an ERC-20 balance together with the token's metadata
type TokenBalance struct {
	Contract string `json:"contract"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"` // human-readable, scaled by Decimals
	Raw      string `json:"raw"`     // base units
}

// Balances represents the result of a balance query
type Balances struct {
	Address   string       `json:"address"`
	Native    string       `json:"native"`    // ether
	NativeWei string       `json:"nativeWei"` // wei
	Token     TokenBalance `json:"token"`
}

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Balances
	Currency string `json:"currency,omitempty"`
	Rate     string `json:"rate,omitempty"`
	Value    string `json:"value,omitempty"` // token balance * rate
}
