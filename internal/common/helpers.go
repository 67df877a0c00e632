package common

import (
	"errors"
	"math/big"
	"runtime"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	EtherDecimals = 18 // native balance is reported in wei
)

var (
	errEmptyAmount    = errors.New("empty amount")
	errNegativeAmount = errors.New("amount must not be negative")
	errZeroAmount     = errors.New("amount must be greater than zero")
	errInvalidFormat  = errors.New("invalid decimal format")
	errTooPrecise     = errors.New("too many fractional digits")
	errTooLarge       = errors.New("amount does not fit in 256 bits")
)

// WeiToEther converts wei to an ether string without float precision loss
func WeiToEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// FormatUnits converts a base-unit integer to a decimal string by inserting the decimal point.
// Trailing fractional zeros are kept so the precision of the token is visible.
// Example: FormatUnits(1500000, 6) = "1.500000"
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		value = new(big.Int)
	}
	neg := value.Sign() < 0
	s := new(big.Int).Abs(value).String()

	if decimals > 0 {
		// Pad with leading zeros if needed
		if len(s) <= int(decimals) {
			s = strings.Repeat("0", int(decimals)-len(s)+1) + s
		}
		pos := len(s) - int(decimals)
		s = s[:pos] + "." + s[pos:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// ParseUnits converts a human-readable decimal string into base units scaled by decimals.
// Only plain non-negative decimals are accepted: no sign, exponent, separators or
// more fractional digits than decimals. Zero and values above 2^256-1 are rejected.
// Example: ParseUnits("1.5", 6) = 1500000
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return nil, errNegativeAmount
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, errInvalidFormat
	}
	if whole == "" && frac == "" {
		return nil, errInvalidFormat
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, errInvalidFormat
	}
	if hasDot && frac == "" {
		return nil, errInvalidFormat
	}
	if len(frac) > int(decimals) {
		return nil, errTooPrecise
	}

	// Pad fractional part to exact decimals
	combined := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, errInvalidFormat
	}
	if n.Sign() == 0 {
		return nil, errZeroAmount
	}
	if n.BitLen() > 256 {
		return nil, errTooLarge
	}
	return n, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsValidAddress reports whether s is a 20-byte hex address with 0x prefix.
// Mixed-case input must carry a valid EIP-55 checksum; all-lower or all-upper
// hex is accepted as unchecksummed.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	if !ethcommon.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return ethcommon.HexToAddress(s).Hex()[2:] == body
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// WipeBigInt overwrites the words backing n and sets it to zero.
func WipeBigInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	clear(words)
	runtime.KeepAlive(words)
	n.SetInt64(0)
}
