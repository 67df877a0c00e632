package common

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1.5", 6, "1500000"},
		{"1", 6, "1000000"},
		{"0.000001", 6, "1"},
		{".5", 6, "500000"},
		{" 42 ", 0, "42"},
		{"123456789.123456789012345678", 18, "123456789123456789012345678"},
		{"007.25", 2, "725"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseUnits_Rejects(t *testing.T) {
	tests := map[string]struct {
		in       string
		decimals uint8
	}{
		"empty":           {"", 6},
		"negative":        {"-1", 6},
		"plus sign":       {"+1", 6},
		"exponent":        {"1e6", 6},
		"letters":         {"abc", 6},
		"two dots":        {"1.2.3", 6},
		"dot only":        {".", 6},
		"trailing dot":    {"1.", 6},
		"comma":           {"1,5", 6},
		"too precise":     {"1.0000001", 6},
		"fraction on int": {"1.5", 0},
		"zero":            {"0.000", 6},
		"above uint256":   {"115792089237316195423570985008687907853269984665640564039457584007913129639941", 0},
		"scaled overflow": {"1" + strings.Repeat("0", 80), 6},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUnits(tt.in, tt.decimals)
			assert.Error(t, err)
		})
	}
}

func TestParseUnits_MaxUint256(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	got, err := ParseUnits(maxUint256.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, maxUint256, got)

	_, err = ParseUnits(new(big.Int).Add(maxUint256, big.NewInt(1)).String(), 0)
	assert.ErrorIs(t, err, errTooLarge)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.500000", FormatUnits(big.NewInt(1500000), 6))
	assert.Equal(t, "0.000005", FormatUnits(big.NewInt(5), 6))
	assert.Equal(t, "0.000000", FormatUnits(nil, 6))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
	assert.Equal(t, "-0.01", FormatUnits(big.NewInt(-1), 2))

	wei, _ := new(big.Int).SetString("1230000000000000000", 10)
	assert.Equal(t, "1.230000000000000000", WeiToEther(wei))
}

func TestParseFormatRoundTrip(t *testing.T) {
	n, err := ParseUnits(FormatUnits(big.NewInt(987654321), 8), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(987654321), n.Int64())
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.True(t, IsValidAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.True(t, IsValidAddress("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"))

	assert.False(t, IsValidAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD"), "bad checksum")
	assert.False(t, IsValidAddress("5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), "missing prefix")
	assert.False(t, IsValidAddress("0xabc"))
	assert.False(t, IsValidAddress("0xzzzeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.False(t, IsValidAddress(""))
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
	Wipe(nil)

	n := new(big.Int).SetBytes([]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0x05})
	words := n.Bits()
	WipeBigInt(n)
	assert.Equal(t, 0, n.Sign())
	for _, w := range words {
		assert.Zero(t, w)
	}
	WipeBigInt(nil)
}
