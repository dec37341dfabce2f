package chains

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatUnits(wei, 18).String())
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6).String())
	assert.True(t, FormatUnits(nil, 18).IsZero())
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"1.5", 18, "1500000000000000000"},
		{"0.000001", 6, "1"},
		{"42", 0, "42"},
		{" 10 ", 6, "10000000"},
	}
	for _, tt := range tests {
		got, err := ParseUnits(tt.amount, tt.decimals)
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.want, got.String(), tt.amount)
	}
}

func TestParseUnitsRejects(t *testing.T) {
	_, err := ParseUnits("-1", 18)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseUnits("0.0000001", 6)
	assert.ErrorIs(t, err, ErrTooPrecise)

	_, err = ParseUnits("abc", 6)
	assert.Error(t, err)
}

func TestParseUnitsRejectsExponents(t *testing.T) {
	for _, amount := range []string{"1e3", "1E3", "1e20000000", "+1", "0x10", "1.2.3", "", ".", "1 000"} {
		_, err := ParseUnits(amount, 18)
		assert.ErrorIs(t, err, ErrMalformedAmount, amount)
	}
}

func TestParseUnitsBounds(t *testing.T) {
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxBits), big.NewInt(1))

	got, err := ParseUnits(maxWord.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, maxWord, got)

	_, err = ParseUnits(new(big.Int).Add(maxWord, big.NewInt(1)).String(), 0)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	// 10^60 * 10^18 needs more than 256 bits
	_, err = ParseUnits("1"+strings.Repeat("0", 60), 18)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	got, err = ParseUnits(".5", 1)
	require.NoError(t, err)
	assert.Equal(t, "5", got.String())
}
