// Package chains holds the chain-agnostic amount helpers shared by the EVM
// and TRON encodings.
package chains

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBits is the width of the EVM and TRON word amounts are encoded into.
const MaxBits = 256

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrTooPrecise      = errors.New("amount has more decimals than the token supports")
	ErrMalformedAmount = errors.New("amount must be a plain decimal number")
	ErrAmountTooLarge  = errors.New("amount does not fit in 256 bits")
)

var plainDecimal = regexp.MustCompile(`^\d*\.?\d*$`)

// FormatUnits converts a raw integer amount to its decimal representation.
func FormatUnits(raw *big.Int, decimals int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ParseUnits converts a human readable amount ("1.5") to the raw integer
// amount for a token with the given decimals.
// Exponents, signs other than a leading minus and results wider than
// MaxBits are rejected.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if strings.HasPrefix(amount, "-") {
		return nil, ErrNegativeAmount
	}
	if amount == "" || amount == "." || !plainDecimal.MatchString(amount) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedAmount, amount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w (%d)", ErrTooPrecise, decimals)
	}
	v := shifted.BigInt()
	if v.BitLen() > MaxBits {
		return nil, ErrAmountTooLarge
	}
	return v, nil
}
