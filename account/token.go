package account

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/tokens"
)

// NativeToken describes the native currency of n as a token without an
// address.
func NativeToken(n networks.Network) tokens.Token {
	return tokens.Token{
		ChainID:  n.ChainID,
		Name:     n.Name,
		Symbol:   n.NativeSymbol,
		Decimals: n.NativeDecimals,
	}
}

// ResolveToken finds the token to transfer on n by contract address or
// symbol. An empty ref, or the native symbol, is the native currency.
func ResolveToken(n networks.Network, list *tokens.List, ref string) (tokens.Token, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "0x" || strings.EqualFold(ref, n.NativeSymbol) {
		return NativeToken(n), nil
	}
	if t, ok := list.ByAddress(n.ChainID, ref); ok {
		return t, nil
	}
	if t, ok := list.BySymbol(n.ChainID, strings.ToUpper(ref)); ok {
		return t, nil
	}
	return tokens.Token{}, fmt.Errorf("%w: %s on %s", ErrUnknownToken, ref, n.Key)
}

// ParseAmount converts a display amount of t into its smallest unit. The
// amount must be positive.
func ParseAmount(t tokens.Token, amount string) (*big.Int, error) {
	v, err := chains.ParseUnits(amount, t.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return v, nil
}
