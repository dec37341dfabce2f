package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/tokens"
)

func TestResolveToken(t *testing.T) {
	list := tokens.Default()
	eth := testNetwork(t, networks.Ethereum)

	native, err := ResolveToken(eth, list, "")
	require.NoError(t, err)
	assert.Equal(t, "ETH", native.Symbol)
	assert.Empty(t, native.Address)
	assert.Equal(t, 18, native.Decimals)

	usdc, err := ResolveToken(eth, list, "usdc")
	require.NoError(t, err)
	assert.Equal(t, eth.USDC, usdc.Address)

	byAddr, err := ResolveToken(eth, list, "0xdac17f958d2ee523a2206206994597c13d831ec7")
	require.NoError(t, err)
	assert.Equal(t, "USDT", byAddr.Symbol)

	_, err = ResolveToken(eth, list, "JST")
	assert.ErrorIs(t, err, ErrUnknownToken)

	trx, err := ResolveToken(testNetwork(t, networks.Tron), list, "trx")
	require.NoError(t, err)
	assert.Equal(t, 6, trx.Decimals)
}

func TestParseAmount(t *testing.T) {
	usdt := tokens.Token{Symbol: "USDT", Decimals: 6}

	v, err := ParseAmount(usdt, "12.5")
	require.NoError(t, err)
	assert.Equal(t, int64(12_500_000), v.Int64())

	_, err = ParseAmount(usdt, "0")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAmount(usdt, "0.0000001")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAmount(usdt, "abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
