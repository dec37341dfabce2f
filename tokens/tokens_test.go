package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByAddressIgnoresCase(t *testing.T) {
	l := Default()

	weth, ok := l.ByAddress(1, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	require.True(t, ok)
	assert.Equal(t, "WETH", weth.Symbol)
	assert.Equal(t, "Wrapped Ether", weth.Name)
	assert.Equal(t, 18, weth.Decimals)

	// same address, different chain
	_, ok = l.ByAddress(137, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	assert.False(t, ok)
}

func TestBySymbol(t *testing.T) {
	l := Default()

	usdt, ok := l.BySymbol(728126428, "USDT")
	require.True(t, ok)
	assert.Equal(t, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", usdt.Address)

	_, ok = l.BySymbol(1, "NOPE")
	assert.False(t, ok)
}

func TestForChain(t *testing.T) {
	l := New([]Token{
		{ChainID: 1, Address: "0x01", Symbol: "A"},
		{ChainID: 2, Address: "0x02", Symbol: "B"},
		{ChainID: 1, Address: "0x03", Symbol: "C"},
	})
	got := l.ForChain(1)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Symbol)
	assert.Equal(t, "C", got[1].Symbol)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{"))
	assert.Error(t, err)
}
