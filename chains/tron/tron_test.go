package tron

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdtContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

func TestDecodeRoundTrip(t *testing.T) {
	a, err := Decode(usdtContract)
	require.NoError(t, err)
	assert.Equal(t, "41a614f803b6fd780986a42c78ec9c7f77e6ded13c", a.Hex())
	assert.Equal(t, usdtContract, a.String())

	b, err := DecodeHex(a.Hex())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejects(t *testing.T) {
	// last character changed, checksum no longer matches
	_, err := Decode(usdtContract[:len(usdtContract)-1] + "u")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Decode("0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	assert.False(t, IsAddress(""))
	assert.True(t, IsAddress(usdtContract))
}

func TestPubkeyToAddress(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	a := PubkeyToAddress(key.PublicKey)
	assert.True(t, strings.HasPrefix(a.String(), "T"))
	assert.Equal(t, ethcrypto.PubkeyToAddress(key.PublicKey), a.EVM())
	assert.True(t, IsAddress(a.String()))
}

func TestTransferParameter(t *testing.T) {
	to, err := Decode(usdtContract)
	require.NoError(t, err)

	param, err := TransferParameter(to, big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Len(t, param, 128)
	assert.Equal(t, strings.Repeat("0", 24)+"a614f803b6fd780986a42c78ec9c7f77e6ded13c", param[:64])
	assert.Equal(t, strings.Repeat("0", 59)+"f4240", param[64:])
}

func newTransaction(raw []byte) *Transaction {
	sum := sha256.Sum256(raw)
	return &Transaction{
		TxID:       hex.EncodeToString(sum[:]),
		RawDataHex: hex.EncodeToString(raw),
		Visible:    true,
	}
}

func TestSign(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	tx := newTransaction([]byte("raw transaction bytes"))
	require.NoError(t, tx.Sign(key))
	require.Len(t, tx.Signature, 1)

	sig, err := hex.DecodeString(tx.Signature[0])
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	sig[64] -= 27
	id, _ := hex.DecodeString(tx.TxID)
	pub, err := ethcrypto.SigToPub(id, sig)
	require.NoError(t, err)
	assert.Equal(t, PubkeyToAddress(key.PublicKey), PubkeyToAddress(*pub))
}

func TestSignRejectsMismatchedTxID(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	tx := newTransaction([]byte("a"))
	tx.RawDataHex = hex.EncodeToString([]byte("b"))
	assert.Error(t, tx.Sign(key))
	assert.Empty(t, tx.Signature)
}

func TestEstimateBandwidth(t *testing.T) {
	tx := newTransaction(make([]byte, 100))
	assert.Equal(t, int64(100+65+64+5), EstimateBandwidth(tx))
}
