package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/chains/tron"
	"github.com/chinmay1088/bucks/networks"
)

const (
	usdtTron = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	jstTron  = "TCFLL5dx5ZJdKnWuesXxi1VPwjLVmWZZy9"
)

var (
	activeTron   = tron.FromEVM(common.HexToAddress("0x1111111111111111111111111111111111111111")).String()
	inactiveTron = tron.FromEVM(common.HexToAddress("0x2222222222222222222222222222222222222222")).String()
)

func newTronTx(rawHex string) *tron.Transaction {
	raw, _ := hex.DecodeString(rawHex)
	id := sha256.Sum256(raw)
	return &tron.Transaction{TxID: hex.EncodeToString(id[:]), RawDataHex: rawHex, Visible: true}
}

type fakeTronNode struct {
	mu        sync.Mutex
	active    map[string]bool
	info      *api.TronAccountInfo
	resource  api.AccountResource
	params    api.ChainParameters
	energy    int64
	transfers []api.TRC20Transfer

	triggers  []api.TriggerRequest
	created   int
	broadcast []*tron.Transaction
	query     api.TRC20TransfersQuery
}

func (n *fakeTronNode) GetAccount(_ context.Context, address string) (*api.TronAccount, error) {
	if n.active[address] {
		return &api.TronAccount{Address: address}, nil
	}
	return &api.TronAccount{}, nil
}

func (n *fakeTronNode) GetAccountInfo(context.Context, string) (*api.TronAccountInfo, error) {
	return n.info, nil
}

func (n *fakeTronNode) GetAccountResource(context.Context, string) (*api.AccountResource, error) {
	res := n.resource
	return &res, nil
}

func (n *fakeTronNode) GetChainParameters(context.Context) (api.ChainParameters, error) {
	return n.params, nil
}

func (n *fakeTronNode) CreateTransaction(context.Context, string, string, int64) (*tron.Transaction, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
	return newTronTx(strings.Repeat("0a", 100)), nil
}

func (n *fakeTronNode) TriggerSmartContract(_ context.Context, req api.TriggerRequest) (*tron.Transaction, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers = append(n.triggers, req)
	return newTronTx(strings.Repeat("0b", 200)), nil
}

func (n *fakeTronNode) TriggerConstantContract(_ context.Context, req api.TriggerRequest) (*api.ConstantResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers = append(n.triggers, req)
	return &api.ConstantResult{EnergyUsed: n.energy}, nil
}

func (n *fakeTronNode) BroadcastTransaction(_ context.Context, tx *tron.Transaction) (*api.BroadcastResult, error) {
	n.broadcast = append(n.broadcast, tx)
	return &api.BroadcastResult{Result: true, TxID: tx.TxID}, nil
}

func (n *fakeTronNode) GetTRC20Transfers(_ context.Context, _ string, q api.TRC20TransfersQuery) ([]api.TRC20Transfer, error) {
	n.query = q
	return n.transfers, nil
}

func newTestTron(t *testing.T, node *fakeTronNode, prices *fakePrices) *TronAccount {
	t.Helper()
	pk, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	if prices == nil {
		prices = &fakePrices{}
	}
	if node.active == nil {
		node.active = map[string]bool{}
	}
	node.active[activeTron] = true

	acc, err := NewTronAccount(testNetwork(t, networks.Tron), pk, TronDeps{Node: node, Prices: prices, FeeLimit: 30_000_000})
	require.NoError(t, err)
	return acc
}

func TestTronAddressFromKey(t *testing.T) {
	acc := newTestTron(t, &fakeTronNode{}, nil)
	pk, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	evmAddr := ethcrypto.PubkeyToAddress(pk.PublicKey)
	assert.Equal(t, tron.FromEVM(evmAddr).String(), acc.Address())
	assert.True(t, strings.HasPrefix(acc.Address(), "T"))
}

func TestTronQueryBalances(t *testing.T) {
	node := &fakeTronNode{info: &api.TronAccountInfo{
		Activated: true,
		Balance:   big.NewInt(2_000_000),
		TRC20: map[string]*big.Int{
			usdtTron:   big.NewInt(5_000_000),
			jstTron:    new(big.Int),
			activeTron: big.NewInt(100),
		},
	}}
	prices := &fakePrices{quotes: map[string]string{"TRX": "0.1", "USDT": "1"}}
	acc := newTestTron(t, node, prices)
	assert.False(t, acc.Activated())

	balances, err := acc.QueryBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, acc.Activated())

	assert.True(t, balances[0].Native)
	assert.Equal(t, "TRX", balances[0].Symbol)
	assert.Equal(t, "2", balances[0].Balance.String())
	assert.Equal(t, "0.2", balances[0].Quote.Decimal.String())

	assert.Equal(t, "USDT", balances[1].Symbol)
	assert.Equal(t, usdtTron, balances[1].Address)
	assert.Equal(t, "5", balances[1].Quote.Decimal.String())

	assert.ElementsMatch(t, []string{"TRX", "USDT"}, prices.symbols)
}

func TestTronQueryTokenHistory(t *testing.T) {
	node := &fakeTronNode{transfers: []api.TRC20Transfer{
		{TransactionID: "older", BlockTimestamp: 1_700_000_000_000, Value: "1000000"},
		{TransactionID: "newer", BlockTimestamp: 1_700_000_100_000, Value: "2500000"},
	}}
	node.transfers[0].TokenInfo.Decimals = 6
	node.transfers[1].TokenInfo.Decimals = 6
	acc := newTestTron(t, node, nil)
	ctx := context.Background()

	history, err := acc.QueryTokenHistory(ctx, usdtTron, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "newer", history[0].Hash)
	assert.Equal(t, "2.5", history[0].Value.String())
	assert.Equal(t, int64(1_700_000_100), history[0].BlockTimestamp.Unix())
	assert.Equal(t, usdtTron, node.query.ContractAddress)
	assert.Equal(t, DefaultHistoryCount, node.query.Limit)

	history, err = acc.QueryTokenHistory(ctx, "", 6, 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTronIsActivated(t *testing.T) {
	acc := newTestTron(t, &fakeTronNode{}, nil)
	ctx := context.Background()

	ok, err := acc.IsActivated(ctx, activeTron)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = acc.IsActivated(ctx, inactiveTron)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = acc.IsActivated(ctx, "0x1111111111111111111111111111111111111111")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTronPopulateTransferToken(t *testing.T) {
	node := &fakeTronNode{}
	acc := newTestTron(t, node, nil)
	ctx := context.Background()

	// TRX activates the recipient
	d, err := acc.PopulateTransferToken(ctx, "", inactiveTron, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.True(t, d.Native())
	assert.NotNil(t, d.Tron)
	assert.Equal(t, 1, node.created)

	_, err = acc.PopulateTransferToken(ctx, usdtTron, inactiveTron, big.NewInt(1_000_000))
	assert.ErrorIs(t, err, ErrNotActivated)
	assert.Empty(t, node.triggers)

	d, err = acc.PopulateTransferToken(ctx, usdtTron, activeTron, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, usdtTron, d.Token)
	require.Len(t, node.triggers, 1)
	req := node.triggers[0]
	assert.Equal(t, tron.TransferSelector, req.FunctionSelector)
	assert.Equal(t, usdtTron, req.ContractAddress)
	assert.Equal(t, int64(30_000_000), req.FeeLimit)
	assert.Len(t, req.Parameter, 128)

	_, err = acc.PopulateTransferToken(ctx, "", activeTron, new(big.Int))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = acc.PopulateTransferToken(ctx, "", "T123", big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestTronEstimateGas(t *testing.T) {
	node := &fakeTronNode{
		resource: api.AccountResource{FreeNetLimit: 600},
		energy:   30_000,
	}
	acc := newTestTron(t, node, nil)
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, usdtTron, activeTron, big.NewInt(1_000_000))
	require.NoError(t, err)

	est, err := acc.EstimateGas(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(200+134), est.Bandwidth)
	assert.Equal(t, int64(30_000), est.Energy)
	assert.Equal(t, int64(30_000*210), est.Fee.Int64())
	assert.True(t, est.Burn)

	d, err = acc.PopulateTransferToken(ctx, "", activeTron, big.NewInt(1))
	require.NoError(t, err)
	est, err = acc.EstimateGas(ctx, d)
	require.NoError(t, err)
	assert.Zero(t, est.Energy)
	assert.Zero(t, est.Fee.Int64())
	assert.False(t, est.Burn)

	d, err = acc.PopulateTransferToken(ctx, "", inactiveTron, big.NewInt(1))
	require.NoError(t, err)
	est, err = acc.EstimateGas(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(1_100_000), est.Fee.Int64())
}

func TestTronEstimateGasWithoutBandwidth(t *testing.T) {
	node := &fakeTronNode{params: api.ChainParameters{"getTransactionFee": 1000}}
	acc := newTestTron(t, node, nil)
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, "", activeTron, big.NewInt(1))
	require.NoError(t, err)
	est, err := acc.EstimateGas(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, (100+134)*int64(1000), est.Fee.Int64())
}

func TestTronExecute(t *testing.T) {
	node := &fakeTronNode{}
	acc := newTestTron(t, node, nil)
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, "", activeTron, big.NewInt(1))
	require.NoError(t, err)

	receipt, err := acc.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, d.Tron.TxID, receipt.Hash)
	assert.Equal(t, StatusPending, receipt.Status)
	require.Len(t, node.broadcast, 1)
	assert.Len(t, node.broadcast[0].Signature, 1)
	assert.Empty(t, d.Tron.Signature)

	_, err = acc.Execute(ctx, d)
	require.NoError(t, err)
	require.Len(t, node.broadcast, 2)
	assert.Equal(t, node.broadcast[0].Signature, node.broadcast[1].Signature)
}

func TestTronLinks(t *testing.T) {
	acc := newTestTron(t, &fakeTronNode{}, nil)
	assert.Equal(t, "https://tronscan.org/#/address/"+activeTron, acc.LinkOfAddress(activeTron))
	assert.Equal(t, "https://tronscan.org/#/contract/"+usdtTron, acc.LinkOfContract(usdtTron))
	assert.Equal(t, "https://tronscan.org/#/transaction/abc", acc.LinkOfTransaction("abc"))
}
