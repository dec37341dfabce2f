package account

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/walletconnect"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

const evmRecipient = "0x3535353535353535353535353535353535353535"

type fakeProvider struct {
	mu       sync.Mutex
	balance  *big.Int
	gasPrice *big.Int
	gas      uint64
	nonce    uint64
	status   uint64
	msgs     []ethereum.CallMsg
	sent     []*types.Transaction
	polls    int
}

func (p *fakeProvider) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return p.balance, nil
}

func (p *fakeProvider) SuggestGasPrice(context.Context) (*big.Int, error) {
	return p.gasPrice, nil
}

func (p *fakeProvider) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.gas, nil
}

func (p *fakeProvider) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return p.nonce, nil
}

func (p *fakeProvider) SendTransaction(_ context.Context, tx *types.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, tx)
	return nil
}

func (p *fakeProvider) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	if p.polls == 1 {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: p.status, BlockNumber: big.NewInt(42), GasUsed: 21000}, nil
}

type fakeIndexer struct {
	mu        sync.Mutex
	balances  []api.RawBalance
	single    map[string]*big.Int
	transfers func(api.AssetTransfersParams) []api.AssetTransfer
	params    []api.AssetTransfersParams
}

func (i *fakeIndexer) GetTokenBalances(context.Context, string) ([]api.RawBalance, error) {
	return i.balances, nil
}

func (i *fakeIndexer) GetTokenBalance(_ context.Context, _, token string) (*big.Int, error) {
	if b, ok := i.single[strings.ToLower(token)]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (i *fakeIndexer) GetAssetTransfers(_ context.Context, params api.AssetTransfersParams) ([]api.AssetTransfer, error) {
	i.mu.Lock()
	i.params = append(i.params, params)
	i.mu.Unlock()
	return i.transfers(params), nil
}

type fakePrices struct {
	mu        sync.Mutex
	quotes    map[string]string
	err       error
	addresses []string
	symbols   []string
}

func (p *fakePrices) ByAddress(_ context.Context, network string, addresses []string) ([]api.TokenPrice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses = addresses
	if p.err != nil {
		return nil, p.err
	}
	var out []api.TokenPrice
	for _, a := range addresses {
		if q, ok := p.quotes[strings.ToLower(a)]; ok {
			out = append(out, api.TokenPrice{Network: network, Address: a, Prices: []api.Price{{Currency: "usd", Value: decimal.RequireFromString(q)}}})
		}
	}
	return out, nil
}

func (p *fakePrices) BySymbol(_ context.Context, symbols []string) ([]api.TokenPrice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbols = symbols
	if p.err != nil {
		return nil, p.err
	}
	var out []api.TokenPrice
	for _, s := range symbols {
		if q, ok := p.quotes[s]; ok {
			out = append(out, api.TokenPrice{Symbol: s, Prices: []api.Price{{Currency: "usd", Value: decimal.RequireFromString(q)}}})
		}
	}
	return out, nil
}

type fakeRemote struct {
	connected bool
	accounts  []string
	chainID   int64
	sent      []walletconnect.TxParams
	hash      string
}

func (r *fakeRemote) CreateSession(context.Context) (string, error) { return "wc:topic@1", nil }
func (r *fakeRemote) WaitForApproval(context.Context) error { return nil }
func (r *fakeRemote) Connected() bool { return r.connected }
func (r *fakeRemote) Accounts() []string { return r.accounts }
func (r *fakeRemote) ChainID() int64 { return r.chainID }

func (r *fakeRemote) SendTransaction(_ context.Context, tx walletconnect.TxParams) (string, error) {
	r.sent = append(r.sent, tx)
	return r.hash, nil
}

func testNetwork(t *testing.T, key string) networks.Network {
	t.Helper()
	n, err := networks.NewRegistry(nil).Find(key)
	require.NoError(t, err)
	return n
}

func newTestEvm(t *testing.T, key string, deps EvmDeps) *EvmAccount {
	t.Helper()
	pk, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	if deps.Provider == nil {
		deps.Provider = &fakeProvider{gasPrice: big.NewInt(1), status: types.ReceiptStatusSuccessful}
	}
	if deps.Indexer == nil {
		deps.Indexer = &fakeIndexer{}
	}
	if deps.Prices == nil {
		deps.Prices = &fakePrices{}
	}
	deps.PollInterval = time.Millisecond
	acc, err := NewEvmAccount(testNetwork(t, key), pk, deps)
	require.NoError(t, err)
	return acc
}

func TestEvmQueryBalances(t *testing.T) {
	n := testNetwork(t, networks.Ethereum)
	eth, _ := new(big.Int).SetString("1500000000000000000", 10)

	indexer := &fakeIndexer{
		balances: []api.RawBalance{
			{ContractAddress: strings.ToLower(n.USDC), Balance: big.NewInt(2_500_000)},
			{ContractAddress: "0x000000000000000000000000000000000000dead", Balance: big.NewInt(100)},
			{ContractAddress: n.USD, Balance: new(big.Int)},
		},
		single: map[string]*big.Int{
			strings.ToLower(n.USDT): big.NewInt(1_000_000),
			strings.ToLower(n.USDC): big.NewInt(2_500_000),
		},
	}
	prices := &fakePrices{quotes: map[string]string{
		strings.ToLower(n.WrappedAsset): "2000",
		strings.ToLower(n.USDC):         "1",
	}}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{
		Provider: &fakeProvider{balance: eth},
		Indexer:  indexer,
		Prices:   prices,
	})

	balances, err := acc.QueryBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 3)

	native := balances[0]
	assert.True(t, native.Native)
	assert.Equal(t, "ETH", native.Symbol)
	assert.Equal(t, "Ether", native.Name)
	assert.Equal(t, "0x", native.Address)
	assert.Equal(t, "1.5", native.Balance.String())
	assert.Equal(t, "3000", native.Quote.Decimal.String())

	assert.Equal(t, "USDC", balances[1].Symbol)
	assert.Equal(t, "2.5", balances[1].Balance.String())
	assert.Equal(t, "2.5", balances[1].Quote.Decimal.String())

	assert.Equal(t, "USDT", balances[2].Symbol)
	assert.False(t, balances[2].Price.Valid)
	assert.False(t, balances[2].Quote.Valid)

	assert.Len(t, prices.addresses, 3)
}

func TestEvmGetTokenBalance(t *testing.T) {
	n := testNetwork(t, networks.Ethereum)
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Indexer: &fakeIndexer{
		single: map[string]*big.Int{strings.ToLower(n.USDT): big.NewInt(1_000_000)},
	}})
	ctx := context.Background()

	b, err := acc.GetTokenBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), b)

	b, err = acc.GetTokenBalance(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestEvmQueryBalancesKeepsEmptyNative(t *testing.T) {
	acc := newTestEvm(t, networks.Polygon, EvmDeps{
		Provider: &fakeProvider{balance: new(big.Int)},
	})

	balances, err := acc.QueryBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "MATIC", balances[0].Symbol)
	assert.Equal(t, "Matic", balances[0].Name)
	assert.True(t, balances[0].Balance.IsZero())
}

func TestEvmQueryBalancesFailsOnPrices(t *testing.T) {
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{
		Provider: &fakeProvider{balance: big.NewInt(1)},
		Prices:   &fakePrices{err: errors.New("boom")},
	})

	balances, err := acc.QueryBalances(context.Background())
	assert.Error(t, err)
	assert.Nil(t, balances)
}

func transfer(block, hash, value, raw string) api.AssetTransfer {
	t := api.AssetTransfer{BlockNum: block, Hash: hash}
	if value != "" {
		t.Value = decimal.NewNullDecimal(decimal.RequireFromString(value))
	}
	t.RawContract.Value = raw
	t.Metadata.BlockTimestamp = "2024-05-01T10:00:00.000Z"
	return t
}

func TestEvmQueryTokenHistory(t *testing.T) {
	indexer := &fakeIndexer{transfers: func(p api.AssetTransfersParams) []api.AssetTransfer {
		if p.ToAddress != "" {
			return []api.AssetTransfer{transfer("0x10", "in-16", "1", ""), transfer("0x5", "in-5", "2", "")}
		}
		return []api.AssetTransfer{transfer("0x20", "out-32", "", "0x0de0b6b3a7640000"), transfer("0x1", "out-1", "3", "")}
	}}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Indexer: indexer})

	history, err := acc.QueryTokenHistory(context.Background(), "", 18, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "out-32", history[0].Hash)
	assert.Equal(t, "1", history[0].Value.String())
	assert.Equal(t, uint64(32), history[0].BlockNum)
	assert.Equal(t, "in-16", history[1].Hash)
	assert.Equal(t, "in-5", history[2].Hash)
	assert.Equal(t, 2024, history[0].BlockTimestamp.Year())

	require.Len(t, indexer.params, 2)
	for _, p := range indexer.params {
		assert.Equal(t, []string{api.CategoryExternal}, p.Category)
		assert.Equal(t, "0x3", p.MaxCount)
		assert.True(t, p.ExcludeZeroValue)
	}
}

func TestEvmQueryTokenHistoryERC20(t *testing.T) {
	n := testNetwork(t, networks.Ethereum)
	indexer := &fakeIndexer{transfers: func(api.AssetTransfersParams) []api.AssetTransfer { return nil }}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Indexer: indexer})

	history, err := acc.QueryTokenHistory(context.Background(), n.USDC, 6, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	for _, p := range indexer.params {
		assert.Equal(t, []string{api.CategoryERC20}, p.Category)
		assert.Equal(t, []string{n.USDC}, p.ContractAddresses)
		assert.Equal(t, "0x5", p.MaxCount)
	}

	_, err = acc.QueryTokenHistory(context.Background(), "nope", 6, 0)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestEvmPopulateTransferToken(t *testing.T) {
	n := testNetwork(t, networks.Ethereum)
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{})
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, "", evmRecipient, big.NewInt(5))
	require.NoError(t, err)
	assert.True(t, d.Native())
	assert.Equal(t, common.HexToAddress(evmRecipient).Hex(), d.To)
	assert.Equal(t, int64(5), d.Value.Int64())
	assert.Empty(t, d.Data)

	d, err = acc.PopulateTransferToken(ctx, n.USDT, evmRecipient, big.NewInt(5))
	require.NoError(t, err)
	assert.False(t, d.Native())
	assert.Equal(t, common.HexToAddress(n.USDT).Hex(), d.To)
	assert.Equal(t, 0, d.Value.Sign())
	assert.Equal(t, "a9059cbb", hexutil.Encode(d.Data)[2:10])
	assert.Len(t, d.Data, 68)

	_, err = acc.PopulateTransferToken(ctx, "", "0x1234", big.NewInt(5))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = acc.PopulateTransferToken(ctx, "", evmRecipient, big.NewInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEvmEstimateGas(t *testing.T) {
	provider := &fakeProvider{gas: 21000, gasPrice: big.NewInt(10_000_000_000)}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Provider: provider})
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, "", evmRecipient, big.NewInt(1))
	require.NoError(t, err)
	d.From = ""

	est, err := acc.EstimateGas(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), est.Gas)
	assert.Equal(t, "210000000000000", est.Fee.String())
	require.Len(t, provider.msgs, 1)
	assert.Equal(t, acc.Address(), provider.msgs[0].From.Hex())
	assert.NotNil(t, acc.GasPrice())
}

func TestEvmExecute(t *testing.T) {
	provider := &fakeProvider{gas: 21000, gasPrice: big.NewInt(1_000_000_000), nonce: 7, status: types.ReceiptStatusSuccessful}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Provider: provider})
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, "", evmRecipient, big.NewInt(1000))
	require.NoError(t, err)

	receipt, err := acc.Execute(ctx, d)
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)

	tx := provider.sent[0]
	assert.Equal(t, tx.Hash().Hex(), receipt.Hash)
	assert.Equal(t, uint64(42), receipt.BlockNumber)
	assert.Equal(t, StatusSuccess, receipt.Status)
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), from.Hex())
}

func TestEvmExecuteReverted(t *testing.T) {
	provider := &fakeProvider{gas: 50000, gasPrice: big.NewInt(1), status: types.ReceiptStatusFailed}
	acc := newTestEvm(t, networks.Ethereum, EvmDeps{Provider: provider})

	d, err := acc.PopulateTransferToken(context.Background(), "", evmRecipient, big.NewInt(1))
	require.NoError(t, err)

	receipt, err := acc.Execute(context.Background(), d)
	assert.ErrorIs(t, err, ErrReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, StatusFailed, receipt.Status)
}

func TestEvmExecuteWalletConnect(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	remote := &fakeRemote{hash: hash}
	provider := &fakeProvider{status: types.ReceiptStatusSuccessful}
	acc := newTestEvm(t, networks.WalletConnect, EvmDeps{Provider: provider, Remote: remote})
	ctx := context.Background()

	n := testNetwork(t, networks.WalletConnect)
	d, err := acc.PopulateTransferToken(ctx, n.USDC, evmRecipient, big.NewInt(1_000_000))
	require.NoError(t, err)

	_, err = acc.Execute(ctx, d)
	assert.ErrorIs(t, err, ErrNotConnected)

	remote.connected = true
	remote.chainID = n.ChainID
	remote.accounts = []string{"0x1111111111111111111111111111111111111111"}
	receipt, err := acc.Execute(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, hash, receipt.Hash)

	require.Len(t, remote.sent, 1)
	sent := remote.sent[0]
	assert.Equal(t, remote.accounts[0], sent.From)
	assert.Equal(t, common.HexToAddress(n.USDC).Hex(), sent.To)
	assert.Equal(t, "0x0", sent.Value)
	assert.True(t, strings.HasPrefix(sent.Data, "0xa9059cbb"))
	assert.Empty(t, provider.sent)

	uri, err := acc.ConnectWalletConnect(ctx)
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestEvmWalletConnectWrongChain(t *testing.T) {
	n := testNetwork(t, networks.WalletConnect)
	remote := &fakeRemote{
		connected: true,
		chainID:   n.ChainID + 1,
		accounts:  []string{"0x1111111111111111111111111111111111111111"},
		hash:      "0x" + strings.Repeat("ab", 32),
	}
	provider := &fakeProvider{status: types.ReceiptStatusSuccessful}
	acc := newTestEvm(t, networks.WalletConnect, EvmDeps{Provider: provider, Remote: remote})
	ctx := context.Background()

	d, err := acc.PopulateTransferToken(ctx, n.USDC, evmRecipient, big.NewInt(1_000_000))
	require.NoError(t, err)

	_, err = acc.Execute(ctx, d)
	assert.ErrorIs(t, err, ErrWrongChain)
	assert.Empty(t, remote.sent)
	assert.Empty(t, provider.sent)
}

func TestEvmNeedsRemoteOnWalletConnect(t *testing.T) {
	pk, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	_, err = NewEvmAccount(testNetwork(t, networks.WalletConnect), pk, EvmDeps{
		Provider: &fakeProvider{},
		Indexer:  &fakeIndexer{},
		Prices:   &fakePrices{},
	})
	assert.Error(t, err)
}

func TestEvmLinks(t *testing.T) {
	acc := newTestEvm(t, networks.Polygon, EvmDeps{})
	assert.Equal(t, "https://polygonscan.com/address/"+evmRecipient, acc.LinkOfAddress(evmRecipient))
	assert.Equal(t, "https://polygonscan.com/address/"+evmRecipient+"#code", acc.LinkOfContract(evmRecipient))
	assert.Equal(t, "https://polygonscan.com/tx/0xabc", acc.LinkOfTransaction("0xabc"))
	assert.True(t, acc.IsAddress(evmRecipient))
	assert.False(t, acc.IsAddress("TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"))
	assert.True(t, acc.Activated())
}
