package account

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/chains/evm"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/tokens"
	"github.com/chinmay1088/bucks/walletconnect"
)

// DefaultPollInterval is how often Execute polls for a receipt.
const DefaultPollInterval = 2 * time.Second

// Provider is the node access of an EvmAccount. *ethclient.Client
// satisfies it.
type Provider interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Indexer reports token balances and transfer history. *api.Alchemy
// satisfies it.
type Indexer interface {
	GetTokenBalances(ctx context.Context, owner string) ([]api.RawBalance, error)
	GetTokenBalance(ctx context.Context, owner, token string) (*big.Int, error)
	GetAssetTransfers(ctx context.Context, params api.AssetTransfersParams) ([]api.AssetTransfer, error)
}

// PriceSource quotes tokens in USD. *api.Prices satisfies it.
type PriceSource interface {
	ByAddress(ctx context.Context, network string, addresses []string) ([]api.TokenPrice, error)
	BySymbol(ctx context.Context, symbols []string) ([]api.TokenPrice, error)
}

// RemoteSigner sends transactions through an external wallet.
// *walletconnect.Connector satisfies it.
type RemoteSigner interface {
	CreateSession(ctx context.Context) (string, error)
	WaitForApproval(ctx context.Context) error
	Connected() bool
	Accounts() []string
	ChainID() int64
	SendTransaction(ctx context.Context, tx walletconnect.TxParams) (string, error)
}

// EvmDeps are the services an EvmAccount is built on. Remote is required
// on the walletconnect network and ignored elsewhere.
type EvmDeps struct {
	Provider Provider
	Indexer  Indexer
	Prices   PriceSource
	Remote   RemoteSigner
	Tokens   *tokens.List

	PollInterval time.Duration
}

// EvmAccount is an account on an EVM chain, signed with the local key or,
// on the walletconnect network, by the connected wallet.
type EvmAccount struct {
	network  networks.Network
	key      *ecdsa.PrivateKey
	address  common.Address
	provider Provider
	indexer  Indexer
	prices   PriceSource
	remote   RemoteSigner
	tokens   *tokens.List
	poll     time.Duration

	mu       sync.Mutex
	gasPrice *big.Int
}

var _ Account = (*EvmAccount)(nil)

// NewEvmAccount creates the account of key on network.
func NewEvmAccount(network networks.Network, key *ecdsa.PrivateKey, deps EvmDeps) (*EvmAccount, error) {
	if network.Kind != networks.KindEVM {
		return nil, fmt.Errorf("%s is not an evm network", network.Key)
	}
	if key == nil {
		return nil, fmt.Errorf("no signing key for %s", network.Key)
	}
	if deps.Provider == nil || deps.Indexer == nil || deps.Prices == nil {
		return nil, fmt.Errorf("incomplete services for %s", network.Key)
	}
	if network.IsWalletConnect() && deps.Remote == nil {
		return nil, fmt.Errorf("%s needs a walletconnect connector", network.Key)
	}
	if deps.Tokens == nil {
		deps.Tokens = tokens.Default()
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = DefaultPollInterval
	}

	return &EvmAccount{
		network:  network,
		key:      key,
		address:  ethcrypto.PubkeyToAddress(key.PublicKey),
		provider: deps.Provider,
		indexer:  deps.Indexer,
		prices:   deps.Prices,
		remote:   deps.Remote,
		tokens:   deps.Tokens,
		poll:     deps.PollInterval,
	}, nil
}

func (a *EvmAccount) Network() networks.Network { return a.network }

func (a *EvmAccount) Address() string { return a.address.Hex() }

// Activated is always true, EVM accounts need no activation.
func (a *EvmAccount) Activated() bool { return true }

func (a *EvmAccount) IsAddress(value string) bool {
	return evm.IsAddress(value)
}

func (a *EvmAccount) LinkOfAddress(address string) string {
	return a.network.Scanner + "/address/" + address
}

func (a *EvmAccount) LinkOfContract(address string) string {
	return a.network.Scanner + "/address/" + address + "#code"
}

func (a *EvmAccount) LinkOfTransaction(hash string) string {
	return a.network.Scanner + "/tx/" + hash
}

// GasPrice is the gas price of the last GetNetworkStatus, nil before it.
func (a *EvmAccount) GasPrice() *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gasPrice == nil {
		return nil
	}
	return new(big.Int).Set(a.gasPrice)
}

// GetNetworkStatus refreshes the gas price.
func (a *EvmAccount) GetNetworkStatus(ctx context.Context) (*NetworkStatus, error) {
	price, err := a.provider.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	a.mu.Lock()
	a.gasPrice = price
	a.mu.Unlock()

	return &NetworkStatus{GasPrice: new(big.Int).Set(price), Activated: true}, nil
}

func (a *EvmAccount) currentGasPrice(ctx context.Context) (*big.Int, error) {
	if p := a.GasPrice(); p != nil {
		return p, nil
	}
	status, err := a.GetNetworkStatus(ctx)
	if err != nil {
		return nil, err
	}
	return status.GasPrice, nil
}

// GetTokenBalance returns the balance of the listed token with symbol, nil
// when no such token is listed on this chain.
func (a *EvmAccount) GetTokenBalance(ctx context.Context, symbol string) (*big.Int, error) {
	t, ok := a.tokens.BySymbol(a.network.ChainID, symbol)
	if !ok {
		return nil, nil
	}
	return a.indexer.GetTokenBalance(ctx, a.address.Hex(), t.Address)
}

type rawRow struct {
	contract string
	balance  *big.Int
	native   bool
}

// QueryBalances lists the native currency first, then every listed token
// with a non-zero balance, each priced in USD when a price is known.
func (a *EvmAccount) QueryBalances(ctx context.Context) ([]TokenBalance, error) {
	owner := a.address.Hex()
	stables := []string{a.network.USDC, a.network.USDT, a.network.USD}

	var (
		native    *big.Int
		indexed   []api.RawBalance
		stableBal = make([]*big.Int, len(stables))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := a.provider.BalanceAt(gctx, a.address, nil)
		if err != nil {
			return fmt.Errorf("failed to get native balance: %w", err)
		}
		native = b
		return nil
	})
	g.Go(func() error {
		b, err := a.indexer.GetTokenBalances(gctx, owner)
		if err != nil {
			return err
		}
		indexed = b
		return nil
	})
	for i, addr := range stables {
		if addr == "" {
			continue
		}
		i, addr := i, addr
		g.Go(func() error {
			b, err := a.indexer.GetTokenBalance(gctx, owner, addr)
			if err != nil {
				return err
			}
			stableBal[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := []rawRow{{contract: a.network.WrappedAsset, balance: native, native: true}}
	seen := map[string]bool{}
	for _, b := range indexed {
		rows = append(rows, rawRow{contract: b.ContractAddress, balance: b.Balance})
		seen[strings.ToLower(b.ContractAddress)] = true
	}
	for i, addr := range stables {
		if addr == "" || stableBal[i] == nil || seen[strings.ToLower(addr)] {
			continue
		}
		rows = append(rows, rawRow{contract: addr, balance: stableBal[i]})
		seen[strings.ToLower(addr)] = true
	}

	balances := make([]TokenBalance, 0, len(rows))
	for _, r := range rows {
		t, ok := a.tokens.ByAddress(a.network.ChainID, r.contract)
		if !ok {
			continue
		}
		raw := r.balance
		if raw == nil {
			raw = new(big.Int)
		}
		bal := chains.FormatUnits(raw, t.Decimals)
		if !r.native && bal.IsZero() {
			continue
		}
		balances = append(balances, TokenBalance{
			Symbol:     t.Symbol,
			Name:       t.Name,
			Address:    t.Address,
			Decimals:   t.Decimals,
			LogoURI:    t.LogoURI,
			ChainID:    a.network.ChainID,
			Native:     r.native,
			RawBalance: raw,
			Balance:    bal,
		})
	}

	if err := a.price(ctx, balances); err != nil {
		return nil, err
	}

	for i := range balances {
		if balances[i].Native {
			unwrap(&balances[i], a.network)
		}
	}

	log.ExtractLogger(ctx).Debugw("queried balances", "network", a.network.Key, "rows", len(balances))
	return balances, nil
}

func (a *EvmAccount) price(ctx context.Context, balances []TokenBalance) error {
	if len(balances) == 0 {
		return nil
	}
	addresses := make([]string, 0, len(balances))
	for _, b := range balances {
		addresses = append(addresses, b.Address)
	}

	prices, err := a.prices.ByAddress(ctx, a.network.NetworkID, addresses)
	if err != nil {
		return err
	}

	byAddress := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		if usd, ok := p.USD(); ok {
			byAddress[strings.ToLower(p.Address)] = usd
		}
	}
	for i := range balances {
		if usd, ok := byAddress[strings.ToLower(balances[i].Address)]; ok {
			setPrice(&balances[i], usd)
		}
	}
	return nil
}

func setPrice(b *TokenBalance, usd decimal.Decimal) {
	b.Price = decimal.NewNullDecimal(usd)
	b.Quote = decimal.NewNullDecimal(b.Balance.Mul(usd))
}

// unwrap turns the wrapped asset row into the native currency row:
// "Wrapped Ether"/WETH becomes "Ether"/ETH.
func unwrap(b *TokenBalance, n networks.Network) {
	b.Address = "0x"
	if words := strings.Fields(b.Name); len(words) > 1 {
		b.Name = words[1]
	}
	if len(b.Symbol) > 1 {
		b.Symbol = b.Symbol[1:]
	} else {
		b.Symbol = n.NativeSymbol
	}
}

// QueryTokenHistory returns the latest transfers of token, or of the
// native currency when token is empty, newest first. Values the indexer
// does not report are derived from the raw amount and decimals.
func (a *EvmAccount) QueryTokenHistory(ctx context.Context, token string, decimals, maxCount int) ([]Transfer, error) {
	if maxCount <= 0 {
		maxCount = DefaultHistoryCount
	}

	base := api.AssetTransfersParams{
		Category:         []string{api.CategoryExternal},
		Order:            "desc",
		WithMetadata:     true,
		ExcludeZeroValue: true,
		MaxCount:         api.MaxCount(maxCount),
	}
	if token != "" && token != "0x" {
		if !evm.IsAddress(token) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, token)
		}
		base.Category = []string{api.CategoryERC20}
		base.ContractAddresses = []string{token}
	}

	received, sent := base, base
	received.ToAddress = a.address.Hex()
	sent.FromAddress = a.address.Hex()

	var in, out []api.AssetTransfer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in, err = a.indexer.GetAssetTransfers(gctx, received)
		return err
	})
	g.Go(func() (err error) {
		out, err = a.indexer.GetAssetTransfers(gctx, sent)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := append(in, out...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].BlockNumber() > all[j].BlockNumber()
	})
	if len(all) > maxCount {
		all = all[:maxCount]
	}

	transfers := make([]Transfer, 0, len(all))
	for _, t := range all {
		value := t.Value.Decimal
		if !t.Value.Valid {
			value = chains.FormatUnits(t.RawValue(), decimals)
		}
		ts, _ := time.Parse(time.RFC3339, t.Metadata.BlockTimestamp)
		transfers = append(transfers, Transfer{
			Hash:           t.Hash,
			From:           t.From,
			To:             t.To,
			Value:          value,
			BlockNum:       t.BlockNumber(),
			BlockTimestamp: ts,
		})
	}
	return transfers, nil
}

// IsActivated only validates address, every EVM address can receive.
func (a *EvmAccount) IsActivated(_ context.Context, address string) (bool, error) {
	if !evm.IsAddress(address) {
		return false, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return true, nil
}

// PopulateTransferToken builds a transfer of value to to. An empty token
// sends the native currency, otherwise the ERC20 transfer call is encoded
// against the token contract.
func (a *EvmAccount) PopulateTransferToken(_ context.Context, token, to string, value *big.Int) (*Draft, error) {
	recipient, err := evm.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, to)
	}
	if value == nil || value.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	if token == "" || token == "0x" {
		return &Draft{
			From:      a.address.Hex(),
			Recipient: recipient.Hex(),
			Amount:    new(big.Int).Set(value),
			To:        recipient.Hex(),
			Value:     new(big.Int).Set(value),
		}, nil
	}

	contract, err := evm.ParseAddress(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, token)
	}
	data, err := evm.TransferData(recipient, value)
	if err != nil {
		return nil, err
	}
	return &Draft{
		From:      a.address.Hex(),
		Recipient: recipient.Hex(),
		Token:     contract.Hex(),
		Amount:    new(big.Int).Set(value),
		To:        contract.Hex(),
		Value:     new(big.Int),
		Data:      data,
	}, nil
}

func (a *EvmAccount) callMsg(d *Draft) (ethereum.CallMsg, error) {
	from := a.address
	if d.From != "" {
		f, err := evm.ParseAddress(d.From)
		if err != nil {
			return ethereum.CallMsg{}, fmt.Errorf("%w: %s", ErrInvalidAddress, d.From)
		}
		from = f
	}
	to, err := evm.ParseAddress(d.To)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("%w: %s", ErrInvalidAddress, d.To)
	}
	return ethereum.CallMsg{From: from, To: &to, Value: d.Value, Data: d.Data}, nil
}

// EstimateGas estimates the gas of draft, from the account address when
// the draft has none. The fee uses the draft gas price, or the last known
// one.
func (a *EvmAccount) EstimateGas(ctx context.Context, d *Draft) (*Estimate, error) {
	msg, err := a.callMsg(d)
	if err != nil {
		return nil, err
	}
	gas, err := a.provider.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	price := d.GasPrice
	if price == nil {
		if price, err = a.currentGasPrice(ctx); err != nil {
			return nil, err
		}
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	return &Estimate{Gas: gas, GasPrice: new(big.Int).Set(price), Fee: fee}, nil
}

// Execute signs and sends draft and waits for it to be mined. On the
// walletconnect network the connected wallet signs and sends instead.
func (a *EvmAccount) Execute(ctx context.Context, d *Draft) (*Receipt, error) {
	var (
		hash common.Hash
		err  error
	)
	if a.network.IsWalletConnect() {
		hash, err = a.sendRemote(ctx, d)
	} else {
		hash, err = a.sendLocal(ctx, d)
	}
	if err != nil {
		return nil, err
	}

	logger := log.ExtractLogger(ctx).With("network", a.network.Key, "hash", hash.Hex())
	logger.Infow("transaction sent")

	r, err := evm.WaitMined(ctx, a.provider, hash, a.poll)
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{
		Hash:        hash.Hex(),
		BlockNumber: r.BlockNumber.Uint64(),
		Status:      r.Status,
		GasUsed:     r.GasUsed,
	}
	if r.Status != types.ReceiptStatusSuccessful {
		logger.Warnw("transaction reverted", "block", receipt.BlockNumber)
		return receipt, ErrReverted
	}
	return receipt, nil
}

func (a *EvmAccount) sendLocal(ctx context.Context, d *Draft) (common.Hash, error) {
	msg, err := a.callMsg(d)
	if err != nil {
		return common.Hash{}, err
	}
	value := d.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := a.provider.PendingNonceAt(ctx, a.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	price := d.GasPrice
	if price == nil {
		if price, err = a.provider.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	limit := d.GasLimit
	if limit == 0 {
		if limit, err = a.provider.EstimateGas(ctx, msg); err != nil {
			return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	tx := evm.NewTransaction(nonce, *msg.To, value, limit, price, d.Data)
	if err := evm.ValidateTransaction(tx); err != nil {
		return common.Hash{}, err
	}
	signed, err := evm.SignTransaction(tx, big.NewInt(a.network.ChainID), a.key)
	if err != nil {
		return common.Hash{}, err
	}
	if err := a.provider.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed.Hash(), nil
}

func (a *EvmAccount) sendRemote(ctx context.Context, d *Draft) (common.Hash, error) {
	if !a.remote.Connected() {
		return common.Hash{}, ErrNotConnected
	}
	if chainID := a.remote.ChainID(); chainID != a.network.ChainID {
		return common.Hash{}, fmt.Errorf("%w: wallet chain %d, expected %d", ErrWrongChain, chainID, a.network.ChainID)
	}

	from := a.address.Hex()
	if accounts := a.remote.Accounts(); len(accounts) > 0 {
		from = accounts[0]
	}
	params := walletconnect.TxParams{From: from, To: d.To}
	if d.Value != nil {
		params.Value = hexutil.EncodeBig(d.Value)
	}
	if len(d.Data) > 0 {
		params.Data = hexutil.Encode(d.Data)
	}
	if d.GasLimit > 0 {
		params.Gas = hexutil.EncodeUint64(d.GasLimit)
	}
	if d.GasPrice != nil {
		params.GasPrice = hexutil.EncodeBig(d.GasPrice)
	}

	hash, err := a.remote.SendTransaction(ctx, params)
	if err != nil {
		return common.Hash{}, err
	}
	if !strings.HasPrefix(hash, "0x") || len(hash) != 66 {
		return common.Hash{}, fmt.Errorf("wallet returned invalid transaction hash %q", hash)
	}
	return common.HexToHash(hash), nil
}

// ConnectWalletConnect starts a session with an external wallet and
// returns the pairing URI. It is empty when a session is already live.
func (a *EvmAccount) ConnectWalletConnect(ctx context.Context) (string, error) {
	if a.remote == nil {
		return "", fmt.Errorf("%s does not use walletconnect", a.network.Key)
	}
	if a.remote.Connected() {
		return "", nil
	}
	return a.remote.CreateSession(ctx)
}

// WaitForWallet blocks until the external wallet approves the session.
func (a *EvmAccount) WaitForWallet(ctx context.Context) error {
	if a.remote == nil {
		return fmt.Errorf("%s does not use walletconnect", a.network.Key)
	}
	return a.remote.WaitForApproval(ctx)
}
