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

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/chains/tron"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/tokens"
)

// TronNode is the TronGrid access of a TronAccount. *api.TronGrid
// satisfies it.
type TronNode interface {
	GetAccount(ctx context.Context, address string) (*api.TronAccount, error)
	GetAccountInfo(ctx context.Context, address string) (*api.TronAccountInfo, error)
	GetAccountResource(ctx context.Context, address string) (*api.AccountResource, error)
	GetChainParameters(ctx context.Context) (api.ChainParameters, error)
	CreateTransaction(ctx context.Context, owner, to string, amount int64) (*tron.Transaction, error)
	TriggerSmartContract(ctx context.Context, req api.TriggerRequest) (*tron.Transaction, error)
	TriggerConstantContract(ctx context.Context, req api.TriggerRequest) (*api.ConstantResult, error)
	BroadcastTransaction(ctx context.Context, tx *tron.Transaction) (*api.BroadcastResult, error)
	GetTRC20Transfers(ctx context.Context, address string, q api.TRC20TransfersQuery) ([]api.TRC20Transfer, error)
}

// TronDeps are the services a TronAccount is built on.
type TronDeps struct {
	Node   TronNode
	Prices PriceSource
	Tokens *tokens.List

	// FeeLimit caps the TRX (sun) a contract call may burn.
	FeeLimit int64
}

// TronAccount is an account on TRON mainnet.
type TronAccount struct {
	network  networks.Network
	key      *ecdsa.PrivateKey
	address  tron.Address
	node     TronNode
	prices   PriceSource
	tokens   *tokens.List
	feeLimit int64

	mu        sync.Mutex
	activated bool
}

var _ Account = (*TronAccount)(nil)

// NewTronAccount creates the account of key on network.
func NewTronAccount(network networks.Network, key *ecdsa.PrivateKey, deps TronDeps) (*TronAccount, error) {
	if network.Kind != networks.KindTron {
		return nil, fmt.Errorf("%s is not a tron network", network.Key)
	}
	if key == nil {
		return nil, fmt.Errorf("no signing key for %s", network.Key)
	}
	if deps.Node == nil || deps.Prices == nil {
		return nil, fmt.Errorf("incomplete services for %s", network.Key)
	}
	if deps.FeeLimit <= 0 {
		return nil, fmt.Errorf("fee limit must be positive, got %d", deps.FeeLimit)
	}
	if deps.Tokens == nil {
		deps.Tokens = tokens.Default()
	}

	return &TronAccount{
		network:  network,
		key:      key,
		address:  tron.PubkeyToAddress(key.PublicKey),
		node:     deps.Node,
		prices:   deps.Prices,
		tokens:   deps.Tokens,
		feeLimit: deps.FeeLimit,
	}, nil
}

func (a *TronAccount) Network() networks.Network { return a.network }

func (a *TronAccount) Address() string { return a.address.String() }

// Activated is whether the account existed on chain at the last status or
// balance refresh.
func (a *TronAccount) Activated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activated
}

func (a *TronAccount) setActivated(v bool) {
	a.mu.Lock()
	a.activated = v
	a.mu.Unlock()
}

func (a *TronAccount) IsAddress(value string) bool {
	return tron.IsAddress(value)
}

func (a *TronAccount) LinkOfAddress(address string) string {
	return a.network.Scanner + "/address/" + address
}

func (a *TronAccount) LinkOfContract(address string) string {
	return a.network.Scanner + "/contract/" + address
}

func (a *TronAccount) LinkOfTransaction(hash string) string {
	return a.network.Scanner + "/transaction/" + hash
}

// GetNetworkStatus refreshes activation and the resources left.
func (a *TronAccount) GetNetworkStatus(ctx context.Context) (*NetworkStatus, error) {
	var (
		acc *api.TronAccount
		res *api.AccountResource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		acc, err = a.node.GetAccount(gctx, a.Address())
		return err
	})
	g.Go(func() (err error) {
		res, err = a.node.GetAccountResource(gctx, a.Address())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.setActivated(acc.Exists())
	return &NetworkStatus{
		Bandwidth: res.AvailableBandwidth(),
		Energy:    res.AvailableEnergy(),
		Activated: acc.Exists(),
	}, nil
}

// QueryBalances lists TRX first, then every listed TRC20 token with a
// non-zero balance, sorted by symbol and priced in USD when known.
func (a *TronAccount) QueryBalances(ctx context.Context) ([]TokenBalance, error) {
	info, err := a.node.GetAccountInfo(ctx, a.Address())
	if err != nil {
		return nil, err
	}
	a.setActivated(info.Activated)

	balances := []TokenBalance{{
		Symbol:     a.network.NativeSymbol,
		Name:       a.network.Name,
		Decimals:   a.network.NativeDecimals,
		ChainID:    a.network.ChainID,
		Native:     true,
		RawBalance: info.Balance,
		Balance:    chains.FormatUnits(info.Balance, a.network.NativeDecimals),
	}}

	var trc20 []TokenBalance
	for contract, raw := range info.TRC20 {
		t, ok := a.tokens.ByAddress(a.network.ChainID, contract)
		if !ok {
			continue
		}
		bal := chains.FormatUnits(raw, t.Decimals)
		if bal.IsZero() {
			continue
		}
		trc20 = append(trc20, TokenBalance{
			Symbol:     t.Symbol,
			Name:       t.Name,
			Address:    t.Address,
			Decimals:   t.Decimals,
			LogoURI:    t.LogoURI,
			ChainID:    a.network.ChainID,
			RawBalance: raw,
			Balance:    bal,
		})
	}
	sort.Slice(trc20, func(i, j int) bool { return trc20[i].Symbol < trc20[j].Symbol })
	balances = append(balances, trc20...)

	if err := a.price(ctx, balances); err != nil {
		return nil, err
	}

	log.ExtractLogger(ctx).Debugw("queried balances", "network", a.network.Key, "rows", len(balances), "activated", info.Activated)
	return balances, nil
}

func (a *TronAccount) price(ctx context.Context, balances []TokenBalance) error {
	symbols := make([]string, 0, len(balances))
	for _, b := range balances {
		symbols = append(symbols, b.Symbol)
	}

	prices, err := a.prices.BySymbol(ctx, symbols)
	if err != nil {
		return err
	}

	bySymbol := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		if usd, ok := p.USD(); ok {
			bySymbol[strings.ToUpper(p.Symbol)] = usd
		}
	}
	for i := range balances {
		if usd, ok := bySymbol[strings.ToUpper(balances[i].Symbol)]; ok {
			setPrice(&balances[i], usd)
		}
	}
	return nil
}

// QueryTokenHistory returns the latest TRC20 transfers of token, newest
// first. TRX transfers are not indexed and an empty token returns nothing.
func (a *TronAccount) QueryTokenHistory(ctx context.Context, token string, decimals, maxCount int) ([]Transfer, error) {
	if token == "" {
		return []Transfer{}, nil
	}
	if !tron.IsAddress(token) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, token)
	}
	if maxCount <= 0 {
		maxCount = DefaultHistoryCount
	}

	rows, err := a.node.GetTRC20Transfers(ctx, a.Address(), api.TRC20TransfersQuery{
		ContractAddress: token,
		Limit:           maxCount,
		OrderBy:         "block_timestamp,desc",
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].BlockTimestamp > rows[j].BlockTimestamp
	})
	if len(rows) > maxCount {
		rows = rows[:maxCount]
	}

	transfers := make([]Transfer, 0, len(rows))
	for _, r := range rows {
		d := decimals
		if d <= 0 {
			d = r.TokenInfo.Decimals
		}
		raw, ok := new(big.Int).SetString(r.Value, 10)
		if !ok {
			raw = new(big.Int)
		}
		transfers = append(transfers, Transfer{
			Hash:           r.TransactionID,
			From:           r.From,
			To:             r.To,
			Value:          chains.FormatUnits(raw, d),
			BlockTimestamp: time.UnixMilli(r.BlockTimestamp).UTC(),
		})
	}
	return transfers, nil
}

// IsActivated reports whether address exists on chain.
func (a *TronAccount) IsActivated(ctx context.Context, address string) (bool, error) {
	if !tron.IsAddress(address) {
		return false, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	acc, err := a.node.GetAccount(ctx, address)
	if err != nil {
		return false, err
	}
	return acc.Exists(), nil
}

func (a *TronAccount) transferCall(token string, to tron.Address, value *big.Int) (api.TriggerRequest, error) {
	param, err := tron.TransferParameter(to, value)
	if err != nil {
		return api.TriggerRequest{}, err
	}
	return api.TriggerRequest{
		OwnerAddress:     a.Address(),
		ContractAddress:  token,
		FunctionSelector: tron.TransferSelector,
		Parameter:        param,
		FeeLimit:         a.feeLimit,
	}, nil
}

// PopulateTransferToken has the node build an unsigned transfer of value
// to to. TRX may be sent to an account that does not exist yet, which
// activates it. TRC20 tokens may not.
func (a *TronAccount) PopulateTransferToken(ctx context.Context, token, to string, value *big.Int) (*Draft, error) {
	recipient, err := tron.Decode(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, to)
	}
	if value == nil || value.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	d := &Draft{
		From:      a.Address(),
		Recipient: recipient.String(),
		Amount:    new(big.Int).Set(value),
		To:        recipient.String(),
	}

	if token == "" {
		if !value.IsInt64() {
			return nil, ErrInvalidAmount
		}
		tx, err := a.node.CreateTransaction(ctx, a.Address(), recipient.String(), value.Int64())
		if err != nil {
			return nil, err
		}
		d.Value = new(big.Int).Set(value)
		d.Tron = tx
		return d, nil
	}

	if !tron.IsAddress(token) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, token)
	}
	activated, err := a.IsActivated(ctx, recipient.String())
	if err != nil {
		return nil, err
	}
	if !activated {
		return nil, fmt.Errorf("%w: %s", ErrNotActivated, recipient)
	}

	req, err := a.transferCall(token, recipient, value)
	if err != nil {
		return nil, err
	}
	tx, err := a.node.TriggerSmartContract(ctx, req)
	if err != nil {
		return nil, err
	}
	d.Token = token
	d.To = token
	d.Value = new(big.Int)
	d.Tron = tx
	return d, nil
}

// EstimateGas returns the bandwidth and energy of draft and the TRX it
// would burn beyond what the account's free and staked resources cover.
func (a *TronAccount) EstimateGas(ctx context.Context, d *Draft) (*Estimate, error) {
	if d.Tron == nil {
		return nil, fmt.Errorf("draft has no transaction to estimate")
	}
	from := d.From
	if from == "" {
		from = a.Address()
	}

	est := &Estimate{Bandwidth: tron.EstimateBandwidth(d.Tron)}

	var (
		res        *api.AccountResource
		params     api.ChainParameters
		newAccount bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res, err = a.node.GetAccountResource(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		params, err = a.node.GetChainParameters(gctx)
		return err
	})
	if d.Native() {
		g.Go(func() error {
			ok, err := a.IsActivated(gctx, d.Recipient)
			newAccount = !ok
			return err
		})
	} else {
		g.Go(func() error {
			to, err := tron.Decode(d.Recipient)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidAddress, d.Recipient)
			}
			req, err := a.transferCall(d.Token, to, d.Amount)
			if err != nil {
				return err
			}
			req.OwnerAddress = from
			r, err := a.node.TriggerConstantContract(gctx, req)
			if err != nil {
				return err
			}
			est.Energy = r.EnergyUsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fee := int64(0)
	if est.Bandwidth > res.AvailableBandwidth() {
		fee += est.Bandwidth * params.TransactionFee()
	}
	if short := est.Energy - res.AvailableEnergy(); short > 0 {
		fee += short * params.EnergyFee()
	}
	if newAccount {
		fee += params.AccountCreationFee()
	}
	est.Fee = big.NewInt(fee)
	est.Burn = fee > 0
	return est, nil
}

// Execute signs and broadcasts draft. It does not wait for confirmation,
// the receipt carries the transaction id with a pending status. The draft
// itself stays unsigned, so a failed broadcast can be retried.
func (a *TronAccount) Execute(ctx context.Context, d *Draft) (*Receipt, error) {
	if d.Tron == nil {
		return nil, fmt.Errorf("draft has no transaction to execute")
	}
	tx := *d.Tron
	tx.Signature = nil
	if err := tx.Sign(a.key); err != nil {
		return nil, err
	}
	res, err := a.node.BroadcastTransaction(ctx, &tx)
	if err != nil {
		return nil, err
	}
	log.ExtractLogger(ctx).Infow("transaction broadcast", "network", a.network.Key, "txid", res.TxID)
	return &Receipt{Hash: res.TxID, Status: StatusPending}, nil
}
