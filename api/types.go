package api

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chinmay1088/bucks/chains/tron"
)

// RawBalance is one ERC20 balance reported by the indexer.
type RawBalance struct {
	ContractAddress string
	Balance         *big.Int
}

type tokenBalancesResult struct {
	Address       string `json:"address"`
	TokenBalances []struct {
		ContractAddress string  `json:"contractAddress"`
		TokenBalance    *string `json:"tokenBalance"`
		Error           *string `json:"error"`
	} `json:"tokenBalances"`
	PageKey string `json:"pageKey,omitempty"`
}

// Asset transfer categories
const (
	CategoryExternal = "external"
	CategoryERC20    = "erc20"
)

// AssetTransfersParams is the filter of alchemy_getAssetTransfers.
type AssetTransfersParams struct {
	FromBlock         string   `json:"fromBlock,omitempty"`
	ToBlock           string   `json:"toBlock,omitempty"`
	FromAddress       string   `json:"fromAddress,omitempty"`
	ToAddress         string   `json:"toAddress,omitempty"`
	ContractAddresses []string `json:"contractAddresses,omitempty"`
	Category          []string `json:"category"`
	Order             string   `json:"order,omitempty"`
	WithMetadata      bool     `json:"withMetadata"`
	ExcludeZeroValue  bool     `json:"excludeZeroValue"`
	MaxCount          string   `json:"maxCount,omitempty"`
	PageKey           string   `json:"pageKey,omitempty"`
}

// AssetTransfer is one row of alchemy_getAssetTransfers.
type AssetTransfer struct {
	BlockNum    string              `json:"blockNum"`
	UniqueID    string              `json:"uniqueId"`
	Hash        string              `json:"hash"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Value       decimal.NullDecimal `json:"value"`
	Asset       string              `json:"asset"`
	Category    string              `json:"category"`
	RawContract struct {
		Value   string `json:"value"`
		Address string `json:"address"`
		Decimal string `json:"decimal"`
	} `json:"rawContract"`
	Metadata struct {
		BlockTimestamp string `json:"blockTimestamp"`
	} `json:"metadata"`
}

// BlockNumber parses the hex block number, 0 when malformed.
func (t AssetTransfer) BlockNumber() uint64 {
	n, _ := parseHexInt(t.BlockNum)
	return n
}

// RawValue parses rawContract.value, nil when absent.
func (t AssetTransfer) RawValue() *big.Int {
	if t.RawContract.Value == "" {
		return nil
	}
	v, err := parseHexBigInt(t.RawContract.Value)
	if err != nil {
		return nil
	}
	return v
}

type assetTransfersResult struct {
	Transfers []AssetTransfer `json:"transfers"`
	PageKey   string          `json:"pageKey,omitempty"`
}

// Price is one quote of a token.
type Price struct {
	Currency      string          `json:"currency"`
	Value         decimal.Decimal `json:"value"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// TokenPrice is the price entry of one token, by address or by symbol.
type TokenPrice struct {
	Network string  `json:"network,omitempty"`
	Address string  `json:"address,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
	Prices  []Price `json:"prices"`
	Error   *string `json:"error,omitempty"`
}

// USD returns the first quoted price.
func (p TokenPrice) USD() (decimal.Decimal, bool) {
	if len(p.Prices) == 0 {
		return decimal.Zero, false
	}
	return p.Prices[0].Value, true
}

// PriceAddress identifies a token for the prices API.
type PriceAddress struct {
	Network string `json:"network"`
	Address string `json:"address"`
}

type pricesByAddressRequest struct {
	Addresses []PriceAddress `json:"addresses"`
}

type pricesResponse struct {
	Data []TokenPrice `json:"data"`
}

type pricesBySymbolQuery struct {
	Symbols []string `url:"symbols"`
}

// TronAccount is the getaccount response. An account that was never
// activated comes back as an empty object.
type TronAccount struct {
	Address    string `json:"address"`
	Balance    int64  `json:"balance"`
	CreateTime int64  `json:"create_time"`
}

// Exists reports whether the account is activated on chain.
func (a *TronAccount) Exists() bool {
	return a != nil && a.Address != ""
}

// TronAccountInfo is the TRX and TRC20 holdings of an account.
type TronAccountInfo struct {
	Address   string
	Activated bool
	Balance   *big.Int
	TRC20     map[string]*big.Int
}

type tronAccountsResponse struct {
	Data []struct {
		Address string              `json:"address"`
		Balance int64               `json:"balance"`
		TRC20   []map[string]string `json:"trc20"`
	} `json:"data"`
	Success bool `json:"success"`
}

// AccountResource is the getaccountresource response.
type AccountResource struct {
	FreeNetUsed  int64 `json:"freeNetUsed"`
	FreeNetLimit int64 `json:"freeNetLimit"`
	NetUsed      int64 `json:"NetUsed"`
	NetLimit     int64 `json:"NetLimit"`
	EnergyUsed   int64 `json:"EnergyUsed"`
	EnergyLimit  int64 `json:"EnergyLimit"`
}

// AvailableBandwidth is the free plus staked bandwidth left.
func (r *AccountResource) AvailableBandwidth() int64 {
	return nonNegative(r.FreeNetLimit-r.FreeNetUsed) + nonNegative(r.NetLimit-r.NetUsed)
}

// AvailableEnergy is the staked energy left.
func (r *AccountResource) AvailableEnergy() int64 {
	return nonNegative(r.EnergyLimit - r.EnergyUsed)
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// ChainParameters holds the getchainparameters values by key.
type ChainParameters map[string]int64

// TransactionFee is the sun burnt per bandwidth point.
func (p ChainParameters) TransactionFee() int64 {
	if v, ok := p["getTransactionFee"]; ok && v > 0 {
		return v
	}
	return defaultTransactionFee
}

// EnergyFee is the sun burnt per energy unit.
func (p ChainParameters) EnergyFee() int64 {
	if v, ok := p["getEnergyFee"]; ok && v > 0 {
		return v
	}
	return defaultEnergyFee
}

// AccountCreationFee is the sun burnt when a transfer activates a new
// account.
func (p ChainParameters) AccountCreationFee() int64 {
	create, ok := p["getCreateAccountFee"]
	if !ok || create <= 0 {
		create = defaultCreateAccount
	}
	system, ok := p["getCreateNewAccountFeeInSystemContract"]
	if !ok || system <= 0 {
		system = defaultNewAccountFee
	}
	return create + system
}

type chainParametersResponse struct {
	ChainParameter []struct {
		Key   string `json:"key"`
		Value int64  `json:"value"`
	} `json:"chainParameter"`
}

// TriggerRequest calls a contract method through triggersmartcontract or
// triggerconstantcontract.
type TriggerRequest struct {
	OwnerAddress     string `json:"owner_address"`
	ContractAddress  string `json:"contract_address"`
	FunctionSelector string `json:"function_selector"`
	Parameter        string `json:"parameter"`
	FeeLimit         int64  `json:"fee_limit,omitempty"`
	CallValue        int64  `json:"call_value,omitempty"`
	Visible          bool   `json:"visible"`
}

type tronReturn struct {
	Result  bool   `json:"result"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type triggerResponse struct {
	Result      tronReturn        `json:"result"`
	Transaction *tron.Transaction `json:"transaction"`
}

// ConstantResult is the triggerconstantcontract response.
type ConstantResult struct {
	Result         tronReturn `json:"result"`
	EnergyUsed     int64      `json:"energy_used"`
	ConstantResult []string   `json:"constant_result"`
}

type createTransactionRequest struct {
	OwnerAddress string `json:"owner_address"`
	ToAddress    string `json:"to_address"`
	Amount       int64  `json:"amount"`
	Visible      bool   `json:"visible"`
}

// BroadcastResult is the broadcasttransaction response.
type BroadcastResult struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TRC20TransfersQuery filters /v1/accounts/{address}/transactions/trc20.
type TRC20TransfersQuery struct {
	ContractAddress string `url:"contract_address,omitempty"`
	Limit           int    `url:"limit,omitempty"`
	OnlyConfirmed   bool   `url:"only_confirmed,omitempty"`
	OrderBy         string `url:"order_by,omitempty"`
}

// TRC20Transfer is one TRC20 transfer event.
type TRC20Transfer struct {
	TransactionID  string `json:"transaction_id"`
	BlockTimestamp int64  `json:"block_timestamp"`
	From           string `json:"from"`
	To             string `json:"to"`
	Type           string `json:"type"`
	Value          string `json:"value"`
	TokenInfo      struct {
		Symbol   string `json:"symbol"`
		Address  string `json:"address"`
		Decimals int    `json:"decimals"`
		Name     string `json:"name"`
	} `json:"token_info"`
}

type trc20TransfersResponse struct {
	Data    []TRC20Transfer `json:"data"`
	Success bool            `json:"success"`
}
