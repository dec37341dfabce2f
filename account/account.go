// Package account is the per-network facade the CLI and the JSON API work
// against. An Account hides which node, indexer, pricing service and signer
// serve a network.
package account

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chinmay1088/bucks/chains/tron"
	"github.com/chinmay1088/bucks/networks"
)

// DefaultHistoryCount is the number of transfers QueryTokenHistory returns
// when no limit is given.
const DefaultHistoryCount = 5

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrUnknownToken   = errors.New("unknown token")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNotActivated   = errors.New("recipient account is not activated")
	ErrNotConnected   = errors.New("walletconnect session is not connected")
	ErrWrongChain     = errors.New("connected wallet is on another chain")
	ErrReverted       = errors.New("transaction reverted")
)

// Account is one wallet address on one network.
type Account interface {
	Network() networks.Network
	Address() string
	Activated() bool

	IsAddress(value string) bool
	LinkOfAddress(address string) string
	LinkOfContract(address string) string
	LinkOfTransaction(hash string) string

	GetNetworkStatus(ctx context.Context) (*NetworkStatus, error)
	QueryBalances(ctx context.Context) ([]TokenBalance, error)
	QueryTokenHistory(ctx context.Context, token string, decimals, maxCount int) ([]Transfer, error)
	IsActivated(ctx context.Context, address string) (bool, error)

	PopulateTransferToken(ctx context.Context, token, to string, value *big.Int) (*Draft, error)
	EstimateGas(ctx context.Context, draft *Draft) (*Estimate, error)
	Execute(ctx context.Context, draft *Draft) (*Receipt, error)
}

// NetworkStatus is what GetNetworkStatus refreshed.
type NetworkStatus struct {
	// GasPrice in wei, EVM only.
	GasPrice *big.Int `json:"gasPrice,omitempty"`

	// Bandwidth and Energy left on the account, TRON only.
	Bandwidth int64 `json:"bandwidth,omitempty"`
	Energy    int64 `json:"energy,omitempty"`

	Activated bool `json:"activated"`
}

// TokenBalance is one row of the balance list. Price and Quote are null
// when no price is known.
type TokenBalance struct {
	Symbol     string              `json:"symbol"`
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Decimals   int                 `json:"decimals"`
	LogoURI    string              `json:"logoURI,omitempty"`
	ChainID    int64               `json:"chainId"`
	Native     bool                `json:"native"`
	RawBalance *big.Int            `json:"rawBalance"`
	Balance    decimal.Decimal     `json:"balance"`
	Price      decimal.NullDecimal `json:"price"`
	Quote      decimal.NullDecimal `json:"quote"`
}

// Transfer is one history row.
type Transfer struct {
	Hash           string          `json:"hash"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	Value          decimal.Decimal `json:"value"`
	BlockNum       uint64          `json:"blockNum,omitempty"`
	BlockTimestamp time.Time       `json:"blockTimestamp"`
}

// Draft is a transfer that was built but not signed yet.
type Draft struct {
	From      string `json:"from"`
	Recipient string `json:"recipient"`
	// Token is the contract address, empty for the native currency.
	Token  string   `json:"token,omitempty"`
	Amount *big.Int `json:"amount"`

	// To, Value and Data are the EVM call: the token contract with zero
	// value for token transfers.
	To       string   `json:"to"`
	Value    *big.Int `json:"value,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	GasPrice *big.Int `json:"gasPrice,omitempty"`
	GasLimit uint64   `json:"gasLimit,omitempty"`

	// Tron is the node-built unsigned transaction.
	Tron *tron.Transaction `json:"tron,omitempty"`
}

// Native reports whether the draft moves the native currency.
func (d *Draft) Native() bool {
	return d.Token == ""
}

// Estimate is the expected cost of a draft. Fee is in the smallest native
// unit (wei or sun).
type Estimate struct {
	Gas      uint64   `json:"gas,omitempty"`
	GasPrice *big.Int `json:"gasPrice,omitempty"`

	Bandwidth int64 `json:"bandwidth,omitempty"`
	Energy    int64 `json:"energy,omitempty"`

	// Burn is true when the account's free and staked resources do not
	// cover the transaction and TRX will be burnt.
	Burn bool     `json:"burn,omitempty"`
	Fee  *big.Int `json:"fee"`
}

// Receipt is the outcome of Execute.
type Receipt struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Status      uint64 `json:"status"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
}

// Receipt statuses
const (
	StatusFailed  uint64 = 0
	StatusSuccess uint64 = 1
	// StatusPending is reported for transactions that were broadcast but
	// not waited for.
	StatusPending uint64 = 2
)
