package api

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/chinmay1088/bucks/chains/tron"
)

// TronGrid is the TRON node and indexer client.
type TronGrid struct {
	client  *Client
	baseURL string
}

// NewTronGrid creates a TronGrid client. The api key is optional.
func NewTronGrid(baseURL, apiKey string, httpClient *http.Client) *TronGrid {
	c := NewClient(UpstreamTronGrid, httpClient)
	if apiKey != "" {
		c.SetHeader(tronAPIKeyHeader, apiKey)
	}
	return &TronGrid{client: c, baseURL: strings.TrimRight(baseURL, "/")}
}

func (t *TronGrid) post(ctx context.Context, path string, payload, out interface{}) error {
	return t.client.postJSON(ctx, path, t.baseURL+"/wallet/"+path, payload, out)
}

// decodeMessage turns the hex encoded messages of the wallet endpoints into
// text.
func decodeMessage(msg string) string {
	if b, err := hex.DecodeString(msg); err == nil && len(b) > 0 {
		return string(b)
	}
	return msg
}

// GetAccount returns the on-chain account. Exists is false for accounts that
// were never activated.
func (t *TronGrid) GetAccount(ctx context.Context, address string) (*TronAccount, error) {
	var acc TronAccount
	payload := map[string]interface{}{"address": address, "visible": true}
	if err := t.post(ctx, "getaccount", payload, &acc); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}

// GetAccountInfo returns the TRX balance and TRC20 holdings of an account.
func (t *TronGrid) GetAccountInfo(ctx context.Context, address string) (*TronAccountInfo, error) {
	var res tronAccountsResponse
	endpoint := t.baseURL + "/v1/accounts/" + url.PathEscape(address)
	if err := t.client.getJSON(ctx, "accounts", endpoint, &res); err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	info := &TronAccountInfo{
		Address: address,
		Balance: new(big.Int),
		TRC20:   make(map[string]*big.Int),
	}
	if len(res.Data) == 0 {
		return info, nil
	}

	data := res.Data[0]
	info.Activated = true
	info.Balance.SetInt64(data.Balance)
	for _, entry := range data.TRC20 {
		for contract, amount := range entry {
			v, ok := new(big.Int).SetString(amount, 10)
			if !ok {
				continue
			}
			info.TRC20[contract] = v
		}
	}
	return info, nil
}

// GetAccountResource returns the bandwidth and energy of an account.
func (t *TronGrid) GetAccountResource(ctx context.Context, address string) (*AccountResource, error) {
	var res AccountResource
	payload := map[string]interface{}{"address": address, "visible": true}
	if err := t.post(ctx, "getaccountresource", payload, &res); err != nil {
		return nil, fmt.Errorf("failed to get account resource: %w", err)
	}
	return &res, nil
}

// GetChainParameters returns the network parameters, fees included.
func (t *TronGrid) GetChainParameters(ctx context.Context) (ChainParameters, error) {
	var res chainParametersResponse
	endpoint := t.baseURL + "/wallet/getchainparameters"
	if err := t.client.getJSON(ctx, "getchainparameters", endpoint, &res); err != nil {
		return nil, fmt.Errorf("failed to get chain parameters: %w", err)
	}
	params := make(ChainParameters, len(res.ChainParameter))
	for _, p := range res.ChainParameter {
		params[p.Key] = p.Value
	}
	return params, nil
}

// CreateTransaction builds an unsigned TRX transfer of amount sun.
func (t *TronGrid) CreateTransaction(ctx context.Context, owner, to string, amount int64) (*tron.Transaction, error) {
	var res struct {
		tron.Transaction
		Error string `json:"Error"`
	}
	req := createTransactionRequest{OwnerAddress: owner, ToAddress: to, Amount: amount, Visible: true}
	if err := t.post(ctx, "createtransaction", req, &res); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("failed to create transaction: %s", res.Error)
	}
	if res.TxID == "" {
		return nil, errors.New("failed to create transaction: empty response")
	}
	return &res.Transaction, nil
}

// TriggerSmartContract builds an unsigned contract call.
func (t *TronGrid) TriggerSmartContract(ctx context.Context, req TriggerRequest) (*tron.Transaction, error) {
	req.Visible = true
	var res triggerResponse
	if err := t.post(ctx, "triggersmartcontract", req, &res); err != nil {
		return nil, fmt.Errorf("failed to trigger contract: %w", err)
	}
	if !res.Result.Result || res.Transaction == nil {
		return nil, fmt.Errorf("failed to trigger contract: %s %s", res.Result.Code, decodeMessage(res.Result.Message))
	}
	return res.Transaction, nil
}

// TriggerConstantContract runs a contract call without broadcasting it, to
// read state or measure the energy it would use.
func (t *TronGrid) TriggerConstantContract(ctx context.Context, req TriggerRequest) (*ConstantResult, error) {
	req.Visible = true
	var res ConstantResult
	if err := t.post(ctx, "triggerconstantcontract", req, &res); err != nil {
		return nil, fmt.Errorf("failed to call contract: %w", err)
	}
	if !res.Result.Result {
		return nil, fmt.Errorf("failed to call contract: %s %s", res.Result.Code, decodeMessage(res.Result.Message))
	}
	return &res, nil
}

// BroadcastTransaction submits a signed transaction.
func (t *TronGrid) BroadcastTransaction(ctx context.Context, tx *tron.Transaction) (*BroadcastResult, error) {
	var res BroadcastResult
	if err := t.post(ctx, "broadcasttransaction", tx, &res); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if !res.Result {
		return nil, fmt.Errorf("broadcast rejected: %s %s", res.Code, decodeMessage(res.Message))
	}
	if res.TxID == "" {
		res.TxID = tx.TxID
	}
	return &res, nil
}

// GetTRC20Transfers returns TRC20 transfers to and from address.
func (t *TronGrid) GetTRC20Transfers(ctx context.Context, address string, q TRC20TransfersQuery) ([]TRC20Transfer, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	endpoint := t.baseURL + "/v1/accounts/" + url.PathEscape(address) + "/transactions/trc20"
	if enc := v.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var res trc20TransfersResponse
	if err := t.client.getJSON(ctx, "transactions/trc20", endpoint, &res); err != nil {
		return nil, fmt.Errorf("failed to get trc20 transfers: %w", err)
	}
	return res.Data, nil
}
