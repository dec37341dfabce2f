package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/metrics"
)

// AlchemyURL returns the keyed JSON-RPC endpoint of an alchemy network.
func AlchemyURL(networkID, apiKey string) string {
	return fmt.Sprintf(alchemyURLFormat, networkID, apiKey)
}

// Alchemy is the indexer for EVM networks: token balances and asset
// transfers through the alchemy_* JSON-RPC methods.
type Alchemy struct {
	rpc *rpc.Client
}

// DialAlchemy connects to an alchemy endpoint over HTTP.
func DialAlchemy(ctx context.Context, url string, httpClient *http.Client) (*Alchemy, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	c, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial alchemy: %w", err)
	}
	return &Alchemy{rpc: c}, nil
}

// Close releases the underlying RPC client.
func (a *Alchemy) Close() {
	a.rpc.Close()
}

func (a *Alchemy) call(ctx context.Context, result interface{}, method string, args ...interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(UpstreamAlchemy, method, start, err)
	}()

	err = a.rpc.CallContext(ctx, result, method, args...)
	log.ExtractLogger(ctx).Debugw("indexer call", "method", method, "elapsed", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// GetTokenBalances returns the ERC20 balances held by owner. Entries the
// indexer could not resolve are skipped.
func (a *Alchemy) GetTokenBalances(ctx context.Context, owner string) ([]RawBalance, error) {
	var res tokenBalancesResult
	if err := a.call(ctx, &res, "alchemy_getTokenBalances", owner, "erc20"); err != nil {
		return nil, err
	}
	return parseTokenBalances(ctx, res), nil
}

// GetTokenBalance returns the balance of a single token, zero when the
// indexer has none.
func (a *Alchemy) GetTokenBalance(ctx context.Context, owner, token string) (*big.Int, error) {
	var res tokenBalancesResult
	if err := a.call(ctx, &res, "alchemy_getTokenBalances", owner, []string{token}); err != nil {
		return nil, err
	}
	for _, b := range parseTokenBalances(ctx, res) {
		if strings.EqualFold(b.ContractAddress, token) {
			return b.Balance, nil
		}
	}
	return new(big.Int), nil
}

func parseTokenBalances(ctx context.Context, res tokenBalancesResult) []RawBalance {
	balances := make([]RawBalance, 0, len(res.TokenBalances))
	for _, tb := range res.TokenBalances {
		if tb.Error != nil || tb.TokenBalance == nil {
			continue
		}
		v, err := parseHexBigInt(*tb.TokenBalance)
		if err != nil {
			log.ExtractLogger(ctx).Warnw("skipping token balance", "contract", tb.ContractAddress, "error", err)
			continue
		}
		balances = append(balances, RawBalance{ContractAddress: tb.ContractAddress, Balance: v})
	}
	return balances
}

// GetAssetTransfers returns one page of transfers matching params.
func (a *Alchemy) GetAssetTransfers(ctx context.Context, params AssetTransfersParams) ([]AssetTransfer, error) {
	if params.FromBlock == "" {
		params.FromBlock = "0x0"
	}
	if params.ToBlock == "" {
		params.ToBlock = "latest"
	}

	var res assetTransfersResult
	if err := a.call(ctx, &res, "alchemy_getAssetTransfers", params); err != nil {
		return nil, err
	}
	return res.Transfers, nil
}

// MaxCount formats a result limit the way alchemy_getAssetTransfers expects.
func MaxCount(n int) string {
	return fmt.Sprintf("0x%x", n)
}
