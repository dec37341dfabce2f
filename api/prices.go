package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/patrickmn/go-cache"

	"github.com/chinmay1088/bucks/log"
)

// Prices is the alchemy prices API client. Quotes are cached in memory for
// ttl.
type Prices struct {
	client  *Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
}

// NewPrices creates a prices client. A non-positive ttl disables caching.
func NewPrices(baseURL, apiKey string, ttl time.Duration, httpClient *http.Client) *Prices {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &Prices{
		client:  NewClient(UpstreamPrices, httpClient),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   c,
	}
}

func (p *Prices) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", p.baseURL, p.apiKey, path)
}

func addressKey(network, address string) string {
	return "addr:" + network + ":" + strings.ToLower(address)
}

func symbolKey(symbol string) string {
	return "sym:" + strings.ToUpper(symbol)
}

func (p *Prices) cached(key string) (TokenPrice, bool) {
	if p.cache == nil {
		return TokenPrice{}, false
	}
	v, ok := p.cache.Get(key)
	if !ok {
		return TokenPrice{}, false
	}
	return v.(TokenPrice), true
}

func (p *Prices) store(key string, tp TokenPrice) {
	if p.cache != nil {
		p.cache.SetDefault(key, tp)
	}
}

// ByAddress returns the prices of tokens on network in one request. Tokens
// the API reports an error for are left out.
func (p *Prices) ByAddress(ctx context.Context, network string, addresses []string) ([]TokenPrice, error) {
	out := make([]TokenPrice, 0, len(addresses))
	var missing []PriceAddress
	for _, addr := range addresses {
		if tp, ok := p.cached(addressKey(network, addr)); ok {
			out = append(out, tp)
			continue
		}
		missing = append(missing, PriceAddress{Network: network, Address: addr})
	}
	if len(missing) == 0 {
		return out, nil
	}

	var res pricesResponse
	err := p.client.postJSON(ctx, "tokens/by-address", p.endpoint("tokens/by-address"), pricesByAddressRequest{Addresses: missing}, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	for _, tp := range res.Data {
		if tp.Error != nil {
			log.ExtractLogger(ctx).Debugw("no price", "network", tp.Network, "address", tp.Address, "reason", *tp.Error)
			continue
		}
		p.store(addressKey(network, tp.Address), tp)
		out = append(out, tp)
	}
	return out, nil
}

// BySymbol returns the prices of tokens by ticker symbol.
func (p *Prices) BySymbol(ctx context.Context, symbols []string) ([]TokenPrice, error) {
	out := make([]TokenPrice, 0, len(symbols))
	var missing []string
	for _, sym := range symbols {
		if tp, ok := p.cached(symbolKey(sym)); ok {
			out = append(out, tp)
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return out, nil
	}

	v, err := query.Values(pricesBySymbolQuery{Symbols: missing})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	var res pricesResponse
	if err := p.client.getJSON(ctx, "tokens/by-symbol", p.endpoint("tokens/by-symbol")+"?"+v.Encode(), &res); err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	for _, tp := range res.Data {
		if tp.Error != nil {
			log.ExtractLogger(ctx).Debugw("no price", "symbol", tp.Symbol, "reason", *tp.Error)
			continue
		}
		p.store(symbolKey(tp.Symbol), tp)
		out = append(out, tp)
	}
	return out, nil
}
