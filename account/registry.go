package account

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chinmay1088/bucks/api"
	"github.com/chinmay1088/bucks/config"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/tokens"
	"github.com/chinmay1088/bucks/walletconnect"
)

// ClientMeta is how the wallet introduces itself to WalletConnect peers.
var ClientMeta = walletconnect.ClientMeta{
	Name:        "bucks",
	Description: "multi-chain command line wallet",
	URL:         "https://github.com/chinmay1088/bucks",
}

// KeySource hands out the unlocked signing keys. *wallet.Manager
// satisfies it.
type KeySource interface {
	EvmKey() (*ecdsa.PrivateKey, error)
	TronKey() (*ecdsa.PrivateKey, error)
}

// Registry builds accounts on demand and keeps one per network until Reset.
type Registry struct {
	cfg        *config.Config
	networks   *networks.Registry
	tokens     *tokens.List
	keys       KeySource
	httpClient *http.Client
	prices     *api.Prices

	mu        sync.Mutex
	accounts  map[string]Account
	closers   []func()
	connector *walletconnect.Connector
}

// NewRegistry creates a registry over the configured networks.
func NewRegistry(cfg *config.Config, nets *networks.Registry, keys KeySource) *Registry {
	httpClient := api.NewHTTPClient(cfg.HTTP.Timeout)
	return &Registry{
		cfg:        cfg,
		networks:   nets,
		tokens:     tokens.Default(),
		keys:       keys,
		httpClient: httpClient,
		prices:     api.NewPrices(cfg.Alchemy.PricesURL, cfg.Alchemy.APIKey, cfg.Cache.PriceTTL, httpClient),
		accounts:   make(map[string]Account),
	}
}

// Networks returns the networks accounts can be built for.
func (r *Registry) Networks() *networks.Registry {
	return r.networks
}

// Tokens returns the token list accounts join balances against.
func (r *Registry) Tokens() *tokens.List {
	return r.tokens
}

// Get returns the account on the network with key, building it on first
// use.
func (r *Registry) Get(ctx context.Context, key string) (Account, error) {
	n, err := r.networks.Find(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownNetwork, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if acc, ok := r.accounts[n.Key]; ok {
		return acc, nil
	}

	var acc Account
	switch n.Kind {
	case networks.KindEVM:
		acc, err = r.newEvm(ctx, n)
	case networks.KindTron:
		acc, err = r.newTron(n)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownNetwork, n.Key)
	}
	if err != nil {
		return nil, err
	}

	log.ExtractLogger(ctx).Debugw("account created", "network", n.Key, "address", acc.Address())
	r.accounts[n.Key] = acc
	return acc, nil
}

func (r *Registry) newEvm(ctx context.Context, n networks.Network) (Account, error) {
	if err := r.cfg.Alchemy.Validate(); err != nil {
		return nil, err
	}
	key, err := r.keys.EvmKey()
	if err != nil {
		return nil, err
	}

	providerURL := n.Provider
	if n.IsWalletConnect() {
		if err := r.cfg.Infura.Validate(); err != nil {
			return nil, err
		}
		providerURL = r.cfg.Infura.Endpoint()
	}

	c, err := rpc.DialOptions(ctx, providerURL, rpc.WithHTTPClient(r.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", n.Key, err)
	}
	provider := ethclient.NewClient(c)

	indexer, err := api.DialAlchemy(ctx, api.AlchemyURL(n.NetworkID, r.cfg.Alchemy.APIKey), r.httpClient)
	if err != nil {
		provider.Close()
		return nil, err
	}

	deps := EvmDeps{
		Provider: provider,
		Indexer:  indexer,
		Prices:   r.prices,
		Tokens:   r.tokens,
	}
	if n.IsWalletConnect() {
		if r.connector == nil {
			r.connector = walletconnect.NewConnector(r.cfg.WalletConnect.Bridge, ClientMeta, n.ChainID)
		}
		deps.Remote = r.connector
	}

	acc, err := NewEvmAccount(n, key, deps)
	if err != nil {
		provider.Close()
		indexer.Close()
		return nil, err
	}
	r.closers = append(r.closers, provider.Close, indexer.Close)
	return acc, nil
}

func (r *Registry) newTron(n networks.Network) (Account, error) {
	if err := r.cfg.TronGrid.Validate(); err != nil {
		return nil, err
	}
	key, err := r.keys.TronKey()
	if err != nil {
		return nil, err
	}

	baseURL := n.Provider
	if r.cfg.TronGrid.URL != "" && r.cfg.RPC[n.Key] == "" {
		baseURL = r.cfg.TronGrid.URL
	}
	node := api.NewTronGrid(baseURL, r.cfg.TronGrid.APIKey, r.httpClient)

	return NewTronAccount(n, key, TronDeps{
		Node:     node,
		Prices:   r.prices,
		Tokens:   r.tokens,
		FeeLimit: r.cfg.TronGrid.FeeLimit,
	})
}

// Reset drops every account and closes their connections, as when the
// wallet is locked or the network settings change.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.closers {
		c()
	}
	r.closers = nil
	r.accounts = make(map[string]Account)
	if r.connector != nil {
		if err := r.connector.Close(); err != nil && !errors.Is(err, walletconnect.ErrClosed) {
			log.Warnw("failed to close walletconnect session", "error", err)
		}
		r.connector = nil
	}
}
