package networks

import (
	"fmt"
	"sort"
	"strings"
)

// Kind groups networks that share an account implementation.
type Kind string

const (
	KindEVM  Kind = "evm"
	KindTron Kind = "tron"
)

// Network keys
const (
	Ethereum      = "ethereum"
	Polygon       = "polygon"
	Arbitrum      = "arbitrum"
	Optimism      = "optimism"
	Base          = "base"
	Avalanche     = "avalanche"
	WalletConnect = "walletconnect"
	Tron          = "tron"
)

// TronChainID is the chain id TronGrid reports for mainnet (0x2b6653dc).
const TronChainID int64 = 728126428

// Network describes one chain the wallet can hold an account on.
type Network struct {
	Key      string `json:"key"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	ChainID  int64  `json:"chainId"`
	Provider string `json:"provider"`
	Scanner  string `json:"scanner"`

	// NetworkID is the alchemy network identifier, used by the indexer and
	// the prices API.
	NetworkID string `json:"networkId,omitempty"`

	// WrappedAsset prices the native currency.
	WrappedAsset string `json:"wrappedAsset,omitempty"`
	USDC         string `json:"usdc,omitempty"`
	USDT         string `json:"usdt,omitempty"`
	USD          string `json:"usd,omitempty"`

	NativeSymbol   string `json:"nativeSymbol"`
	NativeDecimals int    `json:"nativeDecimals"`
}

// IsWalletConnect reports whether sends go through a WalletConnect session.
func (n Network) IsWalletConnect() bool {
	return n.Key == WalletConnect
}

var builtin = []Network{
	{
		Key:            Ethereum,
		Kind:           KindEVM,
		Name:           "Ethereum",
		ChainID:        1,
		Provider:       "https://ethereum-rpc.publicnode.com",
		Scanner:        "https://etherscan.io",
		NetworkID:      "eth-mainnet",
		WrappedAsset:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		USDC:           "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		USDT:           "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		USD:            "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	{
		Key:            Polygon,
		Kind:           KindEVM,
		Name:           "Polygon",
		ChainID:        137,
		Provider:       "https://polygon-bor-rpc.publicnode.com",
		Scanner:        "https://polygonscan.com",
		NetworkID:      "polygon-mainnet",
		WrappedAsset:   "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
		USDC:           "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		USDT:           "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
		NativeSymbol:   "MATIC",
		NativeDecimals: 18,
	},
	{
		Key:            Arbitrum,
		Kind:           KindEVM,
		Name:           "Arbitrum One",
		ChainID:        42161,
		Provider:       "https://arbitrum-one-rpc.publicnode.com",
		Scanner:        "https://arbiscan.io",
		NetworkID:      "arb-mainnet",
		WrappedAsset:   "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
		USDC:           "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		USDT:           "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	{
		Key:            Optimism,
		Kind:           KindEVM,
		Name:           "Optimism",
		ChainID:        10,
		Provider:       "https://optimism-rpc.publicnode.com",
		Scanner:        "https://optimistic.etherscan.io",
		NetworkID:      "opt-mainnet",
		WrappedAsset:   "0x4200000000000000000000000000000000000006",
		USDC:           "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85",
		USDT:           "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	{
		Key:            Base,
		Kind:           KindEVM,
		Name:           "Base",
		ChainID:        8453,
		Provider:       "https://base-rpc.publicnode.com",
		Scanner:        "https://basescan.org",
		NetworkID:      "base-mainnet",
		WrappedAsset:   "0x4200000000000000000000000000000000000006",
		USDC:           "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	{
		Key:            Avalanche,
		Kind:           KindEVM,
		Name:           "Avalanche C-Chain",
		ChainID:        43114,
		Provider:       "https://avalanche-c-chain-rpc.publicnode.com",
		Scanner:        "https://snowtrace.io",
		NetworkID:      "avax-mainnet",
		WrappedAsset:   "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
		USDC:           "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		USDT:           "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7",
		NativeSymbol:   "AVAX",
		NativeDecimals: 18,
	},
	{
		// Ethereum mainnet; reads use Infura, sends are signed remotely.
		Key:            WalletConnect,
		Kind:           KindEVM,
		Name:           "WalletConnect",
		ChainID:        1,
		Scanner:        "https://etherscan.io",
		NetworkID:      "eth-mainnet",
		WrappedAsset:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		USDC:           "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		USDT:           "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		USD:            "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	},
	{
		Key:            Tron,
		Kind:           KindTron,
		Name:           "TRON",
		ChainID:        TronChainID,
		Provider:       "https://api.trongrid.io",
		Scanner:        "https://tronscan.org/#",
		NativeSymbol:   "TRX",
		NativeDecimals: 6,
	},
}

// Registry is a set of networks with per-deployment RPC overrides applied.
type Registry struct {
	networks []Network
}

// NewRegistry returns the built-in networks, replacing the provider URL of
// every key present in overrides.
func NewRegistry(overrides map[string]string) *Registry {
	nets := make([]Network, len(builtin))
	copy(nets, builtin)
	for i := range nets {
		if url, ok := overrides[nets[i].Key]; ok && url != "" {
			nets[i].Provider = url
		}
	}
	return &Registry{networks: nets}
}

// All returns every network in declaration order.
func (r *Registry) All() []Network {
	out := make([]Network, len(r.networks))
	copy(out, r.networks)
	return out
}

// EVM returns the EVM networks.
func (r *Registry) EVM() []Network {
	var out []Network
	for _, n := range r.networks {
		if n.Kind == KindEVM {
			out = append(out, n)
		}
	}
	return out
}

// Find looks a network up by key.
func (r *Registry) Find(key string) (Network, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, n := range r.networks {
		if n.Key == key {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q (supported: %s)", key, strings.Join(r.Keys(), ", "))
}

// FindByChainID returns the first network with the chain id. WalletConnect
// shares chain id 1 with Ethereum and is never returned here.
func (r *Registry) FindByChainID(chainID int64) (Network, bool) {
	for _, n := range r.networks {
		if n.ChainID == chainID && !n.IsWalletConnect() {
			return n, true
		}
	}
	return Network{}, false
}

// Keys returns the sorted network keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.networks))
	for _, n := range r.networks {
		keys = append(keys, n.Key)
	}
	sort.Strings(keys)
	return keys
}
