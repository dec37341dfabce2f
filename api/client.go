package api

// API Client-
//
// Files:
//   config.go    - upstream names, endpoint formats and defaults
//   types.go     - response and request types
//   base.go      - shared HTTP client (JSON helpers, HTTPError, metrics)
//   ethereum.go  - Alchemy indexer for EVM networks (token balances, transfers)
//   prices.go    - Alchemy prices API with an in-memory cache
//   tron.go      - TronGrid (accounts, resources, transactions, TRC20 history)
//
// Usage:
//   httpClient := api.NewHTTPClient(cfg.HTTP.Timeout)
//   indexer, err := api.DialAlchemy(ctx, api.AlchemyURL("eth-mainnet", key), httpClient)
//   prices := api.NewPrices(cfg.Alchemy.PricesURL, key, cfg.Cache.PriceTTL, httpClient)
//   grid := api.NewTronGrid(cfg.TronGrid.URL, cfg.TronGrid.APIKey, httpClient)
