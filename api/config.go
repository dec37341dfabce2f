package api

import "time"

// Upstream names, used as log fields and metric labels.
const (
	UpstreamAlchemy  = "alchemy"
	UpstreamPrices   = "alchemy-prices"
	UpstreamTronGrid = "trongrid"
)

const (
	DefaultTimeout = 30 * time.Second

	// alchemyURLFormat takes the alchemy network id and the api key.
	alchemyURLFormat = "https://%s.g.alchemy.com/v2/%s"

	tronAPIKeyHeader = "TRON-PRO-API-KEY"

	// TRON fee defaults, used when the chain parameters omit them (sun).
	defaultTransactionFee = 1000
	defaultEnergyFee      = 210
	defaultCreateAccount  = 100_000
	defaultNewAccountFee  = 1_000_000
)
