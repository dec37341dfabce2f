package store

import (
	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/tokens"
)

// NewEntry describes the executed draft d of token t on network.
func NewEntry(network string, t tokens.Token, d *account.Draft, r *account.Receipt) Entry {
	return Entry{
		Network: network,
		Hash:    r.Hash,
		From:    d.From,
		To:      d.Recipient,
		Token:   d.Token,
		Symbol:  t.Symbol,
		Amount:  chains.FormatUnits(d.Amount, t.Decimals).String(),
		Status:  statusOf(r.Status),
	}
}

func statusOf(status uint64) string {
	switch status {
	case account.StatusSuccess:
		return StatusSuccess
	case account.StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}
