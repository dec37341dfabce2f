package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chinmay1088/bucks/account"
)

const displayPlaces = 6

// formatAmount trims an amount to six places without trailing zeros.
func formatAmount(d decimal.Decimal) string {
	return d.Truncate(displayPlaces).String()
}

func formatUSD(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return "$" + d.Decimal.StringFixed(2)
}

// totalQuote sums the priced rows.
func totalQuote(balances []account.TokenBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		if b.Quote.Valid {
			total = total.Add(b.Quote.Decimal)
		}
	}
	return total
}

// shorten keeps the head and tail of long addresses and hashes.
func shorten(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "..." + s[len(s)-6:]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// direction tells whether a transfer left or reached the account.
func direction(owner string, t account.Transfer) string {
	if strings.EqualFold(t.From, owner) {
		return "OUT"
	}
	return "IN"
}

func formatFee(fee decimal.Decimal, symbol string) string {
	return fmt.Sprintf("%s %s", formatAmount(fee), symbol)
}
