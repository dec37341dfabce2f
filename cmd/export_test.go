package cmd

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/bucks/account"
)

const exportOwner = "TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7"

func testExport() *ExportData {
	transfers := []account.Transfer{
		{Hash: "aa", From: "TXYZ", To: exportOwner, Value: decimal.RequireFromString("12.5"), BlockNum: 10, BlockTimestamp: time.Unix(1700000000, 0)},
		{Hash: "bb", From: exportOwner, To: "TXYZ", Value: decimal.RequireFromString("2"), BlockNum: 11, BlockTimestamp: time.Unix(1700000100, 0)},
	}
	return &ExportData{
		ExportDate: "2024-01-01 00:00:00",
		Network:    "tron",
		Address:    exportOwner,
		Currencies: []CurrencyData{
			{Symbol: "TRX", Name: "TRON", Balance: "100", USDValue: "$12.00"},
			{Symbol: "USDT", Name: "Tether USD", Contract: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", Balance: "10.5", USDValue: "$10.50"},
		},
		Transfers: transferRows(exportOwner, "USDT", transfers),
	}
}

func TestTransferRows(t *testing.T) {
	rows := testExport().Transfers
	require.Len(t, rows, 2)
	assert.Equal(t, "IN", rows[0].Direction)
	assert.Equal(t, "OUT", rows[1].Direction)
	assert.Equal(t, "12.5", rows[0].Amount)
	assert.Equal(t, "2023-11-14T22:13:20Z", rows[0].Timestamp)
}

func TestContractOf(t *testing.T) {
	assert.Empty(t, contractOf(account.TokenBalance{Native: true, Address: "0x"}))
	assert.Equal(t, "0xabc", contractOf(account.TokenBalance{Address: "0xabc"}))
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, writeCSVFile(path, testExport()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// header, two balances, two transfers
	require.Len(t, records, 5)
	assert.Equal(t, "type", records[0][0])
	assert.Equal(t, []string{"balance", "USDT", "10.5", "$10.50"}, records[2][:4])
	assert.Equal(t, "transfer", records[4][0])
	assert.Equal(t, "11", records[4][8])
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, writeJSONFile(path, testExport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got ExportData
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "tron", got.Network)
	assert.Len(t, got.Currencies, 2)
	assert.Len(t, got.Transfers, 2)
}

func TestRenderText(t *testing.T) {
	text := renderText(testExport())
	assert.Contains(t, text, "Network: tron")
	assert.Contains(t, text, "Tether USD (USDT): 10.5 = $10.50")
	assert.Contains(t, text, "Transfers (2):")
}
