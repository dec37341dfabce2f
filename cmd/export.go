package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/account"
)

// exportHistoryCount caps the transfers exported per token.
const exportHistoryCount = 50

var exportCmd = &cobra.Command{
	Use:   "export [network]",
	Short: "Export balances and transfer history",
	Long: `Export your balances and the transfer history of every token you hold
on a network.

File formats:
  --csv        Export to CSV format (default)
  --json       Export to JSON format
  --txt        Export to txt format

Examples:
  bucks export                     # Selected network, CSV
  bucks export tron --json         # TRON, JSON
  bucks export --csv --json        # Both formats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	csvFlag   bool
	jsonFlag  bool
	txtFlag   bool
	exportDir string
)

func init() {
	exportCmd.Flags().BoolVar(&csvFlag, "csv", false, "Export to CSV format")
	exportCmd.Flags().BoolVar(&jsonFlag, "json", false, "Export to JSON format")
	exportCmd.Flags().BoolVar(&txtFlag, "txt", false, "Export to txt format")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (default <dataDir>/exports)")
}

// ExportData is the document every format is written from.
type ExportData struct {
	ExportDate string         `json:"exportDate"`
	Network    string         `json:"network"`
	Address    string         `json:"address"`
	Currencies []CurrencyData `json:"currencies"`
	Transfers  []TransferData `json:"transfers"`
}

type CurrencyData struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Contract string `json:"contract,omitempty"`
	Balance  string `json:"balance"`
	USDValue string `json:"usdValue"`
}

type TransferData struct {
	Symbol      string `json:"symbol"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	Timestamp   string `json:"timestamp"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	manager, err := unlockedManager()
	if err != nil {
		return err
	}
	if !csvFlag && !jsonFlag && !txtFlag {
		csvFlag = true
	}

	accounts := newAccounts(manager)
	defer accounts.Reset()

	ctx, cancel := commandContext()
	defer cancel()

	a, err := accounts.Get(ctx, networkArg(manager, args))
	if err != nil {
		return err
	}
	n := a.Network()

	fmt.Printf("📊 Exporting %s data...\n", n.Name)
	fmt.Println()
	bar := progressbar.NewOptions(100,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("[cyan][1/3][reset] Collecting balances..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:     "[green]=[reset]",
			SaucerHead: "[green]>[reset]",
			BarStart:   "[",
			BarEnd:     "]",
		}),
	)

	_ = bar.Set(0)
	balances, err := a.QueryBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect balances: %w", err)
	}

	data := &ExportData{
		ExportDate: time.Now().Format("2006-01-02 15:04:05"),
		Network:    n.Key,
		Address:    a.Address(),
	}

	_ = bar.Set(20)
	bar.Describe("[cyan][2/3][reset] Collecting transfers...")
	for i, b := range balances {
		data.Currencies = append(data.Currencies, CurrencyData{
			Symbol:   b.Symbol,
			Name:     b.Name,
			Contract: contractOf(b),
			Balance:  b.Balance.String(),
			USDValue: formatUSD(b.Quote),
		})

		transfers, err := a.QueryTokenHistory(ctx, contractOf(b), b.Decimals, exportHistoryCount)
		if err != nil {
			fmt.Printf("\n⚠️  Warning: Failed to collect %s transfers: %v\n", b.Symbol, err)
		}
		data.Transfers = append(data.Transfers, transferRows(a.Address(), b.Symbol, transfers)...)
		_ = bar.Set(20 + 50*(i+1)/len(balances))
	}

	dir := exportDir
	if dir == "" {
		dir = filepath.Join(cfg.DataDir, "exports")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to prepare export directory: %w", err)
	}

	_ = bar.Set(85)
	bar.Describe("[cyan][3/3][reset] Writing export files...")
	files, err := writeExportFiles(data, dir, time.Now().Format("20060102_150405"))
	if err != nil {
		return err
	}

	_ = bar.Set(100)
	bar.Describe("[green][✓][reset] Export completed!")
	fmt.Println()
	fmt.Println()

	fmt.Println("📁 Export completed successfully!")
	for _, f := range files {
		fmt.Printf("📍 %s\n", f)
	}
	fmt.Println()
	fmt.Println("📊 Export Summary:")
	fmt.Printf("   Network: %s\n", n.Name)
	fmt.Printf("   Currencies: %d\n", len(data.Currencies))
	fmt.Printf("   Transfers: %d\n", len(data.Transfers))

	return nil
}

// contractOf is the history token argument of a balance row.
func contractOf(b account.TokenBalance) string {
	if b.Native {
		return ""
	}
	return b.Address
}

func transferRows(owner, symbol string, transfers []account.Transfer) []TransferData {
	rows := make([]TransferData, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, TransferData{
			Symbol:      symbol,
			Hash:        t.Hash,
			From:        t.From,
			To:          t.To,
			Amount:      t.Value.String(),
			Direction:   direction(owner, t),
			Timestamp:   t.BlockTimestamp.UTC().Format(time.RFC3339),
			BlockNumber: t.BlockNum,
		})
	}
	return rows
}

func writeExportFiles(data *ExportData, dir, timestamp string) ([]string, error) {
	base := filepath.Join(dir, fmt.Sprintf("bucks_%s_%s", data.Network, timestamp))
	var files []string

	if csvFlag {
		if err := writeCSVFile(base+".csv", data); err != nil {
			return nil, fmt.Errorf("failed to write CSV export: %w", err)
		}
		files = append(files, base+".csv")
	}
	if jsonFlag {
		if err := writeJSONFile(base+".json", data); err != nil {
			return nil, fmt.Errorf("failed to write JSON export: %w", err)
		}
		files = append(files, base+".json")
	}
	if txtFlag {
		if err := os.WriteFile(base+".txt", []byte(renderText(data)), 0600); err != nil {
			return nil, fmt.Errorf("failed to write txt export: %w", err)
		}
		files = append(files, base+".txt")
	}
	return files, nil
}

func writeCSVFile(filename string, data *ExportData) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	records := [][]string{{"type", "symbol", "amount", "usd_value", "direction", "from", "to", "hash", "block", "time"}}
	for _, c := range data.Currencies {
		records = append(records, []string{"balance", c.Symbol, c.Balance, c.USDValue, "", "", data.Address, "", "", data.ExportDate})
	}
	for _, t := range data.Transfers {
		records = append(records, []string{"transfer", t.Symbol, t.Amount, "", t.Direction, t.From, t.To, t.Hash, strconv.FormatUint(t.BlockNumber, 10), t.Timestamp})
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

func writeJSONFile(filename string, data *ExportData) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0600)
}

func renderText(data *ExportData) string {
	var content strings.Builder
	content.WriteString("BUCKS WALLET EXPORT\n")
	content.WriteString("===================\n\n")
	fmt.Fprintf(&content, "Export Date: %s\n", data.ExportDate)
	fmt.Fprintf(&content, "Network: %s\n", data.Network)
	fmt.Fprintf(&content, "Address: %s\n", data.Address)

	if len(data.Currencies) > 0 {
		content.WriteString("\nCurrencies:\n")
		for _, c := range data.Currencies {
			fmt.Fprintf(&content, "  %s (%s): %s = %s\n", c.Name, c.Symbol, c.Balance, c.USDValue)
		}
	}

	if len(data.Transfers) > 0 {
		fmt.Fprintf(&content, "\nTransfers (%d):\n", len(data.Transfers))
		for i, t := range data.Transfers {
			fmt.Fprintf(&content, "  %d. %s | %s | %s -> %s\n", i+1, t.Symbol, t.Direction, t.From, t.To)
			fmt.Fprintf(&content, "     Amount: %s | Hash: %s | Time: %s\n", t.Amount, t.Hash, t.Timestamp)
		}
	}
	return content.String()
}
