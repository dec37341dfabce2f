package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/store"
)

var (
	historyToken string
	historyLimit int
	historyLocal bool
)

var historyCmd = &cobra.Command{
	Use:     "history [network]",
	Aliases: []string{"transactions"},
	Short:   "Show recent transfers",
	Long: `Show the latest transfers of a token, received and sent, newest first.
Without --token the native currency is shown. TRON only indexes token
transfers, so pass --token there.

With --local the transfers sent from this machine are listed from the
local journal instead.

Examples:
  bucks history                          # Native transfers, selected network
  bucks history tron --token USDT        # USDT transfers on TRON
  bucks history --local                  # Transfers sent from this machine`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyToken, "token", "t", "", "Token symbol or contract address")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Number of transfers to show")
	historyCmd.Flags().BoolVar(&historyLocal, "local", false, "List the local journal")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLocal {
		return showJournal(args)
	}

	manager, err := unlockedManager()
	if err != nil {
		return err
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

	token, err := account.ResolveToken(n, accounts.Tokens(), historyToken)
	if err != nil {
		return err
	}

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.History.MaxCount
	}

	transfers, err := a.QueryTokenHistory(ctx, token.Address, token.Decimals, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	fmt.Printf("📜 %s transfers on %s\n", token.Symbol, color.CyanString(n.Name))
	fmt.Println()
	if len(transfers) == 0 {
		fmt.Println("   No transfers found")
		return nil
	}

	owner := a.Address()
	for _, t := range transfers {
		dir := color.GreenString("IN ")
		peer := t.From
		if direction(owner, t) == "OUT" {
			dir = color.RedString("OUT")
			peer = t.To
		}
		fmt.Printf("   %s  %s  %16s %s  %s\n", formatTime(t.BlockTimestamp), dir, formatAmount(t.Value), token.Symbol, shorten(peer))
		fmt.Printf("      🔗 %s\n", a.LinkOfTransaction(t.Hash))
	}
	return nil
}

func showJournal(args []string) error {
	journal, err := store.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	network := ""
	if len(args) > 0 {
		n, err := newNetworks().Find(args[0])
		if err != nil {
			return err
		}
		network = n.Key
	}

	ctx, cancel := commandContext()
	defer cancel()

	entries, err := journal.List(ctx, network, historyLimit)
	if err != nil {
		return err
	}

	fmt.Println("📒 Sent from this machine")
	fmt.Println()
	if len(entries) == 0 {
		fmt.Println("   No transfers recorded")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("   %s  %-13s %16s %-6s → %s  [%s]\n",
			formatTime(e.CreatedAt), e.Network, e.Amount, e.Symbol, shorten(e.To), statusColor(e.Status))
		fmt.Printf("      %s\n", e.Hash)
	}
	return nil
}

func statusColor(status string) string {
	switch status {
	case store.StatusSuccess:
		return color.GreenString(status)
	case store.StatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
