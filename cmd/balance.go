package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/log"
)

var balanceAll bool

var balanceCmd = &cobra.Command{
	Use:   "balance [network]",
	Short: "Check token balances",
	Long: `Check the native currency and listed token balances of your account,
with their USD value when a price is known.

Examples:
  bucks balance              # Selected network
  bucks balance polygon      # Polygon
  bucks balance --all        # Every network except walletconnect`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

func init() {
	balanceCmd.Flags().BoolVarP(&balanceAll, "all", "a", false, "Check every network")
}

type balanceResult struct {
	network  string
	account  account.Account
	balances []account.TokenBalance
	err      error
}

func runBalance(cmd *cobra.Command, args []string) error {
	manager, err := unlockedManager()
	if err != nil {
		return err
	}
	accounts := newAccounts(manager)
	defer accounts.Reset()

	ctx, cancel := commandContext()
	defer cancel()

	keys := []string{networkArg(manager, args)}
	if balanceAll {
		keys = keys[:0]
		for _, n := range accounts.Networks().All() {
			// shares its address and chain with ethereum
			if n.IsWalletConnect() {
				continue
			}
			keys = append(keys, n.Key)
		}
	}

	results, err := fetchBalances(ctx, accounts, keys)
	if err != nil {
		return err
	}

	fmt.Println("💰 Wallet Balances")
	fmt.Println()
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("❌ %s: Error - %v\n\n", r.network, r.err)
			continue
		}
		printBalances(r.account, r.balances)
	}
	return nil
}

// fetchBalances queries the networks in parallel behind a progress bar.
// Per-network failures are kept in the results.
func fetchBalances(ctx context.Context, accounts *account.Registry, keys []string) ([]balanceResult, error) {
	bar := progressbar.NewOptions(len(keys),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("[cyan]Fetching balances...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	results := make([]balanceResult, len(keys))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			defer func() {
				mu.Lock()
				_ = bar.Add(1)
				mu.Unlock()
			}()

			results[i] = queryBalances(ctx, accounts, key)
			return ctx.Err()
		})
	}
	err := g.Wait()
	_ = bar.Finish()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func queryBalances(ctx context.Context, accounts *account.Registry, key string) balanceResult {
	a, err := accounts.Get(ctx, key)
	if err != nil {
		return balanceResult{network: key, err: err}
	}
	balances, err := a.QueryBalances(ctx)
	if err != nil {
		log.Debugw("balance query failed", "network", key, "error", err)
	}
	return balanceResult{network: a.Network().Name, account: a, balances: balances, err: err}
}

func printBalances(a account.Account, balances []account.TokenBalance) {
	n := a.Network()
	fmt.Printf("🌐 %s\n", color.CyanString(n.Name))
	fmt.Printf("   📍 Address: %s\n", a.Address())

	if !a.Activated() {
		fmt.Printf("   ℹ️ %s\n", color.YellowString("Account not activated yet. Receive %s to activate it.", n.NativeSymbol))
	}

	for _, b := range balances {
		amount := formatAmount(b.Balance)
		if b.Native {
			amount = color.GreenString(amount)
		}
		fmt.Printf("   %-8s %20s   %s\n", b.Symbol, amount, formatUSD(b.Quote))
	}
	if total := totalQuote(balances); total.IsPositive() {
		fmt.Printf("   💵 Total: $%s\n", total.StringFixed(2))
	}
	fmt.Println()
}
