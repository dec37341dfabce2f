package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/chains"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/metrics"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/store"
	"github.com/chinmay1088/bucks/tokens"
)

var (
	sendToken string
	sendYes   bool
)

var sendCmd = &cobra.Command{
	Use:     "send [network] [amount] [address]",
	Aliases: []string{"pay"},
	Short:   "Send the native currency or a token",
	Long: `Send the native currency, or a listed token with --token, to another
address. The fee estimate is shown before you confirm. On TRON the
bandwidth and energy the transfer consumes are shown, and a warning is
printed when TRX will be burnt to cover them.

On walletconnect the transfer is signed by the paired external wallet.

Examples:
  bucks send ethereum 0.1 0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6
  bucks send polygon 25 0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6 --token USDC
  bucks send tron 10 TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7 --token USDT`,
	Args: cobra.ExactArgs(3),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendToken, "token", "t", "", "Token symbol or contract address")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "Skip the confirmation prompt")
}

// tokenBalancer is implemented by accounts that look up one token balance.
type tokenBalancer interface {
	GetTokenBalance(ctx context.Context, symbol string) (*big.Int, error)
}

// walletConnector is implemented by accounts that sign remotely.
type walletConnector interface {
	ConnectWalletConnect(ctx context.Context) (string, error)
	WaitForWallet(ctx context.Context) error
}

func runSend(cmd *cobra.Command, args []string) error {
	manager, err := unlockedManager()
	if err != nil {
		return err
	}
	accounts := newAccounts(manager)
	defer accounts.Reset()

	ctx, cancel := commandContext()
	defer cancel()

	a, err := accounts.Get(ctx, args[0])
	if err != nil {
		return err
	}
	n := a.Network()

	token, err := account.ResolveToken(n, accounts.Tokens(), sendToken)
	if err != nil {
		return err
	}
	amount, err := account.ParseAmount(token, args[1])
	if err != nil {
		return err
	}
	to := args[2]
	if !a.IsAddress(to) {
		return fmt.Errorf("invalid %s address: %s", n.Name, to)
	}

	if err := checkTokenFunds(ctx, a, token, amount); err != nil {
		return err
	}

	fmt.Printf("💸 Sending %s %s on %s\n", chains.FormatUnits(amount, token.Decimals).String(), token.Symbol, color.CyanString(n.Name))
	fmt.Println()

	draft, err := a.PopulateTransferToken(ctx, token.Address, to, amount)
	if err != nil {
		if errors.Is(err, account.ErrNotActivated) {
			return fmt.Errorf("%s has no account on %s yet. Send it some %s first", to, n.Name, n.NativeSymbol)
		}
		return fmt.Errorf("failed to build transaction: %w", err)
	}

	estimate, err := a.EstimateGas(ctx, draft)
	if err != nil {
		return fmt.Errorf("failed to estimate fee: %w", err)
	}

	printDraft(n, token, draft, estimate)

	if !sendYes && !getTransactionConfirmation(n) {
		fmt.Println("❌ Transaction cancelled by user")
		return nil
	}

	if wc, ok := a.(walletConnector); ok && n.IsWalletConnect() {
		if err := pairWallet(ctx, wc); err != nil {
			return err
		}
	}

	fmt.Println("Broadcasting transaction...")
	receipt, err := a.Execute(ctx, draft)
	metrics.ObserveTransfer(n.Key, err)
	if receipt != nil {
		recordTransfer(ctx, n, token, draft, receipt)
	}
	if err != nil {
		if errors.Is(err, account.ErrReverted) && receipt != nil {
			fmt.Printf("❌ Transaction reverted: %s\n", a.LinkOfTransaction(receipt.Hash))
		}
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	fmt.Println("✅ Transaction sent successfully!")
	fmt.Printf("📝 Transaction hash: %s\n", receipt.Hash)
	if receipt.Status == account.StatusPending {
		fmt.Println("⏳ Waiting for the network to confirm it")
	}
	fmt.Printf("🔗 Explorer: %s\n", a.LinkOfTransaction(receipt.Hash))
	return nil
}

// checkTokenFunds fails early when the account holds less of token than
// amount. Native transfers and tokens the account cannot look up pass.
func checkTokenFunds(ctx context.Context, a account.Account, token tokens.Token, amount *big.Int) error {
	tb, ok := a.(tokenBalancer)
	if !ok || token.Address == "" {
		return nil
	}
	balance, err := tb.GetTokenBalance(ctx, token.Symbol)
	if err != nil {
		return fmt.Errorf("failed to get %s balance: %w", token.Symbol, err)
	}
	if balance != nil && balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient %s balance: have %s", token.Symbol, chains.FormatUnits(balance, token.Decimals).String())
	}
	return nil
}

func printDraft(n networks.Network, token tokens.Token, d *account.Draft, e *account.Estimate) {
	fmt.Printf("   From:    %s\n", d.From)
	fmt.Printf("   To:      %s\n", d.Recipient)
	fmt.Printf("   Amount:  %s %s\n", formatAmount(chains.FormatUnits(d.Amount, token.Decimals)), token.Symbol)
	if !d.Native() {
		fmt.Printf("   Token:   %s\n", d.Token)
	}

	fee := chains.FormatUnits(e.Fee, n.NativeDecimals)
	if n.Kind == networks.KindTron {
		fmt.Printf("   Bandwidth: %d\n", e.Bandwidth)
		if e.Energy > 0 {
			fmt.Printf("   Energy:    %d\n", e.Energy)
		}
		if e.Burn {
			fmt.Printf("   🔥 %s\n", color.YellowString("Resources are short, about %s will be burnt", formatFee(fee, n.NativeSymbol)))
		} else {
			fmt.Println("   Fee:     covered by account resources")
		}
		return
	}

	fmt.Printf("   Gas:     %d @ %s gwei\n", e.Gas, chains.FormatUnits(e.GasPrice, 9).Round(2).String())
	fmt.Printf("   Fee:     %s\n", formatFee(fee, n.NativeSymbol))
}

func getTransactionConfirmation(n networks.Network) bool {
	fmt.Println()
	fmt.Printf("🚨 You are on %s. By confirming this transaction real funds will be sent to this address.\n", n.Name)
	return confirm("Press y to confirm or n to stop")
}

// pairWallet makes sure the external wallet is connected, showing the
// pairing URI when a new session is needed.
func pairWallet(ctx context.Context, wc walletConnector) error {
	uri, err := wc.ConnectWalletConnect(ctx)
	if err != nil {
		return fmt.Errorf("failed to start walletconnect session: %w", err)
	}
	if uri == "" {
		return nil
	}

	fmt.Println()
	fmt.Println("📱 Scan or paste this URI in your wallet:")
	fmt.Println()
	fmt.Printf("   %s\n", uri)
	fmt.Println()
	fmt.Println("Waiting for approval...")
	if err := wc.WaitForWallet(ctx); err != nil {
		return fmt.Errorf("wallet did not approve the session: %w", err)
	}
	fmt.Println("✅ Wallet connected")
	return nil
}

// recordTransfer journals the transfer. Failures are only logged.
func recordTransfer(ctx context.Context, n networks.Network, token tokens.Token, d *account.Draft, r *account.Receipt) {
	journal, err := store.Open(cfg.Journal.Path)
	if err != nil {
		log.Warnw("failed to open journal", "error", err)
		return
	}
	defer journal.Close()

	if err := journal.Record(ctx, store.NewEntry(n.Key, token, d, r)); err != nil {
		log.Warnw("failed to journal transfer", "network", n.Key, "hash", r.Hash, "error", err)
	}
}
