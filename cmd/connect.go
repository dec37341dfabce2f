package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/networks"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Pair an external wallet over WalletConnect",
	Long: `Start a WalletConnect session and wait for an external wallet to approve
it. Sessions live as long as the process, so 'bucks send walletconnect'
pairs on its own when needed. Use this command to check that your wallet
can pair and which account it exposes.`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	manager, err := unlockedManager()
	if err != nil {
		return err
	}
	accounts := newAccounts(manager)
	defer accounts.Reset()

	ctx, cancel := commandContext()
	defer cancel()

	a, err := accounts.Get(ctx, networks.WalletConnect)
	if err != nil {
		return err
	}
	wc, ok := a.(walletConnector)
	if !ok {
		return fmt.Errorf("%s does not support walletconnect", a.Network().Name)
	}

	if err := pairWallet(ctx, wc); err != nil {
		return err
	}
	fmt.Printf("🔑 Local address: %s\n", a.Address())
	fmt.Println("💡 Transfers on walletconnect are signed by the paired wallet")
	return nil
}
