package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock wallet for session",
	Long: `Unlock your Bucks wallet for the current session.
The wallet stays unlocked until it has been idle for the configured
session duration, or until you run 'bucks lock'.

Example:
  bucks unlock`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the wallet",
	Args:  cobra.NoArgs,
	RunE:  runLock,
}

func runUnlock(cmd *cobra.Command, args []string) error {
	manager := newManager()

	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'bucks init' to create a new wallet")
	}

	if manager.IsUnlocked() {
		fmt.Println("✅ Wallet is already unlocked")
		return nil
	}

	password, err := readPassword("Enter your wallet password: ")
	if err != nil {
		return err
	}

	fmt.Println("Unlocking wallet...")
	if err := manager.Unlock(password); err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}

	fmt.Println("✅ Wallet unlocked successfully!")
	fmt.Println("💡 Use 'bucks address' to see your addresses")
	fmt.Println("💡 Use 'bucks balance [network]' to check your balances")

	return nil
}

func runLock(cmd *cobra.Command, args []string) error {
	newManager().Lock()
	fmt.Println("🔒 Wallet locked")
	return nil
}
