package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/wallet"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new wallet",
	Long: `Initialize a new Bucks wallet with a secure recovery phrase.

This command will:
  - Generate a new 24-word recovery phrase
  - Create an encrypted vault
  - Derive your EVM and TRON accounts from it`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	manager := newManager()

	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove %s/wallet.vault to create a new wallet", cfg.DataDir)
	}

	fmt.Println("🚀 Initializing Bucks Wallet")
	fmt.Println()

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	fmt.Println("Generating wallet...")
	if err := manager.Initialize(password); err != nil {
		if errors.Is(err, wallet.ErrWalletExists) {
			return fmt.Errorf("wallet already exists")
		}
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}

	mnemonic, err := manager.GetMnemonic()
	if err != nil {
		return fmt.Errorf("failed to get recovery phrase: %w", err)
	}

	fmt.Println("✅ Wallet initialized successfully!")
	fmt.Println()
	fmt.Println("🔐 Recovery Phrase (24 words):")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT:")
	fmt.Println("   - Write down this recovery phrase and store it securely")
	fmt.Println("   - Anyone with this phrase can access your funds")
	fmt.Println("   - This is the only way to recover your wallet")
	fmt.Println()
	printNextSteps()

	return nil
}

func printNextSteps() {
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'bucks address' to see your addresses")
	fmt.Println("   - Run 'bucks network' to pick a network")
	fmt.Println("   - Run 'bucks balance' to check your balances")
}
