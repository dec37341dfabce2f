package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/wallet"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a wallet from a recovery phrase",
	Long: `Import an existing wallet from its BIP39 recovery phrase.
The phrase is checked against the BIP39 word list and checksum before the
vault is written.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var recoveryPhraseCmd = &cobra.Command{
	Use:     "recovery-phrase",
	Aliases: []string{"phrase"},
	Short:   "Show the recovery phrase",
	Long: `Display your wallet's recovery phrase. The wallet password is asked
again even when the wallet is unlocked.`,
	Args: cobra.NoArgs,
	RunE: runShowRecoveryPhrase,
}

func runShowRecoveryPhrase(cmd *cobra.Command, args []string) error {
	manager := newManager()
	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'bucks init' first")
	}

	password, err := readPassword("Enter your wallet password: ")
	if err != nil {
		return err
	}
	if err := manager.VerifyPassword(password); err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if err := manager.Unlock(password); err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}

	mnemonic, err := manager.GetMnemonic()
	if err != nil {
		return fmt.Errorf("failed to get mnemonic: %w", err)
	}

	fmt.Println("🔐 Recovery Phrase:")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  Security Warning:")
	fmt.Println("   - Keep this phrase secure and private")
	fmt.Println("   - Anyone with this phrase can access your funds")
	fmt.Println("   - Never share it with anyone")

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	manager := newManager()
	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove existing wallet first")
	}

	fmt.Println("📝 Import Wallet from Recovery Phrase")
	fmt.Println()

	mnemonic, err := readLine("Enter recovery phrase: ")
	if err != nil {
		return err
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	if err := manager.ImportFromMnemonic(mnemonic, password); err != nil {
		if errors.Is(err, wallet.ErrInvalidMnemonic) {
			return fmt.Errorf("invalid recovery phrase. Check the words and their order")
		}
		return fmt.Errorf("failed to import wallet: %w", err)
	}

	fmt.Println("✅ Wallet imported successfully!")
	fmt.Println()
	printNextSteps()

	return nil
}
