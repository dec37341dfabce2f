package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/config"
	"github.com/chinmay1088/bucks/log"
)

var (
	version = "0.3.0"

	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bucks",
	Short: "A multi-chain command-line wallet for EVM networks and TRON",
	Long: `Bucks is a non-custodial wallet for Ethereum, the major EVM networks and
TRON. One recovery phrase derives every account; keys never leave this
machine, except on the WalletConnect network where an external wallet signs.

Networks:
  ethereum, polygon, arbitrum, optimism, base, avalanche, walletconnect, tron

Examples:
  bucks init                                   # Create new wallet
  bucks unlock                                 # Unlock wallet
  bucks network polygon                        # Select polygon
  bucks balance                                # Balances on the selected network
  bucks send tron 10 TXYZ... --token USDT      # Send 10 USDT on TRON
  bucks history ethereum --token USDC          # Latest USDC transfers
  bucks serve                                  # Local JSON API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		log.ConfigureLogger(c.Logging)
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.bucks/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(recoveryPhraseCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Bucks Wallet v%s\n", version)
	},
}
