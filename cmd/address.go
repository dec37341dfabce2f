package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/networks"
)

var addressCmd = &cobra.Command{
	Use:   "address [network]",
	Short: "Show wallet address",
	Long: `Show your wallet address on a network, or on all of them.

Examples:
  bucks address           # Show all addresses
  bucks address tron      # Show the TRON address`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAddress,
}

func runAddress(cmd *cobra.Command, args []string) error {
	manager, err := unlockedManager()
	if err != nil {
		return err
	}
	nets := newNetworks()

	evmAddress, err := manager.EvmAddress()
	if err != nil {
		return fmt.Errorf("failed to get EVM address: %w", err)
	}
	tronAddress, err := manager.TronAddress()
	if err != nil {
		return fmt.Errorf("failed to get TRON address: %w", err)
	}

	addressOf := func(n networks.Network) string {
		if n.Kind == networks.KindTron {
			return tronAddress.String()
		}
		return evmAddress.Hex()
	}

	if len(args) == 1 {
		n, err := nets.Find(args[0])
		if err != nil {
			return err
		}
		address := addressOf(n)
		fmt.Printf("🔑 %s: %s\n", n.Name, address)
		fmt.Printf("   🔗 %s\n", addressLink(n, address))
		return nil
	}

	fmt.Println("🔑 Your wallet addresses:")
	fmt.Println()
	fmt.Printf("EVM networks:  %s\n", evmAddress.Hex())
	fmt.Printf("TRON:          %s\n", tronAddress.String())
	fmt.Println()
	fmt.Println("💡 The same EVM address is used on every EVM network")

	return nil
}

// addressLink is the explorer page of address on n.
func addressLink(n networks.Network, address string) string {
	return n.Scanner + "/address/" + address
}
