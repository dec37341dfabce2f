package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/networks"
)

var networkCmd = &cobra.Command{
	Use:   "network [name]",
	Short: "Show or change the selected network",
	Long: `Show the selected network, list the supported ones, or select another.
Commands that take an optional network argument use the selected network
when it is omitted.

Examples:
  bucks network            # Show networks, the selected one highlighted
  bucks network tron       # Select TRON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	manager := newManager()
	nets := newNetworks()

	if len(args) == 0 {
		current := manager.CurrentNetwork()
		fmt.Printf("🌐 Current network: %s\n", color.GreenString(current))
		fmt.Println()
		fmt.Println("Available networks:")
		for _, n := range nets.All() {
			marker := " "
			if n.Key == current {
				marker = color.GreenString("*")
			}
			fmt.Printf(" %s %-14s %s\n", marker, n.Key, describeNetwork(n))
		}
		return nil
	}

	n, err := nets.Find(args[0])
	if err != nil {
		return err
	}
	if err := manager.SetNetwork(n.Key); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}

	fmt.Printf("🌐 Switched to %s\n", color.GreenString(n.Name))
	if n.IsWalletConnect() {
		fmt.Println()
		fmt.Println("⚠️  Transfers on this network are signed by an external wallet")
		fmt.Println("💡 Run 'bucks connect' to pair it")
	}
	return nil
}

func describeNetwork(n networks.Network) string {
	switch {
	case n.IsWalletConnect():
		return color.CyanString("%s (chain %d, external signer)", n.Name, n.ChainID)
	case n.Kind == networks.KindTron:
		return fmt.Sprintf("%s (%s)", n.Name, n.NativeSymbol)
	default:
		return fmt.Sprintf("%s (chain %d, %s)", n.Name, n.ChainID, n.NativeSymbol)
	}
}
