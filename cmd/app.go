package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/wallet"
)

func newManager() *wallet.Manager {
	return wallet.NewManager(cfg.DataDir, cfg.Session.IdleDuration)
}

func newNetworks() *networks.Registry {
	return networks.NewRegistry(cfg.RPC)
}

// unlockedManager returns the wallet manager, failing when the wallet is
// missing or locked.
func unlockedManager() (*wallet.Manager, error) {
	manager := newManager()
	if !manager.VaultExists() {
		return nil, fmt.Errorf("no wallet found. Run 'bucks init' to create a new wallet")
	}
	if !manager.IsUnlocked() {
		return nil, fmt.Errorf("wallet is locked. Run 'bucks unlock' first")
	}
	return manager, nil
}

// networkArg picks the network named in args, or the selected one.
func networkArg(manager *wallet.Manager, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return manager.CurrentNetwork()
}

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newAccounts(manager *wallet.Manager) *account.Registry {
	return account.NewRegistry(cfg, newNetworks(), manager)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// readNewPassword asks for a password twice.
func readNewPassword() (string, error) {
	password, err := readPassword("Enter a password for your wallet: ")
	if err != nil {
		return "", err
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters long")
	}

	repeated, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != repeated {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func confirm(prompt string) bool {
	answer, err := readLine(prompt + " (y/n): ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
