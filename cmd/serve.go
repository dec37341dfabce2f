package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay1088/bucks/server"
	"github.com/chinmay1088/bucks/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wallet over a local JSON API",
	Long: `Serve balances, history, fee estimates and transfers over HTTP, with
Prometheus metrics on /metrics. The API signs with the unlocked wallet and
answers 401 while it is locked.

Every request needs the bearer token printed at startup (or set with
server.token). Only loopback Host headers are served, browser requests are
limited to server.allowedOrigins, and POST bodies must be application/json.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	manager := newManager()
	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'bucks init' to create a new wallet")
	}
	if !manager.IsUnlocked() {
		fmt.Println("⚠️  Wallet is locked. Requests will fail until you run 'bucks unlock'")
	}

	journal, err := store.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	accounts := newAccounts(manager)
	defer accounts.Reset()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, cancel := commandContext()
	defer cancel()

	rest := server.New(accounts, journal, accounts.Networks(), server.Options{
		HistoryCount:   cfg.History.MaxCount,
		Token:          cfg.Server.Token,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	fmt.Printf("🌐 Listening on http://%s\n", addr)
	fmt.Printf("🔑 API token: %s\n", rest.Token)
	fmt.Println("💡 Send it as 'Authorization: Bearer <token>' with every request")
	return rest.ListenAndServe(ctx, addr)
}
