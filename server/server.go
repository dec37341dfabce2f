// Package server is the local JSON API over the wallet's accounts.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chinmay1088/bucks/account"
	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/metrics"
	"github.com/chinmay1088/bucks/networks"
	"github.com/chinmay1088/bucks/store"
	"github.com/chinmay1088/bucks/tokens"
)

const shutdownTimeout = 10 * time.Second

// Accounts hands out the account of a network. *account.Registry
// satisfies it.
type Accounts interface {
	Get(ctx context.Context, network string) (account.Account, error)
}

// Journal records and lists sent transfers. *store.Journal satisfies it.
type Journal interface {
	Record(ctx context.Context, e store.Entry) error
	List(ctx context.Context, network string, limit int) ([]store.Entry, error)
}

// Options tunes the gateway.
type Options struct {
	HistoryCount int
	// Token is the bearer token every request must carry. A random one is
	// generated when empty.
	Token string
	// AllowedOrigins lists the browser origins allowed to call the API.
	AllowedOrigins []string
}

// Rest is the HTTP gateway.
type Rest struct {
	Router         chi.Router
	Accounts       Accounts
	Journal        Journal
	Networks       *networks.Registry
	Tokens         *tokens.List
	HistoryCount   int
	Token          string
	AllowedOrigins []string
}

// New creates the gateway with its routes mounted.
func New(accounts Accounts, journal Journal, nets *networks.Registry, opts Options) *Rest {
	metrics.Init()

	token := opts.Token
	if token == "" {
		token = uuid.NewString()
	}

	s := &Rest{
		Router:         newRouter(),
		Accounts:       accounts,
		Journal:        journal,
		Networks:       nets,
		Tokens:         tokens.Default(),
		HistoryCount:   opts.HistoryCount,
		Token:          token,
		AllowedOrigins: opts.AllowedOrigins,
	}
	s.Route()
	return s
}

func newRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(
		chimw.RealIP,
		zapLogger,
		recoverer,
		observe,
	)
	return router
}

func (s *Rest) Route() {
	s.Router.Group(func(r chi.Router) {
		r.Use(
			loopbackOnly,
			allowOrigins(s.AllowedOrigins),
			bearer(s.Token),
		)

		r.Get("/networks", s.listNetworks)
		r.Get("/journal", s.listJournal)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		r.Route("/accounts/{network}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Get("/status", s.getStatus)
			r.Get("/balances", s.getBalances)
			r.Get("/history", s.getHistory)

			r.With(chimw.AllowContentType("application/json")).Post("/estimate", s.estimate)
			r.With(chimw.AllowContentType("application/json")).Post("/transfers", s.transfer)
		})
	})
}

// ServeHTTP lets the gateway be used as a handler.
func (s *Rest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Rest) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Infow("api shutting down")
	return srv.Shutdown(shutdownCtx)
}
