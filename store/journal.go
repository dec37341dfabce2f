// Package store keeps a local journal of the transfers the wallet sent.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultLimit is the number of entries List returns when no limit is
// given.
const DefaultLimit = 20

// Entry is one journaled transfer. Amount is in display units.
type Entry struct {
	ID        int64     `json:"id"`
	Network   string    `json:"network"`
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Token     string    `json:"token,omitempty"`
	Symbol    string    `json:"symbol"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry statuses
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// one writer, the CLI and the API server may share the file
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.init(); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) init() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000`,
		`CREATE TABLE IF NOT EXISTS transfers (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        network TEXT NOT NULL,
        hash TEXT NOT NULL,
        from_address TEXT NOT NULL,
        to_address TEXT NOT NULL,
        token TEXT NOT NULL DEFAULT '',
        symbol TEXT NOT NULL DEFAULT '',
        amount TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        UNIQUE(network, hash)
    )`,
		`CREATE INDEX IF NOT EXISTS transfers_network_created ON transfers(network, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize journal: %w", err)
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores e. Recording the same network and hash again updates its
// status.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Network == "" || e.Hash == "" {
		return fmt.Errorf("journal entry needs a network and a hash")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}

	_, err := j.db.ExecContext(ctx, `INSERT INTO transfers(network, hash, from_address, to_address, token, symbol, amount, status, created_at)
    VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(network, hash) DO UPDATE SET status = excluded.status`,
		normalize(e.Network), e.Hash, e.From, e.To, e.Token, e.Symbol, e.Amount, e.Status, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

// List returns the latest entries, newest first. An empty network lists
// every network.
func (j *Journal) List(ctx context.Context, network string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := `SELECT id, network, hash, from_address, to_address, token, symbol, amount, status, created_at FROM transfers`
	args := []interface{}{}
	if network != "" {
		q += ` WHERE network = ?`
		args = append(args, normalize(network))
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Network, &e.Hash, &e.From, &e.To, &e.Token, &e.Symbol, &e.Amount, &e.Status, &created); err != nil {
			return nil, fmt.Errorf("failed to read transfer: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalize(network string) string {
	return strings.ToLower(strings.TrimSpace(network))
}
