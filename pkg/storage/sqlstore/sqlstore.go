// Package sqlstore implements the storage driver operations on top of
// database/sql. It is shared by the sqlite and postgres drivers, which differ
// only in how they open the connection and in placeholder syntax.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/wireline/pkg/storage"
)

// Dialect selects the placeholder syntax used in queries.
type Dialect int

const (
	// DialectSQLite uses "?" placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses "$1".."$n" placeholders.
	DialectPostgres
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id               TEXT PRIMARY KEY,
	model            TEXT NOT NULL,
	status           INTEGER NOT NULL,
	finish_reason    TEXT NOT NULL DEFAULT '',
	prompt_chars     INTEGER NOT NULL DEFAULT 0,
	completion_chars INTEGER NOT NULL DEFAULT 0,
	streaming        BOOLEAN NOT NULL DEFAULT FALSE,
	truncated        BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL
)`

// Store implements storage.Driver against an open *sql.DB.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the exchanges table if it does not exist. Schema changes
// are append-only; existing rows are never rewritten.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores an exchange record, overwriting any previous record with the
// same id.
func (s *Store) Save(ctx context.Context, ex *storage.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}
	if ex.ID == "" {
		return errors.New("cannot store exchange without an id")
	}

	query := s.rebind(`INSERT INTO exchanges
		(id, model, status, finish_reason, prompt_chars, completion_chars, streaming, truncated, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			model = excluded.model,
			status = excluded.status,
			finish_reason = excluded.finish_reason,
			prompt_chars = excluded.prompt_chars,
			completion_chars = excluded.completion_chars,
			streaming = excluded.streaming,
			truncated = excluded.truncated,
			duration_ms = excluded.duration_ms`)

	_, err := s.DB.ExecContext(ctx, query,
		ex.ID, ex.Model, ex.Status, ex.FinishReason,
		ex.PromptChars, ex.CompletionChars, ex.Streaming, ex.Truncated,
		ex.DurationMs, ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// Get retrieves an exchange by id.
func (s *Store) Get(ctx context.Context, id string) (*storage.Exchange, error) {
	query := s.rebind(`SELECT id, model, status, finish_reason, prompt_chars, completion_chars, streaming, truncated, duration_ms, created_at
		FROM exchanges WHERE id = ?`)

	var ex storage.Exchange
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&ex.ID, &ex.Model, &ex.Status, &ex.FinishReason,
		&ex.PromptChars, &ex.CompletionChars, &ex.Streaming, &ex.Truncated,
		&ex.DurationMs, &ex.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return &ex, nil
}

// List returns all exchanges, most recent first.
func (s *Store) List(ctx context.Context) ([]*storage.Exchange, error) {
	query := `SELECT id, model, status, finish_reason, prompt_chars, completion_chars, streaming, truncated, duration_ms, created_at
		FROM exchanges ORDER BY created_at DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	var out []*storage.Exchange
	for rows.Next() {
		var ex storage.Exchange
		if err := rows.Scan(
			&ex.ID, &ex.Model, &ex.Status, &ex.FinishReason,
			&ex.PromptChars, &ex.CompletionChars, &ex.Streaming, &ex.Truncated,
			&ex.DurationMs, &ex.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		out = append(out, &ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchanges: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// rebind converts "?" placeholders to "$n" for the postgres dialect.
func (s *Store) rebind(query string) string {
	if s.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
