// Package sqlitestore persists ledger state in SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"cryptomoji.dev/moji/state"
	"cryptomoji.dev/moji/state/sqlitestore/migrations"
)

// ErrBusy reports that the database stayed locked past the busy timeout.
// Callers may retry.
var ErrBusy = errors.New("sqlitestore: database busy")

// Store is a SQLite-backed state.Store. Set and Delete each run in one
// transaction.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ state.Store  = (*Store)(nil)
	_ state.Lister = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies embedded
// migrations. The path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		var v []byte
		err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM state_entries WHERE address = ?`, k).Scan(&v)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out[k] = nil
		case err != nil:
			return nil, mapErr("get", err)
		default:
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(nil, updates); err != nil {
		return nil, err
	}
	keys := state.SortedKeys(updates)
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("begin set", err)
	}
	for _, k := range keys {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO state_entries (address, value) VALUES (?, ?)
			 ON CONFLICT(address) DO UPDATE SET value = excluded.value`,
			k, updates[k],
		)
		if err != nil {
			_ = tx.Rollback()
			return nil, mapErr("set", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit set", err)
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("begin delete", err)
	}
	removed := map[string]struct{}{}
	for _, k := range keys {
		res, err := tx.ExecContext(ctx, `DELETE FROM state_entries WHERE address = ?`, k)
		if err != nil {
			_ = tx.Rollback()
			return nil, mapErr("delete", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed[k] = struct{}{}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit delete", err)
	}
	return state.SortedKeys(removed), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !state.ValidPrefix(prefix) {
		return nil, state.ErrInvalidKey
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT address FROM state_entries WHERE substr(address, 1, ?) = ? ORDER BY address`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, mapErr("list", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, mapErr("list", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list", err)
	}
	return out, nil
}

// Len returns the number of stored entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM state_entries`).Scan(&n); err != nil {
		return 0, mapErr("count", err)
	}
	return n, nil
}

func mapErr(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w: %v", op, ErrBusy, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
