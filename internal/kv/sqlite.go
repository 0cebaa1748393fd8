package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

const upsertSQL = `INSERT INTO kv (key, value, updated_at)
VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLiteStore persists blobs in a single kv table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		return nil, fmt.Errorf("migrate kv schema: %w", err)
	}
	slog.Debug("kv schema ready", "db_path", dbPath, "version", version)

	// _txlock=immediate makes every transaction take the write lock at BEGIN,
	// so an Update's reads and writes are not interleaved with another
	// process's commit.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SetMany transactions from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, nonNil(value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	return s.Update(ctx, func(txn Txn) error {
		for k, v := range entries {
			txn.Set(k, v)
		}
		return nil
	})
}

// Update runs fn inside one BEGIN IMMEDIATE transaction and writes the
// staged values before committing.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn := &sqliteTxn{ctx: ctx, tx: tx, staged: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}
	if len(txn.staged) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(txn.staged))
	for k := range txn.staged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, nonNil(txn.staged[k])); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Committed kv batch", "keys", keys)
	return nil
}

type sqliteTxn struct {
	ctx    context.Context
	tx     *sql.Tx
	staged map[string][]byte
}

func (t *sqliteTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (t *sqliteTxn) Set(key string, value []byte) {
	t.staged[key] = append([]byte(nil), value...)
}

// nonNil keeps NULL out of the NOT NULL value column.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
