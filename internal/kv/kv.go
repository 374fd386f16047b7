// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package kv provides the embedded persistent store: named partitions
// ("trees") of byte-key/byte-value pairs backed by a single SQLite file.
// One Store handle is opened at process start and shared by every
// component; Update serializes read-modify-write cycles so concurrent
// mutations of the same record cannot lose writes.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when the requested key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Store is the process-wide handle to the embedded database.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open creates (or opens) the database file at path. Parent directories
// are created if needed, WAL mode is enabled, and the schema is created
// on first use.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "kv")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			tree  TEXT NOT NULL,
			key   BLOB NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (tree, key)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tree returns a handle to the named partition. Trees are created
// implicitly on first write.
func (s *Store) Tree(name string) *Tree {
	return &Tree{store: s, name: name}
}

// Update runs fn inside the store's critical section. Every
// read-modify-write sequence (read record, mutate in memory, write back)
// must go through Update; two concurrent updates never interleave, which
// closes the last-writer-wins race a bare read/write pair would have.
func (s *Store) Update(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Tree is a named partition: an independent sorted map of byte keys to
// byte values.
type Tree struct {
	store *Store
	name  string
}

// Get returns the value stored under key, or ErrNotFound.
func (t *Tree) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := t.store.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE tree = ? AND key = ?`, t.name, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %s: %w", t.name, err)
	}
	return value, nil
}

// Put stores value under key, overwriting any previous value. The write
// is durable when Put returns.
func (t *Tree) Put(ctx context.Context, key, value []byte) error {
	_, err := t.store.db.ExecContext(ctx, `
		INSERT INTO kv (tree, key, value) VALUES (?, ?, ?)
		ON CONFLICT (tree, key) DO UPDATE SET value = excluded.value
	`, t.name, key, value)
	if err != nil {
		return fmt.Errorf("kv: put %s: %w", t.name, err)
	}
	return nil
}

// Delete removes key from the tree. Deleting a missing key is a no-op.
func (t *Tree) Delete(ctx context.Context, key []byte) error {
	_, err := t.store.db.ExecContext(ctx,
		`DELETE FROM kv WHERE tree = ? AND key = ?`, t.name, key)
	if err != nil {
		return fmt.Errorf("kv: delete %s: %w", t.name, err)
	}
	return nil
}

// Len reports the number of entries in the tree.
func (t *Tree) Len(ctx context.Context) (int, error) {
	var n int
	err := t.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE tree = ?`, t.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("kv: len %s: %w", t.name, err)
	}
	return n, nil
}

// ForEach calls fn for every entry in the tree in ascending key order.
// Iteration stops at the first error fn returns.
func (t *Tree) ForEach(ctx context.Context, fn func(key, value []byte) error) error {
	rows, err := t.store.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE tree = ? ORDER BY key`, t.name)
	if err != nil {
		return fmt.Errorf("kv: iterate %s: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("kv: iterate scan %s: %w", t.name, err)
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("kv: iterate rows %s: %w", t.name, err)
	}
	return nil
}
