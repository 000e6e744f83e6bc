// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteBackend stores keys in a single table of an embedded SQLite file.
type SQLiteBackend struct {
	db  *sql.DB
	sql sq.StatementBuilderType
}

// NewSQLiteBackend opens (or creates) the database at path.
// The path ":memory:" opens a private in-memory database.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, wrapErr("open", "", errors.New("sqlite path is empty"))
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, wrapErr("open", "", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapErr("open", "", fmt.Errorf("open db: %w", err))
	}
	// RELIABILITY: one writer at a time, and ":memory:" is per-connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapErr("open", "", fmt.Errorf("ping db: %w", err))
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, wrapErr("open", "", fmt.Errorf("init sqlite schema: %w", err))
	}

	return &SQLiteBackend{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

var _ Backend = (*SQLiteBackend)(nil)

func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := s.sql.Select("value").From("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, wrapErr("get", key, fmt.Errorf("build get query: %w", err))
	}
	var value []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapErr("get", key, err)
	}
	return value, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	q := s.sql.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at")

	query, args, err := q.ToSql()
	if err != nil {
		return wrapErr("set", key, fmt.Errorf("build set query: %w", err))
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapErr("set", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	query, args, err := s.sql.Delete("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return wrapErr("delete", key, fmt.Errorf("build delete query: %w", err))
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapErr("delete", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	q := s.sql.Select("key").From("kv")
	if prefix != "" {
		q = q.Where(sq.Expr(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%"))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, wrapErr("keys", prefix, fmt.Errorf("build keys query: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("keys", prefix, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, wrapErr("keys", prefix, err)
		}
		// LIKE is case-insensitive for ASCII in SQLite
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("keys", prefix, err)
	}
	return keys, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
