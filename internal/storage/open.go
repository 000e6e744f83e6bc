// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
)

// Options selects and configures a Backend.
type Options struct {
	Kind Kind

	// Dir is the record directory for KindFile.
	Dir string

	// SQLitePath is the database file for KindSQLite.
	SQLitePath string

	// BoltPath is the database file for KindBolt.
	BoltPath string

	// Redis connection for KindRedis.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Kind {
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindFile, "":
		if opts.Dir == "" {
			return nil, fmt.Errorf("storage: file backend requires a directory")
		}
		return NewFileBackend(opts.Dir)
	case KindSQLite:
		return NewSQLiteBackend(ctx, opts.SQLitePath)
	case KindBolt:
		return NewBoltBackend(opts.BoltPath)
	case KindRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("storage: redis backend requires an address")
		}
		return DialRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisNamespace)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Kind)
	}
}
