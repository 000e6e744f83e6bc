// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides client-side conversation persistence for ragchat.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a durable key-value medium.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the medium.
	Close() error
}

// Kind names a Backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
	KindBolt   Kind = "bolt"
)

// ParseKind normalizes a backend name from configuration.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file", "json":
		return KindFile, nil
	case "memory", "mem":
		return KindMemory, nil
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "redis":
		return KindRedis, nil
	case "bolt", "bbolt":
		return KindBolt, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q", s)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Backend.Get for a missing key.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable matches any failure of the underlying medium
	// (disabled, full, unreachable). Use errors.Is(err, ErrUnavailable).
	ErrUnavailable = errors.New("storage unavailable")
)

// Error describes a failed backend operation.
type Error struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrUnavailable for every backend failure.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

func wrapErr(op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}
