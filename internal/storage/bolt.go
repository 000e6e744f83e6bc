// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltBucket holds every key. Keys are kept as is, so a prefix scan is a
// cursor seek.
var boltBucket = []byte("ragchat")

// BoltBackend stores keys in one bucket of a bbolt file. The file is locked
// while open, so only one process can use it at a time.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (or creates) the bbolt file at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	if path == "" {
		return nil, wrapErr("open", "", errors.New("bolt path is empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, wrapErr("open", "", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, wrapErr("open", "", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, wrapErr("open", "", err)
	}
	return &BoltBackend{db: db}, nil
}

var _ Backend = (*BoltBackend)(nil)

func (b *BoltBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("get", key, err)
	}
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, wrapErr("get", key, err)
	}
	return out, nil
}

func (b *BoltBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("set", key, err)
	}
	return wrapErr("set", key, b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	}))
}

func (b *BoltBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("delete", key, err)
	}
	return wrapErr("delete", key, b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	}))
}

func (b *BoltBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("keys", prefix, err)
	}
	var keys []string
	p := []byte(prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("keys", prefix, err)
	}
	return keys, nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
