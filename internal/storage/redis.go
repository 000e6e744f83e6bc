// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by RedisBackend.
const DefaultRedisNamespace = "ragchat:"

// RedisBackend stores keys in a Redis database under a namespace.
type RedisBackend struct {
	rdb       *redis.Client
	namespace string
	owned     bool
}

// NewRedisBackend wraps an existing client. The caller keeps ownership of rdb.
func NewRedisBackend(rdb *redis.Client, namespace string) *RedisBackend {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	return &RedisBackend{rdb: rdb, namespace: namespace}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int, namespace string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, wrapErr("open", "", err)
	}
	b := NewRedisBackend(rdb, namespace)
	b.owned = true
	return b, nil
}

var _ Backend = (*RedisBackend)(nil)

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, wrapErr("get", key, err)
	}
	return value, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return wrapErr("set", key, r.rdb.Set(ctx, r.namespace+key, value, 0).Err())
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return wrapErr("delete", key, r.rdb.Del(ctx, r.namespace+key).Err())
}

func (r *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(r.namespace+prefix) + "*"
	keys := []string{}
	iter := r.rdb.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, wrapErr("keys", prefix, err)
	}
	return keys, nil
}

// Close closes the client when the backend dialed it.
func (r *RedisBackend) Close() error {
	if !r.owned {
		return nil
	}
	return r.rdb.Close()
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
