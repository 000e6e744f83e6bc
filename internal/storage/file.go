// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/ragchat/internal/util"
)

const fileSuffix = ".json"

// FileBackend stores one file per key in a directory.
// Keys are query-escaped so that "chat:abc" is a valid file name everywhere.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, wrapErr("open", "", err)
	}
	return &FileBackend{dir: dir}, nil
}

var _ Backend = (*FileBackend)(nil)

// Dir returns the directory holding the records.
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+fileSuffix)
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, wrapErr("get", key, err)
	}
	return data, nil
}

func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	// SECURITY: records contain conversation text, keep them owner-only
	return wrapErr("set", key, util.AtomicWriteFileWithDir(f.path(key), value, 0o600, 0o700))
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	return wrapErr("delete", key, util.RemoveFile(f.path(key)))
}

func (f *FileBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, wrapErr("keys", prefix, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue // not ours
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *FileBackend) Close() error {
	return nil
}
