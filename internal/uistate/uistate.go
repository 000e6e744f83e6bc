// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package uistate persists the open/closed state of UI panels.
package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/storage"
)

// Flag names a persisted panel. The value is the backend key.
type Flag string

const (
	Sidebar     Flag = "sidebar"
	ParamsPanel Flag = "params-panel"
)

// Flags is a JSON-boolean store over a backend. Panels default to open.
type Flags struct {
	backend storage.Backend
}

// New creates a flag store.
func New(backend storage.Backend) *Flags {
	return &Flags{backend: backend}
}

// Get returns the stored value of flag, true when absent or unreadable.
func (f *Flags) Get(ctx context.Context, flag Flag) bool {
	data, err := f.backend.Get(ctx, string(flag))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Str("flag", string(flag)).Msg("failed to read ui flag")
		}
		return true
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		log.Warn().Err(err).Str("flag", string(flag)).Msg("ignoring malformed ui flag")
		return true
	}
	return v
}

// Set stores v under flag.
func (f *Flags) Set(ctx context.Context, flag Flag, v bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode flag %s: %w", flag, err)
	}
	return f.backend.Set(ctx, string(flag), data)
}

// Toggle flips flag and returns the new value. The new value is returned
// even when persisting it fails.
func (f *Flags) Toggle(ctx context.Context, flag Flag) (bool, error) {
	v := !f.Get(ctx, flag)
	return v, f.Set(ctx, flag, v)
}
