// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package uistate

import (
	"context"
	"testing"

	"github.com/jeranaias/ragchat/internal/storage"
)

func TestFlags_DefaultOpen(t *testing.T) {
	f := New(storage.NewMemoryBackend())
	if !f.Get(context.Background(), Sidebar) {
		t.Error("sidebar should default to open")
	}
	if !f.Get(context.Background(), ParamsPanel) {
		t.Error("params panel should default to open")
	}
}

func TestFlags_ToggleAndPersist(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	f := New(backend)

	v, err := f.Toggle(ctx, Sidebar)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if v {
		t.Fatal("first toggle should close the sidebar")
	}

	raw, err := backend.Get(ctx, "sidebar")
	if err != nil {
		t.Fatalf("Get raw: %v", err)
	}
	if string(raw) != "false" {
		t.Errorf("stored value = %q, want JSON false", raw)
	}

	if New(backend).Get(ctx, Sidebar) {
		t.Error("closed state should survive a new Flags instance")
	}
	if !f.Get(ctx, ParamsPanel) {
		t.Error("other flags are independent")
	}
}

func TestFlags_MalformedIsDefault(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	if err := backend.Set(ctx, "sidebar", []byte(`"yes"`)); err != nil {
		t.Fatal(err)
	}
	if !New(backend).Get(ctx, Sidebar) {
		t.Error("malformed flag should read as open")
	}
}
