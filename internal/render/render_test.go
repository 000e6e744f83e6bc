// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"strings"
	"testing"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/storage"
)

func TestMarkdown(t *testing.T) {
	msgs := []model.Message{
		model.NewUserMessage("What is RAG?"),
		model.NewAssistantMessage(),
	}
	md := Markdown(msgs)
	if !strings.Contains(md, "### You\n\nWhat is RAG?") {
		t.Errorf("missing user turn:\n%s", md)
	}
	if !strings.Contains(md, "### Assistant\n\n_..._") {
		t.Errorf("empty assistant turn should show a placeholder:\n%s", md)
	}
}

func TestCache_ReusesUntilChanged(t *testing.T) {
	c := NewCache("plain")
	msgs := []model.Message{model.NewUserMessage("hi")}

	first := c.Render("/chat/a", 80, msgs)
	if !c.Cached("/chat/a") {
		t.Fatal("expected cached rendering")
	}
	if again := c.Render("/chat/a", 80, msgs); again != first {
		t.Error("unchanged transcript should reuse the rendering")
	}

	msgs = append(msgs, model.NewMessage(model.RoleAssistant, "hello"))
	if updated := c.Render("/chat/a", 80, msgs); !strings.Contains(updated, "hello") {
		t.Errorf("changed transcript not re-rendered:\n%s", updated)
	}
}

func TestCache_GlamourRenders(t *testing.T) {
	c := NewCache("dark")
	out := c.Render("/chat/g", 60, []model.Message{model.NewUserMessage("**bold** text")})
	if !strings.Contains(out, "bold") || strings.Contains(out, "**bold**") {
		t.Errorf("markdown not rendered:\n%q", out)
	}
}

func TestCache_InvalidatedByChatStore(t *testing.T) {
	ctx := context.Background()
	c := NewCache("plain")
	store := storage.NewChatStore(storage.NewMemoryBackend(), c)

	msgs := []model.Message{model.NewUserMessage("to delete")}
	if err := store.Save(ctx, "del1", msgs); err != nil {
		t.Fatal(err)
	}
	c.Render("/chat/del1", 80, msgs)
	c.Render("/chat/other", 80, msgs)

	if err := store.Remove(ctx, "del1", "/chat/del1"); err != nil {
		t.Fatal(err)
	}
	if c.Cached("/chat/del1") {
		t.Error("removed conversation should be invalidated")
	}
	if !c.Cached("/chat/other") {
		t.Error("other paths should stay cached")
	}
}
