// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat/internal/model"
)

type recordingInvalidator struct {
	paths []string
}

func (r *recordingInvalidator) Invalidate(path string) {
	r.paths = append(r.paths, path)
}

// failingBackend fails every operation with a backend error.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, &Error{Op: "get", Err: errors.New("quota exceeded")}
}
func (failingBackend) Set(context.Context, string, []byte) error {
	return &Error{Op: "set", Err: errors.New("quota exceeded")}
}
func (failingBackend) Delete(context.Context, string) error {
	return &Error{Op: "delete", Err: errors.New("quota exceeded")}
}
func (failingBackend) Keys(context.Context, string) ([]string, error) {
	return nil, &Error{Op: "keys", Err: errors.New("quota exceeded")}
}
func (failingBackend) Close() error { return nil }

func newTestStore(t *testing.T) (*ChatStore, *recordingInvalidator) {
	t.Helper()
	inv := &recordingInvalidator{}
	return NewChatStore(NewMemoryBackend(), inv), inv
}

func testMessages(contents ...string) []model.Message {
	msgs := make([]model.Message, 0, len(contents))
	for i, c := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, model.NewMessage(role, c))
	}
	return msgs
}

func TestChatStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	msgs := testMessages("What is RAG?", "Retrieval-augmented generation.")

	require.NoError(t, store.Save(ctx, "abc1234", msgs))

	rec, found, err := store.Load(ctx, "abc1234")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc1234", rec.ID)
	assert.Equal(t, "What is RAG?", rec.Title)
	assert.Equal(t, "/chat/abc1234", rec.Path)
	assert.Equal(t, RecordVersion, rec.Version)
	require.Len(t, rec.Messages, 2)
	for i := range msgs {
		assert.Equal(t, msgs[i].ID, rec.Messages[i].ID)
		assert.Equal(t, msgs[i].Role, rec.Messages[i].Role)
		assert.Equal(t, msgs[i].Content, rec.Messages[i].Content)
	}
}

func TestChatStore_SaveEmptyIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "empty01", nil))

	_, found, err := store.Load(ctx, "empty01")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChatStore_TitleTruncatedAndStable(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	long := strings.Repeat("é", 150)

	require.NoError(t, store.Save(ctx, "t1", testMessages(long, "ok")))
	rec, _, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 100, len([]rune(rec.Title)))

	// The title is not recomputed when the first message changes.
	require.NoError(t, store.Save(ctx, "t1", testMessages("different", "ok")))
	rec, _, err = store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 100), rec.Title)
}

func TestChatStore_CreatedAtSetOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	store.SetClock(func() time.Time { return first })
	require.NoError(t, store.Save(ctx, "c1", testMessages("hi")))

	store.SetClock(func() time.Time { return later })
	require.NoError(t, store.Save(ctx, "c1", testMessages("hi", "hello")))

	rec, found, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, rec.CreatedAt.Equal(first), "createdAt = %v", rec.CreatedAt)
	assert.True(t, rec.UpdatedAt.Equal(later), "updatedAt = %v", rec.UpdatedAt)
	assert.Len(t, rec.Messages, 2)
}

func TestChatStore_MalformedRecordIsAbsent(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewChatStore(backend, nil)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "chat:bad", []byte("{not json")))
	require.NoError(t, backend.Set(ctx, "chat:wrong", []byte(`{"id":"other","messages":[]}`)))
	require.NoError(t, store.Save(ctx, "good", testMessages("hello")))

	_, found, err := store.Load(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, found)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].ID)
}

func TestChatStore_LoadAllIgnoresOtherKeys(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewChatStore(backend, nil)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "sidebar", []byte("true")))
	require.NoError(t, backend.Set(ctx, "params", []byte(`{"llm":"gpt-4o"}`)))
	require.NoError(t, store.Save(ctx, "a", testMessages("one")))
	require.NoError(t, store.Save(ctx, "b", testMessages("two")))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestChatStore_RemoveInvalidatesOnce(t *testing.T) {
	store, inv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "r1", testMessages("bye")))

	require.NoError(t, store.Remove(ctx, "r1", "/chat/r1"))

	_, found, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{"/chat/r1"}, inv.paths)
}

func TestChatStore_ClearInvalidatesEveryPath(t *testing.T) {
	store, inv := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, id, testMessages("msg "+id)))
	}
	require.NoError(t, store.Backend().Set(ctx, "chat:junk", []byte("[]")))

	require.NoError(t, store.Clear(ctx))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.ElementsMatch(t, []string{"/chat/a", "/chat/b", "/chat/c", "/chat/junk"}, inv.paths)
}

func TestChatStore_BackendFailureIsUnavailable(t *testing.T) {
	store := NewChatStore(failingBackend{}, nil)
	ctx := context.Background()

	err := store.Save(ctx, "x", testMessages("hi"))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = store.Load(ctx, "x")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.LoadAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = store.Remove(ctx, "x", "/chat/x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChatStore_FileBackendSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b1, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, NewChatStore(b1, nil).Save(ctx, "keep1", testMessages("persist me")))

	b2, err := NewFileBackend(dir)
	require.NoError(t, err)
	rec, found, err := NewChatStore(b2, nil).Load(ctx, "keep1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "persist me", rec.Title)
}
