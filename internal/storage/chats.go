// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// ChatKeyPrefix prefixes every conversation key.
	ChatKeyPrefix = "chat:"

	// TitleMaxRunes bounds the title derived from the first message.
	TitleMaxRunes = 100

	// RecordVersion is the current on-disk schema version.
	RecordVersion = 1
)

// ChatKey returns the backend key for a conversation id.
func ChatKey(id string) string {
	return ChatKeyPrefix + id
}

// =============================================================================
// CHAT RECORD
// =============================================================================

// ChatRecord is the persisted form of one conversation.
type ChatRecord struct {
	Version   int             `json:"version"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Path      string          `json:"path"`
	Messages  []model.Message `json:"messages"`
}

// MessageCount returns the number of stored messages.
func (r ChatRecord) MessageCount() int {
	return len(r.Messages)
}

// ParseError reports a stored record that could not be decoded.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed record %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func decodeRecord(key string, data []byte) (ChatRecord, error) {
	var rec ChatRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ChatRecord{}, &ParseError{Key: key, Err: err}
	}
	id := strings.TrimPrefix(key, ChatKeyPrefix)
	switch {
	case rec.ID == "":
		return ChatRecord{}, &ParseError{Key: key, Err: errors.New("missing id")}
	case rec.ID != id:
		return ChatRecord{}, &ParseError{Key: key, Err: fmt.Errorf("id %q does not match key", rec.ID)}
	case rec.Version > RecordVersion:
		return ChatRecord{}, &ParseError{Key: key, Err: fmt.Errorf("unsupported version %d", rec.Version)}
	}
	if rec.Messages == nil {
		rec.Messages = []model.Message{}
	}
	if rec.Path == "" {
		rec.Path = model.ChatPath(id)
	}
	return rec, nil
}

// =============================================================================
// INVALIDATOR
// =============================================================================

// Invalidator is told when the cached view of a conversation path is stale.
type Invalidator interface {
	Invalidate(path string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(path string)

// Invalidate calls f(path).
func (f InvalidatorFunc) Invalidate(path string) {
	f(path)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(string) {}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore persists conversations as ChatRecords in a Backend.
type ChatStore struct {
	backend     Backend
	invalidator Invalidator
	now         func() time.Time
}

// NewChatStore creates a store over backend. A nil invalidator is allowed.
func NewChatStore(backend Backend, invalidator Invalidator) *ChatStore {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &ChatStore{
		backend:     backend,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *ChatStore) SetClock(now func() time.Time) {
	s.now = now
}

// Backend returns the underlying medium.
func (s *ChatStore) Backend() Backend {
	return s.backend
}

// Save writes the full conversation under chat:{id}. Empty input is a no-op.
// Title and CreatedAt are taken from the existing record when there is one.
func (s *ChatStore) Save(ctx context.Context, id string, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if id == "" {
		return errors.New("storage: save requires a conversation id")
	}

	now := s.now().UTC()
	rec := ChatRecord{
		Version:   RecordVersion,
		ID:        id,
		Title:     util.TruncateRunesNoEllipsis(messages[0].Content, TitleMaxRunes),
		CreatedAt: now,
		UpdatedAt: now,
		Path:      model.ChatPath(id),
		Messages:  model.CloneMessages(messages),
	}

	existing, found, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if found {
		rec.Title = existing.Title
		rec.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", id, err)
	}
	return s.backend.Set(ctx, ChatKey(id), data)
}

// Load reads one conversation. A missing or malformed record reports
// found=false with a nil error; only backend failures are returned.
func (s *ChatStore) Load(ctx context.Context, id string) (ChatRecord, bool, error) {
	key := ChatKey(id)
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ChatRecord{}, false, nil
		}
		return ChatRecord{}, false, err
	}
	rec, err := decodeRecord(key, data)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", id).Msg("ignoring malformed chat record")
		return ChatRecord{}, false, nil
	}
	return rec, true, nil
}

// LoadAll returns every well-formed conversation, in no particular order.
func (s *ChatStore) LoadAll(ctx context.Context) ([]ChatRecord, error) {
	keys, err := s.backend.Keys(ctx, ChatKeyPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]ChatRecord, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // removed between Keys and Get
			}
			return nil, err
		}
		rec, err := decodeRecord(key, data)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("skipping malformed chat record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Remove deletes the conversation and invalidates path exactly once.
func (s *ChatStore) Remove(ctx context.Context, id, path string) error {
	if err := s.backend.Delete(ctx, ChatKey(id)); err != nil {
		return err
	}
	if path == "" {
		path = model.ChatPath(id)
	}
	s.invalidator.Invalidate(path)
	return nil
}

// Clear invalidates the path of every stored conversation, then deletes them all.
// Deletion continues past individual failures; the errors are joined.
func (s *ChatStore) Clear(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, ChatKeyPrefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		id := strings.TrimPrefix(key, ChatKeyPrefix)
		path := model.ChatPath(id)
		if data, err := s.backend.Get(ctx, key); err == nil {
			if rec, err := decodeRecord(key, data); err == nil {
				path = rec.Path
			}
		}
		s.invalidator.Invalidate(path)
	}

	var errs []error
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
