// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package params holds the user-selected generation parameters: the chat
// and embedding models, their API keys, temperature, max tokens and top-p.
//
// A single Store is created at program start. Non-secret values can be
// mirrored to a storage backend so they survive restarts; API keys live only
// in memory.
package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/storage"
)

// StorageKey is the backend key holding the mirrored values.
const StorageKey = "params"

// Defaults and ranges.
const (
	DefaultTemperature = 1.0
	DefaultMaxTokens   = 2048
	DefaultTopP        = 1.0

	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
)

// Values is a snapshot of every parameter.
// API keys are excluded from JSON so they can never be persisted.
type Values struct {
	LLM         string  `json:"llm"`
	LLMAPIKey   string  `json:"-"`
	EmbedModel  string  `json:"embedModel"`
	EmbedAPIKey string  `json:"-"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	TopP        float64 `json:"topP"`
}

// DefaultValues returns the startup parameters.
func DefaultValues() Values {
	return Values{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
	}
}

// ChatParams carry what the chat endpoint needs.
type ChatParams struct {
	LLM         string
	APIKey      string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// EmbedParams carry what the indexing endpoint needs.
type EmbedParams struct {
	Model  string
	APIKey string
}

// =============================================================================
// STORE
// =============================================================================

// Store is the shared, goroutine-safe parameter container.
type Store struct {
	catalog Catalog

	mu     sync.RWMutex
	values Values
	mirror storage.Backend

	// persistMu orders mirror writes the same way as the updates.
	persistMu sync.Mutex

	listenersMu sync.Mutex
	listeners   []func(Values)
}

// New creates a store holding initial, classified by catalog.
func New(initial Values, catalog Catalog) *Store {
	return &Store{values: initial, catalog: catalog}
}

// Catalog returns the model classification in use.
func (s *Store) Catalog() Catalog {
	return s.catalog
}

// Attach restores mirrored values from backend and mirrors every later
// change to it. A missing or malformed entry leaves the current values.
func (s *Store) Attach(ctx context.Context, backend storage.Backend) error {
	data, err := backend.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	default:
		// Fields absent from the entry keep their current values.
		saved := s.Snapshot()
		if jerr := json.Unmarshal(data, &saved); jerr != nil {
			log.Warn().Err(jerr).Msg("ignoring malformed stored params")
		} else {
			s.mu.Lock()
			s.values = merge(s.values, saved)
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.mirror = backend
	s.mu.Unlock()
	return nil
}

func merge(cur, saved Values) Values {
	if saved.LLM != "" {
		cur.LLM = saved.LLM
	}
	if saved.EmbedModel != "" {
		cur.EmbedModel = saved.EmbedModel
	}
	if saved.Temperature >= MinTemperature && saved.Temperature <= MaxTemperature {
		cur.Temperature = saved.Temperature
	}
	if saved.MaxTokens > 0 {
		cur.MaxTokens = saved.MaxTokens
	}
	if saved.TopP >= MinTopP && saved.TopP <= MaxTopP {
		cur.TopP = saved.TopP
	}
	return cur
}

// OnChange registers fn to receive a snapshot after every change.
func (s *Store) OnChange(fn func(Values)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// Snapshot returns every current value.
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// ChatParams returns the values sent with a chat request.
func (s *Store) ChatParams() ChatParams {
	v := s.Snapshot()
	return ChatParams{
		LLM:         v.LLM,
		APIKey:      v.LLMAPIKey,
		Temperature: v.Temperature,
		MaxTokens:   v.MaxTokens,
		TopP:        v.TopP,
	}
}

// EmbedParams returns the values sent with an indexing request.
func (s *Store) EmbedParams() EmbedParams {
	v := s.Snapshot()
	return EmbedParams{Model: v.EmbedModel, APIKey: v.EmbedAPIKey}
}

// =============================================================================
// SETTERS
// =============================================================================

// SetLLM selects the chat model. An empty id clears the selection.
func (s *Store) SetLLM(id string) {
	s.update(func(v *Values) { v.LLM = strings.TrimSpace(id) })
}

// SetLLMAPIKey sets the chat model key.
func (s *Store) SetLLMAPIKey(key string) {
	s.update(func(v *Values) { v.LLMAPIKey = strings.TrimSpace(key) })
}

// SetEmbedModel selects the embedding model.
func (s *Store) SetEmbedModel(id string) {
	s.update(func(v *Values) { v.EmbedModel = strings.TrimSpace(id) })
}

// SetEmbedAPIKey sets the embedding model key.
func (s *Store) SetEmbedAPIKey(key string) {
	s.update(func(v *Values) { v.EmbedAPIKey = strings.TrimSpace(key) })
}

// SetTemperature sets the sampling temperature, within [0, 2].
func (s *Store) SetTemperature(t float64) error {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return rangeError("temperature", "Temperature must be between %.1f and %.1f.", MinTemperature, MaxTemperature)
	}
	s.update(func(v *Values) { v.Temperature = t })
	return nil
}

// SetMaxTokens sets the response length limit; it must be positive.
func (s *Store) SetMaxTokens(n int) error {
	if n <= 0 {
		return rangeError("maxTokens", "Max tokens must be greater than 0.")
	}
	s.update(func(v *Values) { v.MaxTokens = n })
	return nil
}

// SetTopP sets nucleus sampling, within [0, 1].
func (s *Store) SetTopP(p float64) error {
	if math.IsNaN(p) || p < MinTopP || p > MaxTopP {
		return rangeError("topP", "Top P must be between %.1f and %.1f.", MinTopP, MaxTopP)
	}
	s.update(func(v *Values) { v.TopP = p })
	return nil
}

// RemoveAPIKeys forgets both API keys.
func (s *Store) RemoveAPIKeys() {
	s.update(func(v *Values) {
		v.LLMAPIKey = ""
		v.EmbedAPIKey = ""
	})
}

func (s *Store) update(fn func(*Values)) {
	s.persistMu.Lock()
	s.mu.Lock()
	fn(&s.values)
	snap := s.values
	mirror := s.mirror
	s.mu.Unlock()

	if mirror != nil {
		s.persist(mirror, snap)
	}
	s.persistMu.Unlock()

	s.listenersMu.Lock()
	listeners := append([]func(Values){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) persist(backend storage.Backend, v Values) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("encode params")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := backend.Set(ctx, StorageKey, data); err != nil {
		log.Warn().Err(err).Msg("failed to persist params")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateChat checks that a chat request can be issued.
func (s *Store) ValidateChat() error {
	v := s.Snapshot()
	if v.LLM == "" {
		return noModelError("llm")
	}
	if s.catalog.RequiresKey(v.LLM) && v.LLMAPIKey == "" {
		return noKeyError("llmApiKey", v.LLM)
	}
	return nil
}

// ValidateEmbed checks that a document can be indexed.
func (s *Store) ValidateEmbed() error {
	v := s.Snapshot()
	if v.EmbedModel == "" {
		return noModelError("embedModel")
	}
	if s.catalog.RequiresKey(v.EmbedModel) && v.EmbedAPIKey == "" {
		return noKeyError("embedApiKey", v.EmbedModel)
	}
	return nil
}

// String renders the non-secret values for display.
func (v Values) String() string {
	return fmt.Sprintf("llm=%s embed=%s temperature=%.2f max_tokens=%d top_p=%.2f",
		orNone(v.LLM), orNone(v.EmbedModel), v.Temperature, v.MaxTokens, v.TopP)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
