// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package params

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/storage"
)

func newStore() *Store {
	return New(DefaultValues(), DefaultCatalog())
}

func TestDefaults(t *testing.T) {
	v := newStore().Snapshot()
	assert.Equal(t, 1.0, v.Temperature)
	assert.Equal(t, 2048, v.MaxTokens)
	assert.Equal(t, 1.0, v.TopP)
	assert.Empty(t, v.LLM)
	assert.Empty(t, v.EmbedModel)
}

func TestCatalog_Classification(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		id          string
		hosted      bool
		local       bool
		requiresKey bool
	}{
		{"gpt-4o-mini", true, false, true},
		{"Deepseek-chat", true, false, true},
		{"mistral-embed", true, false, true},
		{"voyage-3", true, false, true},
		{"ollama-llama3.1", false, true, false},
		{"huggingface-qwen2.5", false, true, false},
		{"custom-model", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.hosted, c.IsHosted(tt.id))
			assert.Equal(t, tt.local, c.IsLocal(tt.id))
			assert.Equal(t, tt.requiresKey, c.RequiresKey(tt.id))
		})
	}
}

func TestCatalog_Models(t *testing.T) {
	hosted, local := DefaultCatalog().Models(model.KindLLM)
	require.NotEmpty(t, hosted)
	require.NotEmpty(t, local)
	for _, m := range hosted {
		assert.Equal(t, model.KindLLM, m.Kind)
		assert.False(t, strings.HasPrefix(m.ID, "ollama"), m.ID)
	}
	for _, m := range local {
		assert.True(t, DefaultCatalog().IsLocal(m.ID), m.ID)
	}
}

func TestValidateChat(t *testing.T) {
	s := newStore()

	err := s.ValidateChat()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrNoModel)
	assert.Equal(t, "No model is selected. Please select a model on the right.", ve.Message)

	s.SetLLM("gpt-4o")
	err = s.ValidateChat()
	require.ErrorIs(t, err, ErrNoAPIKey)
	assert.Equal(t, "No API key is provided. Please provide an API key to use gpt-4o.", err.Error())

	s.SetLLMAPIKey("sk-test")
	assert.NoError(t, s.ValidateChat())

	s.SetLLM("ollama-llama3.1")
	s.RemoveAPIKeys()
	assert.NoError(t, s.ValidateChat(), "local models need no key")
}

func TestValidateEmbed(t *testing.T) {
	s := newStore()
	assert.ErrorIs(t, s.ValidateEmbed(), ErrNoModel)

	s.SetEmbedModel("voyage-3")
	assert.ErrorIs(t, s.ValidateEmbed(), ErrNoAPIKey)

	s.SetEmbedAPIKey("pa-key")
	assert.NoError(t, s.ValidateEmbed())
	assert.Equal(t, EmbedParams{Model: "voyage-3", APIKey: "pa-key"}, s.EmbedParams())
}

func TestSetters_RangeChecks(t *testing.T) {
	s := newStore()

	assert.ErrorIs(t, s.SetTemperature(-0.1), ErrOutOfRange)
	assert.ErrorIs(t, s.SetTemperature(2.5), ErrOutOfRange)
	assert.NoError(t, s.SetTemperature(0.2))

	assert.ErrorIs(t, s.SetTopP(1.5), ErrOutOfRange)
	assert.NoError(t, s.SetTopP(0.9))

	assert.ErrorIs(t, s.SetMaxTokens(0), ErrOutOfRange)
	assert.NoError(t, s.SetMaxTokens(512))

	p := s.ChatParams()
	assert.Equal(t, 0.2, p.Temperature)
	assert.Equal(t, 0.9, p.TopP)
	assert.Equal(t, 512, p.MaxTokens)
}

func TestRemoveAPIKeys(t *testing.T) {
	s := newStore()
	s.SetLLMAPIKey("a")
	s.SetEmbedAPIKey("b")
	s.RemoveAPIKeys()
	v := s.Snapshot()
	assert.Empty(t, v.LLMAPIKey)
	assert.Empty(t, v.EmbedAPIKey)
}

func TestOnChange(t *testing.T) {
	s := newStore()
	var got []string
	s.OnChange(func(v Values) { got = append(got, v.LLM) })

	s.SetLLM("gpt-4o-mini")
	s.SetLLM("deepseek-chat")
	assert.Equal(t, []string{"gpt-4o-mini", "deepseek-chat"}, got)
}

func TestAttach_MirrorsWithoutKeys(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	s := newStore()
	require.NoError(t, s.Attach(ctx, backend))
	s.SetLLM("gpt-4o")
	s.SetLLMAPIKey("sk-secret")
	require.NoError(t, s.SetTemperature(0.5))

	data, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "gpt-4o", raw["llm"])

	restored := newStore()
	require.NoError(t, restored.Attach(ctx, backend))
	v := restored.Snapshot()
	assert.Equal(t, "gpt-4o", v.LLM)
	assert.Equal(t, 0.5, v.Temperature)
	assert.Empty(t, v.LLMAPIKey)
}

func TestAttach_MalformedIgnored(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, StorageKey, []byte("{oops")))

	s := newStore()
	require.NoError(t, s.Attach(ctx, backend))
	assert.Equal(t, DefaultValues(), s.Snapshot())
}

func TestAttach_RestoresZeroTopP(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	s := newStore()
	require.NoError(t, s.Attach(ctx, backend))
	require.NoError(t, s.SetTopP(0))

	restored := newStore()
	require.NoError(t, restored.Attach(ctx, backend))
	assert.Equal(t, 0.0, restored.Snapshot().TopP)
}

func TestAttach_PartialEntryKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, StorageKey, []byte(`{"llm":"ollama-llama3.1"}`)))

	s := newStore()
	require.NoError(t, s.Attach(ctx, backend))
	v := s.Snapshot()
	assert.Equal(t, "ollama-llama3.1", v.LLM)
	assert.Equal(t, DefaultTopP, v.TopP)
	assert.Equal(t, DefaultTemperature, v.Temperature)
}

func TestMirror_ConcurrentSettersEndConsistent(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	s := newStore()
	require.NoError(t, s.Attach(ctx, backend))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SetTemperature(float64(i%20) / 10)
			_ = s.SetMaxTokens(100 + i)
		}(i)
	}
	wg.Wait()

	data, err := backend.Get(ctx, StorageKey)
	require.NoError(t, err)
	var stored Values
	require.NoError(t, json.Unmarshal(data, &stored))

	v := s.Snapshot()
	assert.Equal(t, v.Temperature, stored.Temperature)
	assert.Equal(t, v.MaxTokens, stored.MaxTokens)
}

func TestValidationError_Unwrap(t *testing.T) {
	err := error(noKeyError("llmApiKey", "gpt-4o"))
	assert.True(t, errors.Is(err, ErrNoAPIKey))
	assert.False(t, errors.Is(err, ErrNoModel))
}
