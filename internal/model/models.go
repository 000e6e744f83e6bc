// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages and models.
package model

import (
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// Kind distinguishes generation models from embedding models.
type Kind string

const (
	KindLLM   Kind = "llm"
	KindEmbed Kind = "embed"
)

// ModelInfo contains information about a model the backend understands.
type ModelInfo struct {
	// ID is the model identifier sent to the backend
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who serves the model (OpenAI, DeepSeek, Ollama, ...)
	Provider string `json:"provider"`

	// Kind is llm or embed
	Kind Kind `json:"kind"`

	// Hosted models are called through a paid API and need a key.
	// Local models run on self-hosted infrastructure.
	Hosted bool `json:"hosted"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of models offered in the parameter panel.
var Models = map[string]ModelInfo{
	"gpt-4o-mini": {ID: "gpt-4o-mini", Name: "GPT-4o Mini", Provider: "OpenAI", Kind: KindLLM, Hosted: true},
	"gpt-4o":      {ID: "gpt-4o", Name: "GPT-4o", Provider: "OpenAI", Kind: KindLLM, Hosted: true},
	"deepseek-chat": {
		ID: "deepseek-chat", Name: "DeepSeek Chat", Provider: "DeepSeek", Kind: KindLLM, Hosted: true,
	},
	"mistral-small": {
		ID: "mistral-small", Name: "Mistral Small", Provider: "Mistral", Kind: KindLLM, Hosted: true,
	},
	"ollama-llama3.1": {
		ID: "ollama-llama3.1", Name: "Llama 3.1 (Ollama)", Provider: "Ollama", Kind: KindLLM,
	},
	"huggingface-qwen2.5": {
		ID: "huggingface-qwen2.5", Name: "Qwen 2.5 (HuggingFace)", Provider: "HuggingFace", Kind: KindLLM,
	},

	"gpt-text-embedding-3-small": {
		ID: "gpt-text-embedding-3-small", Name: "OpenAI text-embedding-3-small", Provider: "OpenAI", Kind: KindEmbed, Hosted: true,
	},
	"mistral-embed": {
		ID: "mistral-embed", Name: "Mistral Embed", Provider: "Mistral", Kind: KindEmbed, Hosted: true,
	},
	"voyage-3": {ID: "voyage-3", Name: "Voyage 3", Provider: "Voyage", Kind: KindEmbed, Hosted: true},
	"ollama-mxbai-embed-large": {
		ID: "ollama-mxbai-embed-large", Name: "mxbai-embed-large (Ollama)", Provider: "Ollama", Kind: KindEmbed,
	},
	"huggingface-bge-large": {
		ID: "huggingface-bge-large", Name: "bge-large (HuggingFace)", Provider: "HuggingFace", Kind: KindEmbed,
	},
}

// GetModelInfo looks up a model by ID (case-insensitive).
func GetModelInfo(id string) (ModelInfo, bool) {
	if info, ok := Models[id]; ok {
		return info, true
	}
	lower := strings.ToLower(id)
	for key, info := range Models {
		if strings.ToLower(key) == lower {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByKind returns all registered models of the given kind, sorted by ID.
func GetModelsByKind(kind Kind) []ModelInfo {
	var result []ModelInfo
	for _, info := range Models {
		if info.Kind == kind {
			result = append(result, info)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// GetLLMModels returns all generation models.
func GetLLMModels() []ModelInfo {
	return GetModelsByKind(KindLLM)
}

// GetEmbedModels returns all embedding models.
func GetEmbedModels() []ModelInfo {
	return GetModelsByKind(KindEmbed)
}
