// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package params

import (
	"strings"

	"github.com/jeranaias/ragchat/internal/model"
)

// Default provider prefixes.
var (
	DefaultHostedPrefixes = []string{"gpt", "deepseek", "mistral", "voyage"}
	DefaultLocalPrefixes  = []string{"ollama", "huggingface"}
)

// Catalog classifies model ids as hosted (API key required) or local.
type Catalog struct {
	Hosted []string
	Local  []string
}

// DefaultCatalog returns the built-in classification.
func DefaultCatalog() Catalog {
	return Catalog{
		Hosted: append([]string(nil), DefaultHostedPrefixes...),
		Local:  append([]string(nil), DefaultLocalPrefixes...),
	}
}

// IsHosted reports whether id belongs to a hosted provider.
func (c Catalog) IsHosted(id string) bool {
	return matchPrefix(c.Hosted, id)
}

// IsLocal reports whether id belongs to a self-hosted provider.
func (c Catalog) IsLocal(id string) bool {
	return matchPrefix(c.Local, id)
}

// RequiresKey reports whether using id needs an API key.
func (c Catalog) RequiresKey(id string) bool {
	return c.IsHosted(id) && !c.IsLocal(id)
}

// Models returns the registry entries of kind, split into hosted and local.
// Entries matching neither set are omitted.
func (c Catalog) Models(kind model.Kind) (hosted, local []model.ModelInfo) {
	for _, m := range model.GetModelsByKind(kind) {
		switch {
		case c.IsLocal(m.ID):
			local = append(local, m)
		case c.IsHosted(m.ID):
			hosted = append(hosted, m)
		}
	}
	return hosted, local
}

func matchPrefix(prefixes []string, id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(id, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
