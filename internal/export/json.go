// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/ragchat/internal/storage"
)

// JSONExporter writes the stored record as indented JSON. The output has the
// same shape as the stored value, so it can be re-imported as is.
type JSONExporter struct{}

// Export marshals rec.
func (e *JSONExporter) Export(rec storage.ChatRecord) ([]byte, error) {
	if len(rec.Messages) == 0 {
		return nil, ErrEmptyChat
	}
	return json.MarshalIndent(rec, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
