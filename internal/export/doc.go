// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved conversations out as Markdown or JSON.
//
// # Key Types
//
//   - Exporter: converts a storage.ChatRecord to bytes
//   - Options: metadata and timestamp toggles
//
// # Usage
//
//	exp, err := export.For("md", export.DefaultOptions())
//	path, err := export.ToFile(rec, exp, ".")
package export
