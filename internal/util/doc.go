// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the storage and UI layers.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes / TruncateRunesNoEllipsis: UTF-8 safe truncation
//   - TruncateWidth / PadWidth: display-width aware truncation and padding
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - RemoveFile: Delete a file, treating "already gone" as success
//
// # Usage
//
//	title := util.TruncateRunesNoEllipsis(content, 100)
//	cell := util.PadWidth(util.TruncateWidth(title, 30), 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
