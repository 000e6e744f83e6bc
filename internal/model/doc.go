// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages and the
// catalog of models the RAG backend can be asked to use.
//
// # Key Types
//
//   - Message: Single message with id, role and content
//   - Role: Message role enumeration (user, assistant, system)
//   - ModelInfo: Catalog entry for an LLM or embedding model
//
// # Usage
//
//	msg := model.NewUserMessage("What is in the report?")
//	id := model.NewChatID() // 7-character conversation id
//
//	info, ok := model.GetModelInfo("gpt-4o-mini")
//	if ok && info.Hosted {
//	    // an API key is required
//	}
package model
