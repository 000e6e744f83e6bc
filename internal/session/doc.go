// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one conversation: it validates and submits
// prompts, applies streamed deltas to the trailing assistant message, and
// persists the transcript when a response completes.
//
// # States
//
//	Initializing -> Idle <-> Streaming -> Idle | Errored
//
// Errored behaves like Idle for the next action; the user may submit again
// or reload. Stop moves Streaming to Idle at once; deltas that arrive after
// a stop are dropped and the partial response is not persisted.
//
// # Persistence
//
// A completed response writes the whole message list once. The first
// completion of a new conversation also navigates to its canonical path and
// refreshes the conversation list. Deleting the last message removes the
// stored record.
package session
