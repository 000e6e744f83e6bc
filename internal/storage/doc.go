// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides client-side conversation persistence for ragchat.
//
// Conversations are stored as JSON records in a small key-value Backend,
// one key per conversation named "chat:{id}". The same backend also holds
// the persisted UI flags and the mirrored generation parameters.
//
// # Key Types
//
//   - Backend: Key-value medium (memory, file, sqlite, bolt, redis)
//   - ChatStore: Save/Load/LoadAll/Remove/Clear over ChatRecords
//   - ChatRecord: Persisted conversation (id, title, timestamps, path, messages)
//   - Invalidator: Collaborator told when a conversation path goes stale
//
// # Usage
//
//	backend, err := storage.Open(ctx, storage.Options{Kind: storage.KindFile, Dir: dir})
//	store := storage.NewChatStore(backend, renderCache)
//	err = store.Save(ctx, id, messages)
//	rec, found, err := store.Load(ctx, id)
//
// # Failure Semantics
//
// Backend I/O failures are returned as *Error values that match
// ErrUnavailable under errors.Is. Malformed records are never returned as
// errors: Load reports them as absent and LoadAll skips them.
//
// There is no cross-process locking. Two processes writing the same
// conversation resolve as last-write-wins.
package storage
