// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatlist holds the sorted list of stored conversations shown in
// the sidebar. One Provider is created at program start and shared by every
// consumer; it is refreshed explicitly and never polls.
package chatlist

import (
	"context"
	"sort"
	"sync"

	"github.com/jeranaias/ragchat/internal/storage"
)

// Loader is the subset of storage.ChatStore the provider needs.
type Loader interface {
	LoadAll(ctx context.Context) ([]storage.ChatRecord, error)
}

// Provider publishes the conversation list sorted newest first.
type Provider struct {
	loader Loader

	mu     sync.RWMutex
	list   []storage.ChatRecord
	loaded bool

	subMu   sync.Mutex
	subs    map[int]func([]storage.ChatRecord)
	nextSub int
}

// New creates a provider. The list is absent until the first Refresh.
func New(loader Loader) *Provider {
	return &Provider{
		loader: loader,
		subs:   make(map[int]func([]storage.ChatRecord)),
	}
}

// List returns a copy of the current list. ok is false until the first
// successful refresh, so callers can tell "not loaded" from "empty".
func (p *Provider) List() ([]storage.ChatRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return nil, false
	}
	out := make([]storage.ChatRecord, len(p.list))
	copy(out, p.list)
	return out, true
}

// Len returns the number of listed conversations.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.list)
}

// Refresh reloads every record, sorts by CreatedAt descending and publishes
// the result. On error the previous list is kept.
func (p *Provider) Refresh(ctx context.Context) error {
	records, err := p.loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	Sort(records)

	p.mu.Lock()
	p.list = records
	p.loaded = true
	p.mu.Unlock()

	p.publish(records)
	return nil
}

// Subscribe registers fn for every published list and returns a function
// that removes it. fn is called outside the provider's locks.
func (p *Provider) Subscribe(fn func([]storage.ChatRecord)) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
		})
	}
}

func (p *Provider) publish(records []storage.ChatRecord) {
	p.subMu.Lock()
	fns := make([]func([]storage.ChatRecord), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		out := make([]storage.ChatRecord, len(records))
		copy(out, records)
		fn(out)
	}
}

// Sort orders records newest first. Equal timestamps fall back to id so the
// order is stable across refreshes.
func Sort(records []storage.ChatRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
