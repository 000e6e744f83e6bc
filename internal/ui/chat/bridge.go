// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/storage"
)

// bridge collects events raised outside the update loop. Producers never
// block: a pending wake-up absorbs further pokes until the model drains it.
type bridge struct {
	mu      sync.Mutex
	notices []notify.Notice
	list    []storage.ChatRecord
	hasList bool
	nav     string

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newBridge() *bridge {
	return &bridge{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Notify implements notify.Notifier.
func (b *bridge) Notify(n notify.Notice) {
	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()
	b.poke()
}

// Navigate implements session.Navigator.
func (b *bridge) Navigate(path string) {
	b.mu.Lock()
	b.nav = path
	b.mu.Unlock()
	b.poke()
}

// setList receives chat list publications.
func (b *bridge) setList(records []storage.ChatRecord) {
	b.mu.Lock()
	b.list = records
	b.hasList = true
	b.mu.Unlock()
	b.poke()
}

func (b *bridge) poke() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// pending is what drain hands to the model.
type pending struct {
	notices []notify.Notice
	list    []storage.ChatRecord
	hasList bool
	nav     string
}

func (b *bridge) drain() pending {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := pending{notices: b.notices, list: b.list, hasList: b.hasList, nav: b.nav}
	b.notices, b.list, b.hasList, b.nav = nil, nil, false, ""
	return p
}

// forward delivers a wakeMsg through send for every poke until close.
func (b *bridge) forward(send func(tea.Msg)) {
	for {
		select {
		case <-b.wake:
			send(wakeMsg{})
		case <-b.done:
			return
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.done) })
}
