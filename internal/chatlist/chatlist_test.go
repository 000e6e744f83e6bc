// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/storage"
)

type fakeLoader struct {
	records []storage.ChatRecord
	err     error
	calls   int
}

func (f *fakeLoader) LoadAll(context.Context) ([]storage.ChatRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]storage.ChatRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func rec(id string, created time.Time) storage.ChatRecord {
	return storage.ChatRecord{ID: id, CreatedAt: created, Path: model.ChatPath(id)}
}

func TestProvider_AbsentUntilRefresh(t *testing.T) {
	p := New(&fakeLoader{})
	if _, ok := p.List(); ok {
		t.Fatal("List should be absent before the first refresh")
	}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	list, ok := p.List()
	if !ok {
		t.Fatal("List should be present after refresh")
	}
	if len(list) != 0 {
		t.Errorf("List = %v, want confirmed empty", list)
	}
}

func TestProvider_SortedNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loader := &fakeLoader{records: []storage.ChatRecord{
		rec("old", base),
		rec("new", base.Add(2*time.Hour)),
		rec("mid", base.Add(time.Hour)),
		rec("tie-b", base.Add(time.Hour)),
	}}
	p := New(loader)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	list, _ := p.List()
	want := []string{"new", "mid", "tie-b", "old"}
	if len(list) != len(want) {
		t.Fatalf("len = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Errorf("list not sorted descending at %d", i)
		}
	}
}

func TestProvider_RefreshErrorKeepsPrevious(t *testing.T) {
	loader := &fakeLoader{records: []storage.ChatRecord{rec("a", time.Now())}}
	p := New(loader)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	loader.err = errors.New("backend down")
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	list, ok := p.List()
	if !ok || len(list) != 1 {
		t.Errorf("previous list should be kept, got %v ok=%v", list, ok)
	}
}

func TestProvider_Subscribe(t *testing.T) {
	loader := &fakeLoader{records: []storage.ChatRecord{rec("a", time.Now())}}
	p := New(loader)

	var got [][]storage.ChatRecord
	unsub := p.Subscribe(func(list []storage.ChatRecord) {
		got = append(got, list)
	})

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("subscriber got %v", got)
	}

	unsub()
	unsub()
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("unsubscribed callback still invoked: %d calls", len(got))
	}
}

func TestProvider_WithChatStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewChatStore(storage.NewMemoryBackend(), nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.SetClock(func() time.Time { return at })
		if err := store.Save(ctx, id, []model.Message{model.NewUserMessage(id)}); err != nil {
			t.Fatal(err)
		}
	}

	p := New(store)
	if err := p.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ := p.List()
	if len(list) != 3 || list[0].ID != "third" || list[2].ID != "first" {
		t.Errorf("unexpected order: %v", ids(list))
	}
}

func ids(list []storage.ChatRecord) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}
