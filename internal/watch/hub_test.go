// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"confstore/internal/backend"
	"confstore/internal/mvcc"
)

func newTestSource(t *testing.T) *mvcc.MemoryStore {
	t.Helper()
	s, err := mvcc.NewMemoryStore(backend.NewMemBackend())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHubWatchReceivesFutureEvents(t *testing.T) {
	store := newTestSource(t)
	hub := NewHub(store, 0, nil)

	var mu sync.Mutex
	var got []mvcc.Event

	id, cancel, err := hub.Watch(context.Background(), []byte("config/"), 0, func(e mvcc.Event, rev int64) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()
	if id == "" {
		t.Fatal("expected non-empty watch id")
	}

	if _, err := store.Put([]byte("config/a"), []byte("1"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put([]byte("other/b"), []byte("2"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1 (non-prefix key should be filtered)", len(got))
	}
	if string(got[0].Kv.Key) != "config/a" {
		t.Errorf("event key = %q, want config/a", got[0].Kv.Key)
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	store := newTestSource(t)
	hub := NewHub(store, 0, nil)

	id, _, err := hub.Watch(context.Background(), []byte("k"), 0, func(e mvcc.Event, rev int64) {})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := hub.Unwatch(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if hub.Len() != 0 {
		t.Errorf("Len = %d, want 0 after cancel", hub.Len())
	}
}

func TestHubCancelUnknownID(t *testing.T) {
	store := newTestSource(t)
	hub := NewHub(store, 0, nil)

	if err := hub.Unwatch("nope"); err != ErrWatchNotFound {
		t.Errorf("Cancel = %v, want ErrWatchNotFound", err)
	}
}

func TestHubEnforcesMaxCount(t *testing.T) {
	store := newTestSource(t)
	hub := NewHub(store, 1, nil)

	_, cancel1, err := hub.Watch(context.Background(), []byte("a"), 0, func(mvcc.Event, int64) {})
	if err != nil {
		t.Fatalf("first Watch: %v", err)
	}
	defer cancel1()

	if _, _, err := hub.Watch(context.Background(), []byte("b"), 0, func(mvcc.Event, int64) {}); err == nil {
		t.Error("expected error when exceeding max watch count")
	}
}

func TestHubContextCancelEndsDispatcher(t *testing.T) {
	store := newTestSource(t)
	hub := NewHub(store, 0, nil)

	ctx, cancelCtx := context.WithCancel(context.Background())
	id, _, err := hub.Watch(ctx, []byte("k"), 0, func(mvcc.Event, int64) {})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cancelCtx()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Len() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	_ = id
	t.Error("dispatcher did not exit after context cancellation")
}
