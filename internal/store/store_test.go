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

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"confstore/internal/mvcc"
	"confstore/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DefaultConfig("node-1", "")
	cfg.Server.Lease.CheckInterval = 10 * time.Millisecond
	cfg.Server.Compaction.Mode = "revision"

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put([]byte("a"), []byte("1"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}

	kv, err := s.Get([]byte("a"), 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(kv.Value) != "1" {
		t.Errorf("value = %q, want 1", kv.Value)
	}
}

func TestStorePutRejectsUnknownLease(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put([]byte("a"), []byte("1"), "does-not-exist"); err == nil {
		t.Error("expected error for unknown lease id")
	}
}

func TestStorePutAttachesLeaseAndExpiryDeletesKey(t *testing.T) {
	s := newTestStore(t)

	l, err := s.GrantLease(context.Background(), 1)
	if err != nil {
		t.Fatalf("GrantLease: %v", err)
	}

	if _, err := s.Put([]byte("a"), []byte("1"), l.ID); err != nil {
		t.Fatalf("Put: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Get([]byte("a"), 0); errors.Is(err, mvcc.ErrKeyNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("key was not deleted after lease expired")
}

func TestStoreDeleteDetachesLease(t *testing.T) {
	s := newTestStore(t)

	l, _ := s.GrantLease(context.Background(), 60)
	s.Put([]byte("a"), []byte("1"), l.ID)
	s.Delete([]byte("a"), nil)

	// Re-put with no lease should not be affected by the old binding.
	if _, err := s.Put([]byte("a"), []byte("2"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.RevokeLease(context.Background(), l.ID); err != nil {
		t.Fatalf("RevokeLease: %v", err)
	}
	kv, err := s.Get([]byte("a"), 0)
	if err != nil {
		t.Fatalf("Get after revoke: %v", err)
	}
	if string(kv.Value) != "2" {
		t.Errorf("value = %q, want 2 (key should have survived the unrelated lease revoke)", kv.Value)
	}
}

func TestStoreWatchDeliversPutEvent(t *testing.T) {
	s := newTestStore(t)

	var mu sync.Mutex
	var got []mvcc.Event

	_, cancel, err := s.Watch(context.Background(), []byte("cfg/"), 0, func(e mvcc.Event, rev int64) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	if _, err := s.Put([]byte("cfg/a"), []byte("1"), ""); err != nil {
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
		t.Fatalf("got %d events, want 1", len(got))
	}
}

func TestStoreTxnCompareAndSwap(t *testing.T) {
	s := newTestStore(t)

	s.Put([]byte("a"), []byte("1"), "")

	txn := s.Txn(context.Background())
	result, err := txn.
		If(mvcc.Condition{Key: []byte("a"), Target: mvcc.ConditionTargetValue, Compare: mvcc.CompareEqual, Value: []byte("1")}).
		Then(mvcc.Op{Type: mvcc.OpTypePut, Key: []byte("a"), Value: []byte("2")}).
		Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("expected txn to succeed")
	}

	kv, err := s.Get([]byte("a"), 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(kv.Value) != "2" {
		t.Errorf("value = %q, want 2", kv.Value)
	}
}

func TestStoreTxnMultiOpDistinctRevisions(t *testing.T) {
	s := newTestStore(t)

	before := s.ClusterInfo().CurrentRevision

	result, err := s.Txn(context.Background()).
		Then(
			mvcc.Op{Type: mvcc.OpTypePut, Key: []byte("a"), Value: []byte("1")},
			mvcc.Op{Type: mvcc.OpTypePut, Key: []byte("b"), Value: []byte("2")},
		).
		Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(result.Responses) != 2 {
		t.Fatalf("Responses = %d, want 2", len(result.Responses))
	}
	if result.Responses[0].Revision == result.Responses[1].Revision {
		t.Error("two puts in one Then() must not share a revision")
	}

	after := s.ClusterInfo().CurrentRevision
	if after != before+2 {
		t.Errorf("CurrentRevision = %d, want %d (two puts, two revisions)", after, before+2)
	}
}

func TestStoreClusterInfo(t *testing.T) {
	s := newTestStore(t)

	s.Put([]byte("a"), []byte("1"), "")
	l, _ := s.GrantLease(context.Background(), 60)
	s.Put([]byte("b"), []byte("2"), l.ID)

	info := s.ClusterInfo()
	if info.MemberID != "node-1" {
		t.Errorf("MemberID = %q, want node-1", info.MemberID)
	}
	if info.LiveKeyCount != 2 {
		t.Errorf("LiveKeyCount = %d, want 2", info.LiveKeyCount)
	}
	if info.ActiveLeaseCount != 1 {
		t.Errorf("ActiveLeaseCount = %d, want 1", info.ActiveLeaseCount)
	}
	if info.CurrentRevision <= 0 {
		t.Error("expected a positive current revision")
	}
}
