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

package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"confstore/internal/backend"
	"confstore/internal/clock"
	"confstore/internal/mvcc"
)

func newTestManager(t *testing.T, fc *clock.Fake) (*Manager, mvcc.Store) {
	t.Helper()

	store, err := mvcc.NewMemoryStore(backend.NewMemBackend())
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := DefaultConfig()
	cfg.Clock = fc
	cfg.MinTTL = 1
	cfg.MaxTTL = 3600
	cfg.DefaultTTL = 30

	return NewManager(store, cfg), store
}

func TestManagerGrantAssignsID(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	l, err := m.Grant(context.Background(), 10)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if l.ID == "" {
		t.Fatal("expected non-empty lease id")
	}
	if l.TTL != 10 {
		t.Errorf("TTL = %d, want 10", l.TTL)
	}
}

func TestManagerGrantRejectsOutOfRangeTTL(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	if _, err := m.Grant(context.Background(), 100000); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("Grant(too big) err = %v, want ErrInvalidTTL", err)
	}
}

func TestManagerGrantEnforcesMaxLeaseCount(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)
	m.cfg.MaxLeaseCount = 1

	if _, err := m.Grant(context.Background(), 10); err != nil {
		t.Fatalf("first Grant: %v", err)
	}
	if _, err := m.Grant(context.Background(), 10); !errors.Is(err, ErrTooManyLeases) {
		t.Errorf("second Grant err = %v, want ErrTooManyLeases", err)
	}
}

func TestManagerKeepaliveResetsExpiry(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	l, err := m.Grant(context.Background(), 10)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}

	fc.Advance(9 * time.Second)
	if _, err := m.Keepalive(context.Background(), l.ID); err != nil {
		t.Fatalf("Keepalive: %v", err)
	}

	fc.Advance(9 * time.Second)
	if l.Expired(fc.Now()) {
		t.Error("lease should not be expired after keepalive renewal")
	}
}

func TestManagerKeepaliveUnknownLease(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	if _, err := m.Keepalive(context.Background(), "does-not-exist"); !errors.Is(err, ErrLeaseNotFound) {
		t.Errorf("Keepalive err = %v, want ErrLeaseNotFound", err)
	}
}

func TestManagerAttachKeyDeletedOnExpiry(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, store := newTestManager(t, fc)

	l, err := m.Grant(context.Background(), 10)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if _, err := store.Put([]byte("config/a"), []byte("1"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.AttachKey(l.ID, []byte("config/a")); err != nil {
		t.Fatalf("AttachKey: %v", err)
	}

	fc.Advance(11 * time.Second)
	if err := m.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	if _, ok := m.Get(l.ID); ok {
		t.Error("lease should be gone after sweep")
	}
	if _, err := store.Get([]byte("config/a"), 0); !errors.Is(err, mvcc.ErrKeyNotFound) {
		t.Errorf("Get after expiry = %v, want ErrKeyNotFound", err)
	}
}

func TestManagerSweepOnceLeavesLiveLeasesAlone(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, store := newTestManager(t, fc)

	l, err := m.Grant(context.Background(), 30)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := store.Put([]byte("config/a"), []byte("1"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.AttachKey(l.ID, []byte("config/a")); err != nil {
		t.Fatalf("AttachKey: %v", err)
	}

	fc.Advance(5 * time.Second)
	if err := m.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	if _, ok := m.Get(l.ID); !ok {
		t.Error("lease should still be live")
	}
	if _, err := store.Get([]byte("config/a"), 0); err != nil {
		t.Errorf("Get = %v, want nil", err)
	}
}

func TestManagerRevokeDeletesAttachedKeys(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, store := newTestManager(t, fc)

	l, err := m.Grant(context.Background(), 60)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	store.Put([]byte("a"), []byte("1"), "")
	store.Put([]byte("b"), []byte("2"), "")
	m.AttachKey(l.ID, []byte("a"))
	m.AttachKey(l.ID, []byte("b"))

	if err := m.Revoke(context.Background(), l.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := store.Get([]byte("a"), 0); !errors.Is(err, mvcc.ErrKeyNotFound) {
		t.Errorf("Get(a) = %v, want ErrKeyNotFound", err)
	}
	if _, err := store.Get([]byte("b"), 0); !errors.Is(err, mvcc.ErrKeyNotFound) {
		t.Errorf("Get(b) = %v, want ErrKeyNotFound", err)
	}
	if _, ok := m.Get(l.ID); ok {
		t.Error("lease should be gone after revoke")
	}
}

func TestManagerRevokeUnknownLease(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	if err := m.Revoke(context.Background(), "nope"); !errors.Is(err, ErrLeaseNotFound) {
		t.Errorf("Revoke err = %v, want ErrLeaseNotFound", err)
	}
}

func TestManagerAttachKeyMovesBetweenLeases(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, store := newTestManager(t, fc)

	l1, _ := m.Grant(context.Background(), 60)
	l2, _ := m.Grant(context.Background(), 60)
	store.Put([]byte("a"), []byte("1"), "")

	m.AttachKey(l1.ID, []byte("a"))
	m.AttachKey(l2.ID, []byte("a"))

	if l1.KeyCount() != 0 {
		t.Errorf("l1 should no longer hold the key, got %d", l1.KeyCount())
	}
	if l2.KeyCount() != 1 {
		t.Errorf("l2 should hold the key, got %d", l2.KeyCount())
	}
}

func TestManagerTimeToLive(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)

	l, _ := m.Grant(context.Background(), 10)
	fc.Advance(4 * time.Second)

	ttl, err := m.TimeToLive(l.ID)
	if err != nil {
		t.Fatalf("TimeToLive: %v", err)
	}
	if ttl != 6 {
		t.Errorf("TimeToLive = %d, want 6", ttl)
	}
}

func TestManagerStartStop(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m, _ := newTestManager(t, fc)
	m.cfg.CheckInterval = time.Millisecond

	m.Start()
	m.Stop()
}
