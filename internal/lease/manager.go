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
	"sync"
	"sync/atomic"
	"time"

	"confstore/internal/clock"
	"confstore/internal/mvcc"
	applog "confstore/pkg/log"
	"confstore/pkg/metrics"
	"confstore/pkg/reliability"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config configures a Manager.
type Config struct {
	// CheckInterval is how often the background sweeper looks for expired
	// leases.
	CheckInterval time.Duration

	// MinTTL and MaxTTL bound the TTL a caller may request with Grant.
	MinTTL, MaxTTL int64

	// DefaultTTL is used when Grant is called with ttlSeconds == 0.
	DefaultTTL int64

	// MaxLeaseCount caps the number of live leases. Zero means unlimited.
	MaxLeaseCount int

	// RevokeRate caps how many expired leases are revoked per second, so a
	// pile-up of simultaneous expirations doesn't stall the store with a
	// burst of deletes. Zero means unlimited.
	RevokeRate rate.Limit

	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// DefaultConfig returns sane defaults for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		CheckInterval: 5 * time.Second,
		MinTTL:        1,
		MaxTTL:        365 * 24 * 3600,
		DefaultTTL:    60,
		MaxLeaseCount: 100000,
		RevokeRate:    1000,
		Clock:         clock.System{},
	}
}

// Manager grants, renews and sweeps leases, deleting the keys attached to a
// lease once it expires.
type Manager struct {
	mu      sync.RWMutex
	store   mvcc.Store
	leases  map[string]*Lease
	keyLease map[string]string // key -> lease id, for fast detach on overwrite

	cfg     Config
	clock   clock.Clock
	limiter *rate.Limiter
	metrics *metrics.Metrics

	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewManager creates a Manager bound to store. Call Start to launch the
// background sweeper.
func NewManager(store mvcc.Store, cfg Config) *Manager {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}
	if cfg.MinTTL <= 0 {
		cfg.MinTTL = 1
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 365 * 24 * 3600
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 60
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	var limiter *rate.Limiter
	if cfg.RevokeRate > 0 {
		limiter = rate.NewLimiter(cfg.RevokeRate, int(cfg.RevokeRate)+1)
	}

	return &Manager{
		store:    store,
		leases:   make(map[string]*Lease),
		keyLease: make(map[string]string),
		cfg:      cfg,
		clock:    cfg.Clock,
		limiter:  limiter,
		metrics:  cfg.Metrics,
	}
}

// Grant creates a new lease with the given TTL in seconds. A ttlSeconds of
// 0 uses the manager's configured default. ctx is accepted for interface
// symmetry with the rest of the store's operations; granting never blocks.
func (m *Manager) Grant(ctx context.Context, ttlSeconds int64) (*Lease, error) {
	if m.stopped.Load() {
		return nil, ErrManagerClosed
	}

	if ttlSeconds == 0 {
		ttlSeconds = m.cfg.DefaultTTL
	}
	if ttlSeconds < m.cfg.MinTTL || ttlSeconds > m.cfg.MaxTTL {
		return nil, ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxLeaseCount > 0 && len(m.leases) >= m.cfg.MaxLeaseCount {
		return nil, ErrTooManyLeases
	}

	id := uuid.NewString()
	l := newLease(id, ttlSeconds, m.clock.Now())
	m.leases[id] = l

	if m.metrics != nil {
		m.metrics.ActiveLeases.Set(float64(len(m.leases)))
		m.metrics.LeaseGrantedTotal.Inc()
	}

	applog.Debug("lease granted", applog.LeaseID(id), applog.TTL(ttlSeconds))
	return l, nil
}

// Keepalive renews id, resetting its TTL countdown from now. It reports
// whether the lease was still alive to renew.
func (m *Manager) Keepalive(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	l, ok := m.leases[id]
	m.mu.RUnlock()
	if !ok {
		return false, ErrLeaseNotFound
	}

	l.renew(m.clock.Now())
	return true, nil
}

// Get returns the lease by id, if it is still live.
func (m *Manager) Get(id string) (*Lease, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leases[id]
	return l, ok
}

// TimeToLive returns the seconds remaining before id expires.
func (m *Manager) TimeToLive(id string) (int64, error) {
	m.mu.RLock()
	l, ok := m.leases[id]
	m.mu.RUnlock()
	if !ok {
		return 0, ErrLeaseNotFound
	}

	remaining := int64(l.ExpiresAt().Sub(m.clock.Now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// AttachKey binds key to the lease identified by id, so the key is deleted
// when the lease expires or is revoked. A key may be attached to only one
// lease at a time; attaching it elsewhere detaches the previous binding.
func (m *Manager) AttachKey(id string, key []byte) error {
	m.mu.Lock()
	l, ok := m.leases[id]
	if !ok {
		m.mu.Unlock()
		return ErrLeaseNotFound
	}

	if prevID, exists := m.keyLease[string(key)]; exists && prevID != id {
		if prev, ok := m.leases[prevID]; ok {
			prev.detach(key)
		}
	}
	m.keyLease[string(key)] = id
	m.mu.Unlock()

	l.attach(key)
	return nil
}

// DetachKey unbinds key from whatever lease it is currently attached to, if
// any. Called when a key is overwritten with no lease or deleted directly.
func (m *Manager) DetachKey(key []byte) {
	m.mu.Lock()
	id, ok := m.keyLease[string(key)]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.keyLease, string(key))
	l := m.leases[id]
	m.mu.Unlock()

	if l != nil {
		l.detach(key)
	}
}

// Revoke deletes every key attached to id and discards the lease, whether
// or not it had already expired.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	l, ok := m.leases[id]
	if !ok {
		m.mu.Unlock()
		return ErrLeaseNotFound
	}
	delete(m.leases, id)
	m.mu.Unlock()

	m.revokeLease(ctx, l)
	if m.metrics != nil {
		m.metrics.LeaseRevokedTotal.Inc()
	}
	return nil
}

func (m *Manager) revokeLease(ctx context.Context, l *Lease) {
	for _, key := range l.Keys() {
		if _, _, err := m.store.Delete(key, nil); err != nil {
			applog.Warn("lease: failed to delete attached key on revoke",
				applog.LeaseID(l.ID), applog.Key(key), applog.Err(err))
		}
	}

	m.mu.Lock()
	for _, key := range l.Keys() {
		delete(m.keyLease, string(key))
	}
	delete(m.leases, l.ID)
	count := len(m.leases)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveLeases.Set(float64(count))
	}
}

// Start launches the background goroutine that sweeps expired leases on
// cfg.CheckInterval. It is safe to call Start at most once.
func (m *Manager) Start() {
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.run()
}

// Stop halts the background sweeper and waits for it to exit.
func (m *Manager) Stop() {
	if !m.stopped.CompareAndSwap(false, true) {
		return
	}
	if m.stopCh != nil {
		close(m.stopCh)
		<-m.doneCh
	}
}

func (m *Manager) run() {
	defer reliability.RecoverPanic("lease-sweeper")
	defer close(m.doneCh)

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.SweepOnce(context.Background())
		}
	}
}

// SweepOnce revokes every lease that has expired as of the manager's clock.
// Exported so tests can force a deterministic sweep against a fake clock
// instead of waiting on the real ticker.
func (m *Manager) SweepOnce(ctx context.Context) error {
	now := m.clock.Now()

	m.mu.RLock()
	var expired []*Lease
	for _, l := range m.leases {
		if l.Expired(now) {
			expired = append(expired, l)
		}
	}
	m.mu.RUnlock()

	for _, l := range expired {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		applog.Debug("lease expired", applog.LeaseID(l.ID), applog.Count(int64(l.KeyCount())))
		m.revokeLease(ctx, l)
		if m.metrics != nil {
			m.metrics.LeaseExpiredTotal.Inc()
		}
	}

	return nil
}

// Len returns the number of live leases.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leases)
}
