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

// Package store wires the MVCC store, lease manager and watch hub together
// into the single entrypoint the rest of confstore talks to.
package store

import (
	"context"
	"fmt"

	"confstore/internal/backend"
	"confstore/internal/lease"
	"confstore/internal/mvcc"
	"confstore/internal/watch"
	"confstore/pkg/config"
	applog "confstore/pkg/log"
	"confstore/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// ClusterInfo reports read-only status for a single confstore node. It
// mirrors the fields a client needs to reason about staleness and
// compaction, trimmed to what makes sense without a multi-node cluster.
type ClusterInfo struct {
	MemberID          string
	CurrentRevision   int64
	CompactedRevision int64
	ActiveLeaseCount  int
	LiveKeyCount      int64
}

// Store is the top-level confstore handle: MVCC key-value storage, leases
// and prefix watches, composed behind one Close.
type Store struct {
	cfg *config.Config

	be backend.Backend

	mvcc      mvcc.Store
	leases    *lease.Manager
	watches   *watch.Hub
	compactor *mvcc.Compactor

	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// New builds a Store from cfg. The backend is a FileBackend rooted at
// cfg.Server.DataDir when set, or an in-memory MemBackend otherwise.
func New(cfg *config.Config) (*Store, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	be, err := newBackend(cfg.Server.DataDir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	mvccStore, err := mvcc.NewMemoryStore(be)
	if err != nil {
		_ = be.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	leaseCfg := lease.DefaultConfig()
	leaseCfg.Metrics = m
	if cfg.Server.Lease.CheckInterval > 0 {
		leaseCfg.CheckInterval = cfg.Server.Lease.CheckInterval
	}
	if cfg.Server.Lease.MinTTL > 0 {
		leaseCfg.MinTTL = cfg.Server.Lease.MinTTL
	}
	if cfg.Server.Lease.DefaultTTL > 0 {
		leaseCfg.DefaultTTL = cfg.Server.Lease.DefaultTTL
	}
	if cfg.Server.Lease.MaxTTL > 0 {
		leaseCfg.MaxTTL = cfg.Server.Lease.MaxTTL
	}
	if cfg.Server.Limits.MaxLeaseCount > 0 {
		leaseCfg.MaxLeaseCount = cfg.Server.Limits.MaxLeaseCount
	}
	leaseManager := lease.NewManager(mvccStore, leaseCfg)
	leaseManager.Start()

	memStore, ok := mvccStore.(*mvcc.MemoryStore)
	if !ok {
		return nil, fmt.Errorf("store: mvcc store does not support watches")
	}
	memStore.SetMaxTxnOps(cfg.Server.Limits.MaxTxnOps)
	hub := watch.NewHub(memStore, cfg.Server.Limits.MaxWatchCount, m)

	compactorCfg := mvcc.DefaultCompactorConfig()
	if cfg.Server.Compaction.Mode == "revision" {
		compactorCfg.Mode = mvcc.CompactionModeRevision
	} else {
		compactorCfg.Mode = mvcc.CompactionModePeriodic
	}
	if cfg.Server.Compaction.RetentionCount > 0 {
		compactorCfg.Retention = cfg.Server.Compaction.RetentionCount
	}
	if cfg.Server.Compaction.Period > 0 {
		compactorCfg.Period = cfg.Server.Compaction.Period
	}
	compactor := mvcc.NewCompactor(mvccStore, compactorCfg)
	compactor.Start()

	return &Store{
		cfg:       cfg,
		be:        be,
		mvcc:      mvccStore,
		leases:    leaseManager,
		watches:   hub,
		compactor: compactor,
		registry:  registry,
		metrics:   m,
	}, nil
}

func newBackend(dataDir string) (backend.Backend, error) {
	if dataDir == "" {
		return backend.NewMemBackend(), nil
	}
	return backend.NewFileBackend(dataDir)
}

// Registry exposes the store's Prometheus registry, e.g. for an HTTP
// /metrics handler.
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// Put writes key=value, optionally attaching it to leaseID. An empty
// leaseID leaves the key unleased and detaches any previous binding.
func (s *Store) Put(key, value []byte, leaseID string) (int64, error) {
	if leaseID != "" {
		if _, ok := s.leases.Get(leaseID); !ok {
			return 0, lease.ErrLeaseNotFound
		}
	}

	rev, err := s.mvcc.Put(key, value, leaseID)
	if err != nil {
		return 0, err
	}

	if leaseID != "" {
		if err := s.leases.AttachKey(leaseID, key); err != nil {
			applog.Warn("store: failed to attach key to lease after put",
				applog.LeaseID(leaseID), applog.Key(key), applog.Err(err))
		}
	} else {
		s.leases.DetachKey(key)
	}

	return rev, nil
}

// Get retrieves key at rev (0 for latest).
func (s *Store) Get(key []byte, rev int64) (*mvcc.KeyValue, error) {
	return s.mvcc.Get(key, rev)
}

// GetPrefix lists all live keys under prefix.
func (s *Store) GetPrefix(prefix []byte) ([]*mvcc.KeyValue, error) {
	return s.mvcc.GetPrefix(prefix)
}

// History returns the retained version history of key.
func (s *Store) History(key []byte, limit int) ([]*mvcc.KeyValue, error) {
	return s.mvcc.History(key, limit)
}

// Delete removes key, or every key in [key, rangeEnd) when rangeEnd is set,
// and detaches any lease binding for the deleted key or keys.
func (s *Store) Delete(key []byte, rangeEnd []byte) (int64, int64, error) {
	keys := [][]byte{key}
	if rangeEnd != nil {
		keys = nil
		resp, err := s.mvcc.Txn(context.Background()).
			Then(mvcc.Op{Type: mvcc.OpTypeGet, Key: key, End: rangeEnd}).
			Commit()
		if err == nil && len(resp.Responses) == 1 {
			for _, kv := range resp.Responses[0].Kvs {
				keys = append(keys, kv.Key)
			}
		}
	}
	rev, deleted, err := s.mvcc.Delete(key, rangeEnd)
	if err != nil {
		return 0, 0, err
	}
	for _, k := range keys {
		s.leases.DetachKey(k)
	}

	return rev, deleted, nil
}

// Txn begins a compare-and-swap transaction.
func (s *Store) Txn(ctx context.Context) mvcc.Txn {
	return s.mvcc.Txn(ctx)
}

// Watch subscribes to change events for keys under prefix, starting from
// startRevision (0 means future events only).
func (s *Store) Watch(ctx context.Context, prefix []byte, startRevision int64, handler watch.EventHandler) (string, context.CancelFunc, error) {
	return s.watches.Watch(ctx, prefix, startRevision, handler)
}

// Unwatch cancels a previously created watch.
func (s *Store) Unwatch(id string) error {
	return s.watches.Unwatch(id)
}

// GrantLease creates a new lease with the given TTL in seconds.
func (s *Store) GrantLease(ctx context.Context, ttlSeconds int64) (*lease.Lease, error) {
	return s.leases.Grant(ctx, ttlSeconds)
}

// KeepaliveLease renews a lease's TTL countdown.
func (s *Store) KeepaliveLease(ctx context.Context, id string) (bool, error) {
	return s.leases.Keepalive(ctx, id)
}

// RevokeLease deletes every key attached to id and discards the lease.
func (s *Store) RevokeLease(ctx context.Context, id string) error {
	return s.leases.Revoke(ctx, id)
}

// TimeToLiveLease returns the seconds remaining before id expires.
func (s *Store) TimeToLiveLease(id string) (int64, error) {
	return s.leases.TimeToLive(id)
}

// ClusterInfo reports this node's current status.
func (s *Store) ClusterInfo() ClusterInfo {
	return ClusterInfo{
		MemberID:          s.cfg.Server.MemberID,
		CurrentRevision:   s.mvcc.CurrentRevision(),
		CompactedRevision: s.mvcc.CompactedRevision(),
		ActiveLeaseCount:  s.leases.Len(),
		LiveKeyCount:      s.mvcc.KeyCount(),
	}
}

// Close shuts down the compactor, lease sweeper and watch dispatchers, then
// closes the backend.
func (s *Store) Close() error {
	s.compactor.Stop()
	s.leases.Stop()
	s.watches.Close()
	return s.mvcc.Close()
}
