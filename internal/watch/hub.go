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

// Package watch delivers prefix-scoped change notifications in revision
// order by tailing the MVCC store's revision log.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"confstore/internal/mvcc"
	applog "confstore/pkg/log"
	"confstore/pkg/metrics"

	"github.com/google/uuid"
)

// ErrWatchNotFound is returned by Unwatch for an unknown or already-cancelled
// watch id.
var ErrWatchNotFound = errors.New("watch: watch not found")

// revisionSource is the subset of mvcc.MemoryStore the hub needs: a way to
// block until a new revision is committed, and a way to read the log of
// committed changes since a given revision. It is satisfied by
// *mvcc.MemoryStore; it exists as an interface so tests can substitute a
// fake without depending on the concrete store.
type revisionSource interface {
	Wait(ctx context.Context, afterRev int64)
	RecordsSince(afterRev int64, prefix []byte) []mvcc.RevisionLogRecord
	CurrentRevision() int64
}

// EventHandler receives watch events for one subscription. It is called
// synchronously from that watch's own dispatcher goroutine; a slow handler
// holds back only its own watch's later events and is never dropped.
type EventHandler func(event mvcc.Event, rev int64)

// Hub creates and cancels prefix watches and owns the per-watch dispatcher
// goroutines that tail the store's revision log.
type Hub struct {
	mu       sync.Mutex
	source   revisionSource
	watches  map[string]*subscription
	maxCount int
	metrics  *metrics.Metrics
}

type subscription struct {
	id     string
	prefix []byte
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewHub creates a Hub tailing source. maxCount bounds the number of
// concurrently live watches; zero means unlimited.
func NewHub(source revisionSource, maxCount int, m *metrics.Metrics) *Hub {
	return &Hub{
		source:   source,
		watches:  make(map[string]*subscription),
		maxCount: maxCount,
		metrics:  m,
	}
}

// Watch starts a new subscription over keys with the given prefix, starting
// from startRevision (0 means "only future events"). handler is invoked for
// every matching event in increasing revision order until the returned
// cancel function is called or ctx is done. It returns the watch's id and a
// cancel function.
func (h *Hub) Watch(ctx context.Context, prefix []byte, startRevision int64, handler EventHandler) (string, context.CancelFunc, error) {
	h.mu.Lock()
	if h.maxCount > 0 && len(h.watches) >= h.maxCount {
		h.mu.Unlock()
		return "", nil, fmt.Errorf("watch: too many active watches (max %d)", h.maxCount)
	}

	id := uuid.NewString()
	watchCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:     id,
		prefix: append([]byte(nil), prefix...),
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	h.watches[id] = sub
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveWatches.Inc()
		h.metrics.WatchCreatedTotal.Inc()
	}
	applog.Debug("watch created", applog.WatchID(id), applog.Key(prefix), applog.Revision(startRevision))

	d := &dispatcher{
		hub:     h,
		sub:     sub,
		handler: handler,
		source:  h.source,
	}
	go d.run(watchCtx, startRevision)

	return id, func() { h.Unwatch(id) }, nil
}

// Unwatch stops the watch identified by id. Unwatching an already-cancelled
// or unknown id returns ErrWatchNotFound rather than panicking.
func (h *Hub) Unwatch(id string) error {
	h.mu.Lock()
	sub, ok := h.watches[id]
	if !ok {
		h.mu.Unlock()
		return ErrWatchNotFound
	}
	delete(h.watches, id)
	h.mu.Unlock()

	sub.cancel()
	<-sub.doneCh
	return nil
}

// Close cancels every active watch and waits for their dispatchers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.watches))
	for _, sub := range h.watches {
		subs = append(subs, sub)
	}
	h.watches = make(map[string]*subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.doneCh
	}
}

// Len returns the number of currently active watches.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watches)
}

func (h *Hub) forget(id string) {
	h.mu.Lock()
	delete(h.watches, id)
	h.mu.Unlock()
}
