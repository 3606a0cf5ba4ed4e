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

// Package lease grants, renews and expires time-bounded leases, and
// deletes the keys attached to a lease once it lapses.
package lease

import (
	"sync"
	"time"
)

// Lease is a time-bounded grant that one or more keys can be attached to.
// When the lease expires, every attached key is deleted from the store.
type Lease struct {
	mu sync.Mutex

	// ID is the opaque, randomly generated lease identifier.
	ID string

	// TTL is the lease's granted time-to-live, in seconds.
	TTL int64

	// GrantedAt is the time the lease was created or last renewed.
	GrantedAt time.Time

	keys map[string][]byte
}

func newLease(id string, ttl int64, now time.Time) *Lease {
	return &Lease{
		ID:        id,
		TTL:       ttl,
		GrantedAt: now,
		keys:      make(map[string][]byte),
	}
}

// ExpiresAt returns the wall-clock time at which the lease lapses.
func (l *Lease) ExpiresAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.GrantedAt.Add(time.Duration(l.TTL) * time.Second)
}

// Expired reports whether the lease has lapsed as of now.
func (l *Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt())
}

// attach binds key to the lease, so it is deleted on expiry.
func (l *Lease) attach(key []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[string(key)] = append([]byte(nil), key...)
}

// detach unbinds key from the lease, e.g. because it was overwritten with a
// different (or no) lease.
func (l *Lease) detach(key []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, string(key))
}

// Keys returns a snapshot of the keys currently attached to the lease.
func (l *Lease) Keys() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, 0, len(l.keys))
	for _, k := range l.keys {
		out = append(out, k)
	}
	return out
}

// KeyCount returns the number of keys currently attached.
func (l *Lease) KeyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// renew resets GrantedAt to now, extending the lease by another full TTL.
func (l *Lease) renew(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.GrantedAt = now
}
