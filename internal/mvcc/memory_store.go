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

package mvcc

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"confstore/internal/backend"
)

// MemoryStore is the concrete Store implementation. Despite its name it is
// not necessarily in-memory only: versioned key-value pairs are kept in a
// backend.Backend (MemBackend or the crash-durable FileBackend), and
// MemoryStore layers the MVCC revision index and watch notification on top
// of whatever Backend it is given. The name is kept for continuity with the
// revision-indexing design it grew out of.
type MemoryStore struct {
	mu sync.RWMutex

	be backend.Backend

	// keyIndex tracks all revisions for each key.
	keyIndex *KeyIndex

	// revisionGen generates new revisions.
	revisionGen *RevisionGenerator

	// compactedRev is the revision that has been compacted.
	compactedRev Revision

	// revLog is the append-only in-memory log of committed events that
	// watch dispatchers tail. It is compacted in lockstep with the backend.
	revLog []RevisionLogRecord

	// cond wakes watch dispatchers blocked waiting for new revisions.
	cond *sync.Cond

	// maxTxnOps caps the size of a transaction's Then list and of its Else
	// list, each on its own. Zero means unlimited.
	maxTxnOps int

	closed bool
}

// SetMaxTxnOps bounds how many operations a single transaction's Then or
// Else list may hold. n <= 0 removes the bound.
func (s *MemoryStore) SetMaxTxnOps(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxTxnOps = n
}

// NewMemoryStore creates a Store backed by be, replaying any existing
// revision records to rebuild the in-memory key index.
func NewMemoryStore(be backend.Backend) (*MemoryStore, error) {
	s := &MemoryStore{
		be:          be,
		keyIndex:    NewKeyIndex(),
		revisionGen: NewRevisionGenerator(Zero),
		compactedRev: Zero,
	}
	s.cond = sync.NewCond(&s.mu)

	if err := s.replay(); err != nil {
		return nil, fmt.Errorf("mvcc: replay backend: %w", err)
	}
	return s, nil
}

// replay rebuilds the key index and revision generator from whatever the
// backend already holds, so a FileBackend-backed store resumes with the
// same visible state it had before restart.
func (s *MemoryStore) replay() error {
	entries, err := s.be.Range(backend.TableRevisions, nil, nil, 0)
	if err != nil {
		return err
	}

	maxRev := Zero
	for _, e := range entries {
		rev := ParseRevision(e.Key)
		kv, err := DefaultCodec.Decode(e.Value)
		if err != nil {
			return fmt.Errorf("decode revision record: %w", err)
		}
		if kv.Version == 0 {
			s.keyIndex.Delete(kv.Key, rev)
		} else {
			s.keyIndex.Put(kv.Key, rev)
		}
		if rev.GreaterThan(maxRev) {
			maxRev = rev
		}
	}
	s.revisionGen.SetMain(maxRev.Main)
	s.revisionGen.current.Sub = maxRev.Sub
	return nil
}

func (s *MemoryStore) putRevisionRecord(rev Revision, kv *KeyValue) error {
	return s.be.Put(backend.TableRevisions, rev.Bytes(), DefaultCodec.Encode(kv))
}

func (s *MemoryStore) getRevisionRecord(rev Revision) (*KeyValue, error) {
	data, err := s.be.Get(backend.TableRevisions, rev.Bytes())
	if err != nil {
		return nil, err
	}
	return DefaultCodec.Decode(data)
}

// appendLog appends a committed event to the revision log and wakes any
// dispatchers blocked in Wait. kv carries the full post-event metadata
// (CreateRevision, ModRevision, Version, Lease) so watch dispatchers don't
// need a second lookup against the store. Must be called with s.mu held.
func (s *MemoryStore) appendLog(rev Revision, typ EventType, kv *KeyValue, prevKv *KeyValue) {
	s.revLog = append(s.revLog, RevisionLogRecord{
		Revision: rev.Main,
		Type:     typ,
		Kv:       kv,
		PrevKv:   prevKv,
	})
	s.cond.Broadcast()
}

// Wait blocks until the revision log has an entry past afterRev or ctx is
// done, whichever comes first. It is the synchronization primitive watch
// dispatchers use instead of being pushed events directly by Put/Delete.
func (s *MemoryStore) Wait(ctx context.Context, afterRev int64) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		close(done)
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case <-done:
			return
		default:
		}
		if ctx.Err() != nil {
			return
		}
		if len(s.revLog) > 0 && s.revLog[len(s.revLog)-1].Revision > afterRev {
			return
		}
		s.cond.Wait()
	}
}

// RecordsSince returns a snapshot of log records with Revision > afterRev
// whose key matches prefix, in ascending revision order.
func (s *MemoryStore) RecordsSince(afterRev int64, prefix []byte) []RevisionLogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RevisionLogRecord
	for _, rec := range s.revLog {
		if rec.Revision <= afterRev {
			continue
		}
		if prefix != nil && !bytes.HasPrefix(rec.Kv.Key, prefix) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Put stores a key-value pair and returns the new revision.
func (s *MemoryStore) Put(key, value []byte, leaseID string) (int64, error) {
	if len(key) == 0 {
		return 0, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	rev := s.revisionGen.Next()
	now := time.Now()

	createRev, version, _ := s.lastVersionLocked(key)
	if createRev == 0 {
		createRev = rev.Main
	}

	kv := &KeyValue{
		Key:            append([]byte{}, key...),
		Value:          append([]byte{}, value...),
		CreateRevision: createRev,
		ModRevision:    rev.Main,
		Version:        version + 1,
		Lease:          leaseID,
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := s.putRevisionRecord(rev, kv); err != nil {
		return 0, fmt.Errorf("mvcc: %w", err)
	}
	s.keyIndex.Put(key, rev)
	s.appendLog(rev, EventTypePut, kv, nil)

	return rev.Main, nil
}

// lastVersionLocked returns the create revision and version of the current
// live generation of key, or (0, 0, false) if the key has no live value.
// Must be called with s.mu held.
func (s *MemoryStore) lastVersionLocked(key []byte) (createRev, version int64, ok bool) {
	ki := s.keyIndex.Get(key)
	if ki == nil || ki.IsDeleted() {
		return 0, 0, false
	}
	prevRev := ki.CurrentGeneration().LastRevision()
	if prevRev.IsZero() {
		return 0, 0, false
	}
	prevKv, err := s.getRevisionRecord(prevRev)
	if err != nil {
		return 0, 0, false
	}
	return prevKv.CreateRevision, prevKv.Version, true
}

// Get retrieves the value for a key at a specific revision.
func (s *MemoryStore) Get(key []byte, rev int64) (*KeyValue, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	atRev := Revision{Main: rev}
	if rev == 0 {
		atRev = s.revisionGen.Current()
	}

	if atRev.LessThan(s.compactedRev) {
		return nil, ErrCompacted
	}
	if atRev.GreaterThan(s.revisionGen.Current()) {
		return nil, ErrFutureRevision
	}

	keyRev := s.keyIndex.GetRevision(key, atRev)
	if keyRev.IsZero() {
		return nil, ErrKeyNotFound
	}

	kv, err := s.getRevisionRecord(keyRev)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	if kv.Version == 0 {
		return nil, ErrKeyNotFound
	}

	return kv.Clone(), nil
}

// GetPrefix returns all live key-value pairs under prefix, at the current revision.
func (s *MemoryStore) GetPrefix(prefix []byte) ([]*KeyValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	end := prefixRangeEnd(prefix)

	var result []*KeyValue
	s.keyIndex.Range(prefix, end, Zero, func(key []byte, keyRev Revision) bool {
		kv, err := s.getRevisionRecord(keyRev)
		if err != nil || kv.Version == 0 {
			return true
		}
		result = append(result, kv.Clone())
		return true
	})

	return result, nil
}

// prefixRangeEnd computes the lexicographically smallest key greater than
// every key with the given prefix, or nil if prefix is empty or all 0xff.
func prefixRangeEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// History returns up to limit past versions of key, oldest first, excluding
// tombstones.
func (s *MemoryStore) History(key []byte, limit int) ([]*KeyValue, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	ki := s.keyIndex.Get(key)
	if ki == nil {
		return nil, ErrKeyNotFound
	}

	var out []*KeyValue
	for _, gen := range ki.Generations {
		for _, rev := range gen.Revisions {
			kv, err := s.getRevisionRecord(rev)
			if err != nil || kv.Version == 0 {
				continue
			}
			out = append(out, kv.Clone())
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}

	return out, nil
}

// Delete deletes key, or every live key in [key, rangeEnd) when rangeEnd is
// non-nil, consuming exactly one revision either way.
func (s *MemoryStore) Delete(key []byte, rangeEnd []byte) (int64, int64, error) {
	if len(key) == 0 {
		return 0, 0, ErrEmptyKey
	}
	if rangeEnd != nil && bytes.Compare(rangeEnd, key) <= 0 {
		return 0, 0, ErrInvalidRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrClosed
	}

	if rangeEnd == nil {
		return s.deleteOneLocked(key)
	}
	return s.deleteRangeLocked(key, rangeEnd)
}

func (s *MemoryStore) deleteOneLocked(key []byte) (int64, int64, error) {
	rev := s.revisionGen.Next()

	ki := s.keyIndex.Get(key)
	if ki == nil || ki.IsDeleted() {
		// Deleting an already-absent key still consumes a revision and
		// leaves a tombstone, for a deterministic audit trail.
		tombstone := s.newTombstoneLocked(key, rev, 0)
		if err := s.putRevisionRecord(rev, tombstone); err != nil {
			return 0, 0, fmt.Errorf("mvcc: %w", err)
		}
		s.appendLog(rev, EventTypeDelete, tombstone, nil)
		return rev.Main, 0, nil
	}

	prevKv, _ := s.getRevisionRecord(ki.CurrentGeneration().LastRevision())
	tombstone := s.newTombstoneLocked(key, rev, prevKv.CreateRevision)

	if err := s.putRevisionRecord(rev, tombstone); err != nil {
		return 0, 0, fmt.Errorf("mvcc: %w", err)
	}
	s.keyIndex.Delete(key, rev)
	s.appendLog(rev, EventTypeDelete, tombstone, prevKv)

	return rev.Main, 1, nil
}

func (s *MemoryStore) deleteRangeLocked(start, end []byte) (int64, int64, error) {
	var keys [][]byte
	s.keyIndex.Range(start, end, Zero, func(key []byte, keyRev Revision) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})

	rev := s.revisionGen.Next()
	if len(keys) == 0 {
		return rev.Main, 0, nil
	}

	var deleted int64
	for i, key := range keys {
		ki := s.keyIndex.Get(key)
		if ki == nil || ki.IsDeleted() {
			continue
		}
		deleteRev := s.revisionGen.SubOf(int64(i))

		prevKv, _ := s.getRevisionRecord(ki.CurrentGeneration().LastRevision())
		tombstone := s.newTombstoneLocked(key, deleteRev, prevKv.CreateRevision)

		if err := s.putRevisionRecord(deleteRev, tombstone); err != nil {
			return 0, 0, fmt.Errorf("mvcc: %w", err)
		}
		s.keyIndex.Delete(key, deleteRev)
		s.appendLog(deleteRev, EventTypeDelete, tombstone, prevKv)
		deleted++
	}

	if deleted > 0 {
		s.revisionGen.current.Sub = int64(len(keys) - 1)
	}

	return rev.Main, deleted, nil
}

func (s *MemoryStore) newTombstoneLocked(key []byte, rev Revision, createRev int64) *KeyValue {
	now := time.Now()
	return &KeyValue{
		Key:            append([]byte{}, key...),
		Value:          nil,
		CreateRevision: createRev,
		ModRevision:    rev.Main,
		Version:        0,
		ModifiedAt:     now,
	}
}

// Txn executes a transaction.
func (s *MemoryStore) Txn(ctx context.Context) Txn {
	return &memoryTxn{store: s, ctx: ctx}
}

// CurrentRevision returns the current revision.
func (s *MemoryStore) CurrentRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revisionGen.Current().Main
}

// CompactedRevision returns the revision that has been compacted.
func (s *MemoryStore) CompactedRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compactedRev.Main
}

// KeyCount returns the number of keys that currently exist.
func (s *MemoryStore) KeyCount() int64 {
	return s.keyIndex.LiveCount()
}

// Compact compacts all revisions before the given revision.
func (s *MemoryStore) Compact(rev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	targetRev := Revision{Main: rev}

	if targetRev.LessThanOrEqual(s.compactedRev) {
		return ErrCompacted
	}
	if targetRev.GreaterThan(s.revisionGen.Current()) {
		return ErrFutureRevision
	}

	s.keyIndex.Compact(targetRev)

	entries, err := s.be.Range(backend.TableRevisions, nil, nil, 0)
	if err != nil {
		return fmt.Errorf("mvcc: %w", err)
	}
	for _, e := range entries {
		if ParseRevision(e.Key).LessThan(targetRev) {
			if err := s.be.Delete(backend.TableRevisions, e.Key); err != nil {
				return fmt.Errorf("mvcc: %w", err)
			}
		}
	}

	if len(s.revLog) > 0 {
		kept := s.revLog[:0]
		for _, rec := range s.revLog {
			if rec.Revision >= targetRev.Main {
				kept = append(kept, rec)
			}
		}
		s.revLog = kept
	}

	s.compactedRev = targetRev
	return nil
}

// Close closes the store and wakes any dispatchers blocked in Wait.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.closed = true
	s.cond.Broadcast()
	return s.be.Close()
}

// memoryTxn implements Txn for MemoryStore.
type memoryTxn struct {
	store *MemoryStore
	ctx   context.Context

	conditions []Condition
	thenOps    []Op
	elseOps    []Op
}

func (t *memoryTxn) If(conds ...Condition) Txn {
	t.conditions = append(t.conditions, conds...)
	return t
}

func (t *memoryTxn) Then(ops ...Op) Txn {
	t.thenOps = append(t.thenOps, ops...)
	return t
}

func (t *memoryTxn) Else(ops ...Op) Txn {
	t.elseOps = append(t.elseOps, ops...)
	return t
}

func (t *memoryTxn) Commit() (*TxnResponse, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.closed {
		return nil, ErrClosed
	}

	if t.store.maxTxnOps > 0 && (len(t.thenOps) > t.store.maxTxnOps || len(t.elseOps) > t.store.maxTxnOps) {
		return nil, ErrTxnTooBig
	}

	succeeded := true
	for _, cond := range t.conditions {
		if !t.evaluateCondition(cond) {
			succeeded = false
			break
		}
	}

	ops := t.thenOps
	if !succeeded {
		ops = t.elseOps
	}

	// Each applied op mints its own revision from the store's single
	// monotonic counter, the same counter non-transactional Put/Delete
	// calls draw from. A txn is not a nested Main/Sub scope: two puts in
	// one Then() list must land on two distinct, consecutive revisions,
	// not share one revision differentiated only internally.
	rev := t.store.revisionGen.Current().Main
	responses := make([]OpResponse, len(ops))
	for i, op := range ops {
		resp, err := t.executeOp(op)
		if err != nil {
			return nil, err
		}
		responses[i] = resp
		if resp.Revision > rev {
			rev = resp.Revision
		}
	}

	return &TxnResponse{
		Succeeded: succeeded,
		Revision:  rev,
		Responses: responses,
	}, nil
}

func (t *memoryTxn) evaluateCondition(cond Condition) bool {
	ki := t.store.keyIndex.Get(cond.Key)

	var kv *KeyValue
	if ki != nil && !ki.IsDeleted() {
		lastRev := ki.CurrentGeneration().LastRevision()
		if !lastRev.IsZero() {
			kv, _ = t.store.getRevisionRecord(lastRev)
		}
	}

	var actual interface{}
	switch cond.Target {
	case ConditionTargetVersion:
		actual = int64(0)
		if kv != nil {
			actual = kv.Version
		}
	case ConditionTargetCreateRevision:
		actual = int64(0)
		if kv != nil {
			actual = kv.CreateRevision
		}
	case ConditionTargetModRevision:
		actual = int64(0)
		if kv != nil {
			actual = kv.ModRevision
		}
	case ConditionTargetValue:
		actual = []byte(nil)
		if kv != nil {
			actual = kv.Value
		}
	}

	return compareValues(actual, cond.Compare, cond.Value)
}

func compareValues(actual interface{}, cmp CompareType, expected interface{}) bool {
	switch a := actual.(type) {
	case int64:
		e, _ := expected.(int64)
		switch cmp {
		case CompareEqual:
			return a == e
		case CompareNotEqual:
			return a != e
		case CompareLess:
			return a < e
		case CompareGreater:
			return a > e
		}
	case []byte:
		e, _ := expected.([]byte)
		result := bytes.Compare(a, e)
		switch cmp {
		case CompareEqual:
			return result == 0
		case CompareNotEqual:
			return result != 0
		case CompareLess:
			return result < 0
		case CompareGreater:
			return result > 0
		}
	}
	return false
}

func (t *memoryTxn) executeOp(op Op) (OpResponse, error) {
	switch op.Type {
	case OpTypePut:
		return t.executePut(op)
	case OpTypeGet:
		return t.executeGet(op), nil
	case OpTypeDelete:
		return t.executeDelete(op)
	case OpTypeDeleteRange:
		return t.executeDeleteRange(op)
	}
	return OpResponse{Type: op.Type}, nil
}

func (t *memoryTxn) executePut(op Op) (OpResponse, error) {
	key := op.Key
	now := time.Now()
	rev := t.store.revisionGen.Next()

	createRev, version, _ := t.store.lastVersionLocked(key)
	if createRev == 0 {
		createRev = rev.Main
	}

	kv := &KeyValue{
		Key:            append([]byte{}, key...),
		Value:          append([]byte{}, op.Value...),
		CreateRevision: createRev,
		ModRevision:    rev.Main,
		Version:        version + 1,
		Lease:          op.LeaseID,
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := t.store.putRevisionRecord(rev, kv); err != nil {
		return OpResponse{}, fmt.Errorf("mvcc: %w", err)
	}
	t.store.keyIndex.Put(key, rev)
	t.store.appendLog(rev, EventTypePut, kv, nil)

	return OpResponse{Type: OpTypePut, Key: append([]byte{}, key...), Revision: rev.Main}, nil
}

func (t *memoryTxn) executeGet(op Op) OpResponse {
	resp := OpResponse{Type: OpTypeGet}

	if op.End == nil {
		ki := t.store.keyIndex.Get(op.Key)
		if ki != nil && !ki.IsDeleted() {
			lastRev := ki.CurrentGeneration().LastRevision()
			if !lastRev.IsZero() {
				if kv, err := t.store.getRevisionRecord(lastRev); err == nil {
					resp.Kvs = []*KeyValue{kv.Clone()}
				}
			}
		}
		return resp
	}

	t.store.keyIndex.Range(op.Key, op.End, Zero, func(key []byte, keyRev Revision) bool {
		if kv, err := t.store.getRevisionRecord(keyRev); err == nil && kv.Version > 0 {
			resp.Kvs = append(resp.Kvs, kv.Clone())
		}
		return true
	})

	return resp
}

func (t *memoryTxn) executeDelete(op Op) (OpResponse, error) {
	resp := OpResponse{Type: OpTypeDelete, Key: append([]byte{}, op.Key...)}

	ki := t.store.keyIndex.Get(op.Key)
	if ki == nil || ki.IsDeleted() {
		// As with a non-transactional delete, an absent key still consumes a
		// revision and leaves a tombstone.
		rev := t.store.revisionGen.Next()
		tombstone := t.store.newTombstoneLocked(op.Key, rev, 0)
		if err := t.store.putRevisionRecord(rev, tombstone); err != nil {
			return OpResponse{}, fmt.Errorf("mvcc: %w", err)
		}
		t.store.appendLog(rev, EventTypeDelete, tombstone, nil)
		resp.Revision = rev.Main
		return resp, nil
	}

	rev := t.store.revisionGen.Next()
	prevKv, _ := t.store.getRevisionRecord(ki.CurrentGeneration().LastRevision())
	tombstone := t.store.newTombstoneLocked(op.Key, rev, prevKv.CreateRevision)

	if err := t.store.putRevisionRecord(rev, tombstone); err != nil {
		return OpResponse{}, fmt.Errorf("mvcc: %w", err)
	}
	t.store.keyIndex.Delete(op.Key, rev)
	t.store.appendLog(rev, EventTypeDelete, tombstone, prevKv)

	resp.Deleted = 1
	resp.Revision = rev.Main
	resp.PrevKv = prevKv.Clone()
	return resp, nil
}

// executeDeleteRange deletes every live key in [op.Key, op.End) as a single
// op within the transaction. Like the non-transactional range delete, the
// whole range consumes exactly one externally-visible revision; Sub only
// disambiguates the per-key backend records that share it.
func (t *memoryTxn) executeDeleteRange(op Op) (OpResponse, error) {
	resp := OpResponse{Type: OpTypeDeleteRange, Key: append([]byte{}, op.Key...)}

	var keys [][]byte
	t.store.keyIndex.Range(op.Key, op.End, Zero, func(key []byte, keyRev Revision) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})

	baseRev := t.store.revisionGen.Next()
	resp.Revision = baseRev.Main

	for i, key := range keys {
		ki := t.store.keyIndex.Get(key)
		if ki == nil || ki.IsDeleted() {
			continue
		}
		deleteRev := t.store.revisionGen.SubOf(int64(i))

		prevKv, _ := t.store.getRevisionRecord(ki.CurrentGeneration().LastRevision())
		tombstone := t.store.newTombstoneLocked(key, deleteRev, prevKv.CreateRevision)

		if err := t.store.putRevisionRecord(deleteRev, tombstone); err != nil {
			return OpResponse{}, fmt.Errorf("mvcc: %w", err)
		}
		t.store.keyIndex.Delete(key, deleteRev)
		t.store.appendLog(deleteRev, EventTypeDelete, tombstone, prevKv)
		resp.Deleted++
	}

	return resp, nil
}
