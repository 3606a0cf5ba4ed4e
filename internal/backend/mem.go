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

package backend

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// entryItem implements btree.Item over an ordered key/value pair.
type entryItem struct {
	key   []byte
	value []byte
}

func (e *entryItem) Less(other btree.Item) bool {
	return bytes.Compare(e.key, other.(*entryItem).key) < 0
}

// MemBackend is an in-memory Backend, one btree per table. It satisfies the
// ordering contract but loses all data on process exit; use FileBackend when
// durability across restarts is required.
type MemBackend struct {
	mu     sync.RWMutex
	trees  map[Table]*btree.BTree
	closed bool
}

// NewMemBackend creates an empty in-memory backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{
		trees: map[Table]*btree.BTree{
			TableKV:        btree.New(32),
			TableLeases:    btree.New(32),
			TableRevisions: btree.New(32),
		},
	}
}

func (b *MemBackend) treeFor(table Table) *btree.BTree {
	t, ok := b.trees[table]
	if !ok {
		t = btree.New(32)
		b.trees[table] = t
	}
	return t
}

func (b *MemBackend) Get(table Table, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	item := b.treeFor(table).Get(&entryItem{key: key})
	if item == nil {
		return nil, ErrNotFound
	}
	return item.(*entryItem).value, nil
}

func (b *MemBackend) Put(table Table, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.treeFor(table).ReplaceOrInsert(&entryItem{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (b *MemBackend) Delete(table Table, key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.treeFor(table).Delete(&entryItem{key: key})
	return nil
}

func (b *MemBackend) Range(table Table, start, end []byte, limit int) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Entry
	b.treeFor(table).AscendGreaterOrEqual(&entryItem{key: start}, func(item btree.Item) bool {
		e := item.(*entryItem)
		if end != nil && bytes.Compare(e.key, end) >= 0 {
			return false
		}
		out = append(out, Entry{Key: append([]byte(nil), e.key...), Value: append([]byte(nil), e.value...)})
		return limit <= 0 || len(out) < limit
	})
	return out, nil
}

func (b *MemBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
