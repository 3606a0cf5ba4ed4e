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
	"errors"
	"testing"
)

func TestMemBackendPutGet(t *testing.T) {
	b := NewMemBackend()

	if err := b.Put(TableKV, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, err := b.Get(TableKV, []byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "1" {
		t.Errorf("got %q, want %q", v, "1")
	}
}

func TestMemBackendGetNotFound(t *testing.T) {
	b := NewMemBackend()

	_, err := b.Get(TableKV, []byte("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemBackendDelete(t *testing.T) {
	b := NewMemBackend()
	b.Put(TableKV, []byte("a"), []byte("1"))
	b.Delete(TableKV, []byte("a"))

	_, err := b.Get(TableKV, []byte("a"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemBackendRangeOrderAndBounds(t *testing.T) {
	b := NewMemBackend()
	for _, k := range []string{"b", "a", "d", "c"} {
		b.Put(TableKV, []byte(k), []byte(k))
	}

	entries, err := b.Range(TableKV, []byte("a"), []byte("d"), 0)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"a", "b", "c"}
	for i, e := range entries {
		if string(e.Key) != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.Key, want[i])
		}
	}
}

func TestMemBackendRangeLimit(t *testing.T) {
	b := NewMemBackend()
	for _, k := range []string{"a", "b", "c"} {
		b.Put(TableKV, []byte(k), []byte(k))
	}

	entries, err := b.Range(TableKV, []byte("a"), nil, 2)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestMemBackendTablesAreIsolated(t *testing.T) {
	b := NewMemBackend()
	b.Put(TableKV, []byte("a"), []byte("kv"))
	b.Put(TableLeases, []byte("a"), []byte("lease"))

	v, err := b.Get(TableLeases, []byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "lease" {
		t.Errorf("got %q, want %q", v, "lease")
	}
}
