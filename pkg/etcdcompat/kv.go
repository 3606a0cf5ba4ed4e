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

package etcdcompat

import (
	"strconv"

	"confstore/internal/mvcc"

	"go.etcd.io/etcd/api/v3/mvccpb"
)

// ToKeyValue converts a confstore key-value record to its etcd wire
// representation. Lease is carried as a string id internally; since
// mvccpb.KeyValue.Lease is an int64, a non-numeric id round-trips as 0 and
// is only meaningful for display, not for matching against a real etcd
// lease id.
func ToKeyValue(kv *mvcc.KeyValue) *mvccpb.KeyValue {
	if kv == nil {
		return nil
	}
	return &mvccpb.KeyValue{
		Key:            append([]byte(nil), kv.Key...),
		Value:          append([]byte(nil), kv.Value...),
		CreateRevision: kv.CreateRevision,
		ModRevision:    kv.ModRevision,
		Version:        kv.Version,
		Lease:          leaseIDToInt64(kv.Lease),
	}
}

// ToKeyValues converts a slice of key-value records, e.g. the result of a
// prefix read, to their etcd wire representation.
func ToKeyValues(kvs []*mvcc.KeyValue) []*mvccpb.KeyValue {
	out := make([]*mvccpb.KeyValue, len(kvs))
	for i, kv := range kvs {
		out[i] = ToKeyValue(kv)
	}
	return out
}

// FromEvent converts a confstore watch event to its etcd wire
// representation.
func FromEvent(event mvcc.Event) *mvccpb.Event {
	typ := mvccpb.PUT
	if event.Type == mvcc.EventTypeDelete {
		typ = mvccpb.DELETE
	}
	return &mvccpb.Event{
		Type:   typ,
		Kv:     ToKeyValue(event.Kv),
		PrevKv: ToKeyValue(event.PrevKv),
	}
}

func leaseIDToInt64(id string) int64 {
	if id == "" {
		return 0
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return 0
}
