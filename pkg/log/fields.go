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

package log

import (
	"time"

	"go.uber.org/zap"
)

// Generic fields, thin wrappers kept so callers only ever import this
// package rather than zap directly.

func String(key, val string) zap.Field         { return zap.String(key, val) }
func Int64(key string, val int64) zap.Field     { return zap.Int64(key, val) }
func Int(key string, val int) zap.Field         { return zap.Int(key, val) }
func Uint64(key string, val uint64) zap.Field   { return zap.Uint64(key, val) }
func Bool(key string, val bool) zap.Field       { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) zap.Field  { return zap.Time(key, val) }
func Err(err error) zap.Field                   { return zap.Error(err) }
func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }
func Namespace(key string) zap.Field            { return zap.Namespace(key) }

// Domain fields for the key-value store, leases and watches.

// Key names the KV entry a log line is about.
func Key(key []byte) zap.Field {
	return zap.ByteString("key", key)
}

func KeyString(key string) zap.Field {
	return zap.String("key", key)
}

// Value logs the raw value, but only its size once it crosses 1KiB so large
// blobs don't flood the sink.
func Value(value []byte) zap.Field {
	if len(value) > 1024 {
		return zap.Int("value_size", len(value))
	}
	return zap.ByteString("value", value)
}

func Revision(rev int64) zap.Field {
	return zap.Int64("revision", rev)
}

// LeaseID logs a lease's opaque string id.
func LeaseID(id string) zap.Field {
	return zap.String("lease_id", id)
}

func TTL(ttl int64) zap.Field {
	return zap.Int64("ttl_seconds", ttl)
}

func WatchID(id string) zap.Field {
	return zap.String("watch_id", id)
}

func MemberID(id string) zap.Field {
	return zap.String("member_id", id)
}

func Component(name string) zap.Field {
	return zap.String("component", name)
}

func Phase(phase string) zap.Field {
	return zap.String("phase", phase)
}

func Count(count int64) zap.Field {
	return zap.Int64("count", count)
}

func Goroutine(name string) zap.Field {
	return zap.String("goroutine", name)
}
