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

// Package etcdcompat converts confstore's native types to and from the
// wire shapes of go.etcd.io/etcd/api/v3's mvccpb package, for embedders
// that want an etcd-wire-compatible view of a read or a watch event
// without confstore itself speaking gRPC.
package etcdcompat

import (
	"errors"

	"confstore/internal/lease"
	"confstore/internal/mvcc"
	"confstore/internal/watch"
)

// Sentinel errors an embedder can compare against with errors.Is,
// independent of which confstore package actually produced the failure.
var (
	ErrKeyNotFound   = errors.New("etcdcompat: key not found")
	ErrCompacted     = errors.New("etcdcompat: required revision has been compacted")
	ErrFutureRev     = errors.New("etcdcompat: required revision is a future revision")
	ErrLeaseNotFound = errors.New("etcdcompat: lease not found")
	ErrWatchNotFound = errors.New("etcdcompat: watch not found")
)

// ToCompatError maps a confstore internal error to its etcdcompat sentinel,
// so callers that only import this package never need to import
// internal/mvcc, internal/lease or internal/watch directly to classify
// errors. Errors with no known mapping are returned unchanged.
func ToCompatError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mvcc.ErrKeyNotFound):
		return ErrKeyNotFound
	case errors.Is(err, mvcc.ErrCompacted):
		return ErrCompacted
	case errors.Is(err, mvcc.ErrFutureRevision):
		return ErrFutureRev
	case errors.Is(err, lease.ErrLeaseNotFound):
		return ErrLeaseNotFound
	case errors.Is(err, watch.ErrWatchNotFound):
		return ErrWatchNotFound
	default:
		return err
	}
}
