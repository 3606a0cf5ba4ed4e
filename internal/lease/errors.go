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

import "errors"

var (
	// ErrLeaseNotFound is returned when a lease id is unknown or has
	// already expired.
	ErrLeaseNotFound = errors.New("lease: lease not found")

	// ErrInvalidTTL is returned when a requested TTL falls outside the
	// manager's configured [MinTTL, MaxTTL] bounds.
	ErrInvalidTTL = errors.New("lease: invalid ttl")

	// ErrTooManyLeases is returned when granting a lease would exceed the
	// configured maximum number of live leases.
	ErrTooManyLeases = errors.New("lease: too many leases")

	// ErrManagerClosed is returned when operating on a stopped manager.
	ErrManagerClosed = errors.New("lease: manager is closed")
)
