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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "confstore"

// Metrics holds the Prometheus collectors for one store instance. New takes
// a caller-supplied registry rather than using prometheus' global default so
// multiple stores (e.g. in tests) never collide on collector names.
type Metrics struct {
	// Storage operation metrics
	StorageOperationDuration *prometheus.HistogramVec
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationErrors   *prometheus.CounterVec

	// Watch metrics
	ActiveWatches      prometheus.Gauge
	WatchEventsTotal   *prometheus.CounterVec
	WatchCreatedTotal  prometheus.Counter
	WatchCanceledTotal prometheus.Counter
	WatchSlowDropped   prometheus.Counter

	// Lease metrics
	ActiveLeases      prometheus.Gauge
	LeaseGrantedTotal prometheus.Counter
	LeaseRevokedTotal prometheus.Counter
	LeaseExpiredTotal prometheus.Counter

	// MVCC metrics
	CurrentRevision    prometheus.Gauge
	CompactedRevision  prometheus.Gauge
	KeysTotal          prometheus.Gauge
	DeletesTotal       prometheus.Counter
	CompactionsTotal   prometheus.Counter
	CompactionDuration prometheus.Histogram

	// Panic recovery metrics
	PanicsRecovered *prometheus.CounterVec
}

// New creates and registers all collectors against registry.
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		StorageOperationDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Histogram of storage operation latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),

		StorageOperationTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation"},
		),

		StorageOperationErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_errors_total",
				Help:      "Total number of storage operation errors",
			},
			[]string{"operation", "error"},
		),

		ActiveWatches: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "active_total",
				Help:      "Current number of active watches",
			},
		),

		WatchEventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "events_total",
				Help:      "Total number of watch events delivered",
			},
			[]string{"event_type"}, // "put", "delete"
		),

		WatchCreatedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "created_total",
				Help:      "Total number of watches created",
			},
		),

		WatchCanceledTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "canceled_total",
				Help:      "Total number of watches canceled",
			},
		),

		WatchSlowDropped: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "slow_dropped_total",
				Help:      "Total number of watches force-canceled for lagging behind the event stream",
			},
		),

		ActiveLeases: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "lease",
				Name:      "active_total",
				Help:      "Current number of non-expired leases",
			},
		),

		LeaseGrantedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lease",
				Name:      "granted_total",
				Help:      "Total number of leases granted",
			},
		),

		LeaseRevokedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lease",
				Name:      "revoked_total",
				Help:      "Total number of leases explicitly revoked",
			},
		),

		LeaseExpiredTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lease",
				Name:      "expired_total",
				Help:      "Total number of leases revoked by the sweeper after TTL expiry",
			},
		),

		CurrentRevision: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "current_revision",
				Help:      "Current MVCC revision",
			},
		),

		CompactedRevision: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "compacted_revision",
				Help:      "Revision watermark below which history has been purged",
			},
		),

		KeysTotal: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "keys_total",
				Help:      "Total number of live (non-tombstoned) keys",
			},
		),

		DeletesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "deletes_total",
				Help:      "Total number of key deletions",
			},
		),

		CompactionsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "compactions_total",
				Help:      "Total number of compaction runs",
			},
		),

		CompactionDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mvcc",
				Name:      "compaction_duration_seconds",
				Help:      "Histogram of compaction run durations",
				Buckets:   prometheus.DefBuckets,
			},
		),

		PanicsRecovered: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered",
			},
			[]string{"goroutine"},
		),
	}
}

// RecordStorageOperation records a storage operation's duration and status.
func (m *Metrics) RecordStorageOperation(operation, status string, duration time.Duration) {
	m.StorageOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	m.StorageOperationTotal.WithLabelValues(operation).Inc()
}

// RecordStorageError records a storage operation error.
func (m *Metrics) RecordStorageError(operation, errorType string) {
	m.StorageOperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordWatchEvent records a watch event dispatch.
func (m *Metrics) RecordWatchEvent(eventType string) {
	m.WatchEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordPanicRecovered records a recovered panic.
func (m *Metrics) RecordPanicRecovered(goroutine string) {
	m.PanicsRecovered.WithLabelValues(goroutine).Inc()
}
