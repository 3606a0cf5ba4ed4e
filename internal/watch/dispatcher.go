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

package watch

import (
	"bytes"
	"context"
	"strings"

	"confstore/internal/mvcc"
	applog "confstore/pkg/log"
	"confstore/pkg/reliability"
)

// dispatcher tails the store's revision log for one subscription, invoking
// its handler for every matching record in revision order. One goroutine
// runs per watch: slow or panicking handlers only affect their own watch,
// never the store or other watches.
type dispatcher struct {
	hub     *Hub
	sub     *subscription
	handler EventHandler
	source  revisionSource
}

func (d *dispatcher) run(ctx context.Context, startRevision int64) {
	defer reliability.RecoverPanic("watch-dispatcher")
	defer close(d.sub.doneCh)
	defer d.hub.forget(d.sub.id)
	defer func() {
		if d.hub.metrics != nil {
			d.hub.metrics.ActiveWatches.Dec()
			d.hub.metrics.WatchCanceledTotal.Inc()
		}
	}()

	afterRev := startRevision
	if afterRev < 0 {
		afterRev = 0
	}
	if afterRev == 0 {
		afterRev = d.source.CurrentRevision()
	}

	for {
		if ctx.Err() != nil {
			return
		}

		records := d.source.RecordsSince(afterRev, d.sub.prefix)
		for _, rec := range records {
			if !bytes.HasPrefix(rec.Kv.Key, d.sub.prefix) {
				continue
			}
			d.deliver(rec)
			afterRev = rec.Revision
		}

		d.source.Wait(ctx, afterRev)
	}
}

func (d *dispatcher) deliver(rec mvcc.RevisionLogRecord) {
	defer func() {
		if r := recover(); r != nil {
			applog.Error("watch handler panicked",
				applog.WatchID(d.sub.id), applog.Any("panic", r))
		}
	}()

	event := mvcc.Event{
		Type:   rec.Type,
		Kv:     rec.Kv,
		PrevKv: rec.PrevKv,
	}

	if d.hub.metrics != nil {
		d.hub.metrics.WatchEventsTotal.WithLabelValues(strings.ToLower(rec.Type.String())).Inc()
	}

	d.handler(event, rec.Revision)
}
