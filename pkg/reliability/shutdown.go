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

package reliability

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"confstore/pkg/log"
)

// ShutdownHook runs during one shutdown phase.
type ShutdownHook func(ctx context.Context) error

// ShutdownPhase orders cleanup work during a graceful shutdown.
type ShutdownPhase int

const (
	// PhaseStopAccepting stops the monitoring HTTP listener and watch hub
	// from admitting new watches.
	PhaseStopAccepting ShutdownPhase = iota
	// PhaseDrainWatches cancels outstanding watch subscriptions.
	PhaseDrainWatches
	// PhasePersistState flushes the backend to durable storage.
	PhasePersistState
	// PhaseCloseResources releases file handles and background goroutines.
	PhaseCloseResources
)

// GracefulShutdown coordinates an ordered, timed-out shutdown sequence
// triggered by SIGTERM/SIGINT or an explicit call to Shutdown.
type GracefulShutdown struct {
	mu      sync.RWMutex
	hooks   map[ShutdownPhase][]ShutdownHook
	timeout time.Duration
	done    chan struct{}
	signals chan os.Signal
}

// NewGracefulShutdown creates a shutdown coordinator with the given overall
// timeout (0 defaults to 30s) and registers SIGTERM/SIGINT handling.
func NewGracefulShutdown(timeout time.Duration) *GracefulShutdown {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	gs := &GracefulShutdown{
		hooks:   make(map[ShutdownPhase][]ShutdownHook),
		timeout: timeout,
		done:    make(chan struct{}),
		signals: make(chan os.Signal, 1),
	}

	signal.Notify(gs.signals, syscall.SIGTERM, syscall.SIGINT)

	return gs
}

// RegisterHook adds a hook to run during phase.
func (gs *GracefulShutdown) RegisterHook(phase ShutdownPhase, hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.hooks[phase] = append(gs.hooks[phase], hook)
}

// Wait blocks until a shutdown signal arrives, then runs Shutdown.
func (gs *GracefulShutdown) Wait() {
	sig := <-gs.signals
	log.Info("received shutdown signal",
		log.String("signal", sig.String()),
		log.Component("shutdown"))
	gs.Shutdown()
}

// Shutdown runs every registered phase in order, each under the overall
// timeout. It is safe to call more than once; only the first call runs.
func (gs *GracefulShutdown) Shutdown() {
	gs.mu.Lock()
	select {
	case <-gs.done:
		gs.mu.Unlock()
		return
	default:
		close(gs.done)
	}
	gs.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
	defer cancel()

	phases := []ShutdownPhase{
		PhaseStopAccepting,
		PhaseDrainWatches,
		PhasePersistState,
		PhaseCloseResources,
	}

	for _, phase := range phases {
		phaseName := gs.phaseName(phase)
		log.Info("shutdown phase started",
			log.Phase(phaseName),
			log.Component("shutdown"))

		gs.mu.RLock()
		hooks := gs.hooks[phase]
		gs.mu.RUnlock()

		if err := gs.executeHooks(ctx, hooks, phaseName); err != nil {
			log.Error("shutdown phase failed",
				log.Phase(phaseName),
				log.Err(err),
				log.Component("shutdown"))
		}
	}

	log.Info("graceful shutdown completed", log.Component("shutdown"))
}

func (gs *GracefulShutdown) executeHooks(ctx context.Context, hooks []ShutdownHook, phaseName string) error {
	if len(hooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks))

	for i, hook := range hooks {
		wg.Add(1)
		go func(idx int, h ShutdownHook) {
			defer wg.Done()
			defer RecoverPanic(fmt.Sprintf("shutdown-hook-%s-%d", phaseName, idx))

			if err := h(ctx); err != nil {
				errChan <- fmt.Errorf("hook %d failed: %w", idx, err)
			}
		}(i, hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(errChan)
		var errs []error
		for err := range errChan {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("phase %s had %d errors: %v", phaseName, len(errs), errs[0])
		}
		return nil

	case <-ctx.Done():
		return fmt.Errorf("phase %s timeout: %w", phaseName, ctx.Err())
	}
}

func (gs *GracefulShutdown) phaseName(phase ShutdownPhase) string {
	switch phase {
	case PhaseStopAccepting:
		return "stop-accepting"
	case PhaseDrainWatches:
		return "drain-watches"
	case PhasePersistState:
		return "persist-state"
	case PhaseCloseResources:
		return "close-resources"
	default:
		return fmt.Sprintf("unknown-phase-%d", phase)
	}
}

// Done returns a channel closed once Shutdown has started.
func (gs *GracefulShutdown) Done() <-chan struct{} {
	return gs.done
}

// IsShuttingDown reports whether Shutdown has started.
func (gs *GracefulShutdown) IsShuttingDown() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}
