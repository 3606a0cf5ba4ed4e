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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports whether the store is ready to serve requests.
type HealthFunc func() error

// Server serves /metrics for Prometheus scraping and /healthz for liveness
// checks over a single HTTP listener.
type Server struct {
	server   *http.Server
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewServer builds a metrics/health server bound to addr. health is called
// on every /healthz request; a non-nil error renders 503.
func NewServer(addr string, registry *prometheus.Registry, logger *zap.Logger, health HealthFunc) *Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		MaxRequestsInFlight: 10,
		Timeout:             30 * time.Second,
		ErrorHandling:       promhttp.ContinueOnError,
	}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if health != nil {
			if err := health(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, "not ready: %v\n", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{server: server, registry: registry, logger: logger}
}

// Start runs the server; it blocks until Shutdown is called or it fails.
func (s *Server) Start() error {
	s.logger.Info("starting monitoring server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("monitoring server failed", zap.Error(err))
		return err
	}

	return nil
}

// Shutdown gracefully stops the server within the lifetime of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down monitoring server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("monitoring server shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info("monitoring server stopped")
	return nil
}

// Serve starts the server in a background goroutine and returns immediately.
func Serve(addr string, registry *prometheus.Registry, logger *zap.Logger, health HealthFunc) *Server {
	s := NewServer(addr, registry, logger, health)
	go func() {
		if err := s.Start(); err != nil {
			logger.Error("monitoring server error", zap.Error(err))
		}
	}()
	return s
}
