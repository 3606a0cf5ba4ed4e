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

// Command confstore runs a single-node MVCC configuration store with
// time-bounded leases, prefix watches and compare-and-swap transactions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"confstore/internal/store"
	"confstore/pkg/config"
	"confstore/pkg/health"
	applog "confstore/pkg/log"
	"confstore/pkg/metrics"
	"confstore/pkg/reliability"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	memberID := flag.String("member-id", "node-1", "identifier for this node, used when -config is not given")
	dataDir := flag.String("data-dir", "./data", "on-disk data directory, used when -config is not given")
	flag.Parse()

	if err := run(*configPath, *memberID, *dataDir); err != nil {
		fmt.Fprintln(os.Stderr, "confstore:", err)
		os.Exit(1)
	}
}

func run(configPath, memberID, dataDir string) error {
	cfg, err := config.LoadConfigOrDefault(configPath, memberID, dataDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := applog.InitFromConfig(&cfg.Server.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer applog.Sync()
	logger := applog.GetLogger().Zap()

	applog.Info("starting confstore",
		applog.String("member_id", cfg.Server.MemberID),
		applog.String("data_dir", cfg.Server.DataDir),
		applog.Component("main"))

	st, err := store.New(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	hs := health.NewHealthServer(logger)
	hs.RegisterChecker(health.NewStoreChecker("mvcc", func(ctx context.Context) error {
		st.ClusterInfo()
		return nil
	}))
	hs.RegisterChecker(health.NewDiskSpaceChecker("disk", cfg.Server.DataDir, 1, 90))

	healthFn := func() error {
		report := hs.Check(context.Background())
		if report.Status == health.StatusUnhealthy {
			return fmt.Errorf("node unhealthy")
		}
		return nil
	}

	monitor := metrics.Serve(cfg.Server.Monitoring.ListenAddress, st.Registry(), logger, healthFn)

	shutdown := reliability.NewGracefulShutdown(cfg.Server.Reliability.ShutdownTimeout)
	shutdown.RegisterHook(reliability.PhaseStopAccepting, func(ctx context.Context) error {
		return monitor.Shutdown(ctx)
	})
	shutdown.RegisterHook(reliability.PhaseCloseResources, func(ctx context.Context) error {
		return st.Close()
	})

	applog.Info("confstore ready",
		applog.String("monitoring_addr", cfg.Server.Monitoring.ListenAddress),
		applog.Component("main"))

	shutdown.Wait()
	return nil
}
