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

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the unified top-level configuration structure.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures a single confstore node.
type ServerConfig struct {
	MemberID string `yaml:"member_id"`
	// DataDir roots an on-disk FileBackend. Left empty, the node runs an
	// in-memory MemBackend with no persistence across restarts.
	DataDir string `yaml:"data_dir"`

	Limits      LimitsConfig      `yaml:"limits"`
	Lease       LeaseConfig       `yaml:"lease"`
	Compaction  CompactionConfig  `yaml:"compaction"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Log         LogConfig         `yaml:"log"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

// LimitsConfig bounds resource usage to protect a single node.
type LimitsConfig struct {
	MaxWatchCount  int   `yaml:"max_watch_count"`  // Default 10000
	MaxLeaseCount  int   `yaml:"max_lease_count"`  // Default 10000
	MaxKeySize     int   `yaml:"max_key_size"`     // Default 1536 bytes
	MaxValueSize   int   `yaml:"max_value_size"`   // Default 1572864 bytes (1.5MB)
	MaxTxnOps      int   `yaml:"max_txn_ops"`      // Default 128
	MaxHistoryKeep int64 `yaml:"max_history_keep"` // Revisions retained per key before compaction, default 1000
}

// LeaseConfig governs lease TTL bounds and the sweeper cadence.
type LeaseConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"` // Default 1s, how often the sweeper scans for expired leases
	MinTTL        int64         `yaml:"min_ttl_seconds"` // Default 1
	DefaultTTL    int64         `yaml:"default_ttl_seconds"` // Default 60
	MaxTTL        int64         `yaml:"max_ttl_seconds"`     // Default 86400 (24h)
}

// CompactionConfig governs automatic revision-history compaction.
type CompactionConfig struct {
	Mode           string        `yaml:"mode"`            // "periodic" or "revision", default "periodic"
	RetentionCount int64         `yaml:"retention_count"` // kept revisions, used when mode == "revision"
	Period         time.Duration `yaml:"period"`          // Default 10m, used when mode == "periodic"
}

// ReliabilityConfig configures shutdown and panic-recovery behavior.
type ReliabilityConfig struct {
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`      // Default 30s
	EnablePanicRecovery bool          `yaml:"enable_panic_recovery"` // Default true
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level            string   `yaml:"level"`              // Default info
	Encoding         string   `yaml:"encoding"`           // Default console
	OutputPaths      []string `yaml:"output_paths"`       // Default ["stdout"]
	ErrorOutputPaths []string `yaml:"error_output_paths"` // Default ["stderr"]
}

// MonitoringConfig controls the Prometheus and health-check HTTP surface.
type MonitoringConfig struct {
	EnablePrometheus bool   `yaml:"enable_prometheus"` // Default true
	ListenAddress    string `yaml:"listen_address"`    // Default :2480, serves /healthz and /metrics
}

// DefaultConfig returns a configuration populated with recommended defaults
// for the given member id and data directory.
func DefaultConfig(memberID, dataDir string) *Config {
	cfg := &Config{
		Server: ServerConfig{
			MemberID: memberID,
			DataDir:  dataDir,
		},
	}
	cfg.SetDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.SetDefaults()
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault loads path if given and present, otherwise falls back
// to defaults for memberID/dataDir.
func LoadConfigOrDefault(path, memberID, dataDir string) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfig(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := DefaultConfig(memberID, dataDir)
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SetDefaults fills zero-valued fields with production defaults.
func (c *Config) SetDefaults() {
	if c.Server.Limits.MaxWatchCount == 0 {
		c.Server.Limits.MaxWatchCount = 10000
	}
	if c.Server.Limits.MaxLeaseCount == 0 {
		c.Server.Limits.MaxLeaseCount = 10000
	}
	if c.Server.Limits.MaxKeySize == 0 {
		c.Server.Limits.MaxKeySize = 1536
	}
	if c.Server.Limits.MaxValueSize == 0 {
		c.Server.Limits.MaxValueSize = 1572864
	}
	if c.Server.Limits.MaxTxnOps == 0 {
		c.Server.Limits.MaxTxnOps = 128
	}
	if c.Server.Limits.MaxHistoryKeep == 0 {
		c.Server.Limits.MaxHistoryKeep = 1000
	}

	if c.Server.Lease.CheckInterval == 0 {
		c.Server.Lease.CheckInterval = time.Second
	}
	if c.Server.Lease.MinTTL == 0 {
		c.Server.Lease.MinTTL = 1
	}
	if c.Server.Lease.DefaultTTL == 0 {
		c.Server.Lease.DefaultTTL = 60
	}
	if c.Server.Lease.MaxTTL == 0 {
		c.Server.Lease.MaxTTL = 86400
	}

	if c.Server.Compaction.Mode == "" {
		c.Server.Compaction.Mode = "periodic"
	}
	if c.Server.Compaction.Period == 0 {
		c.Server.Compaction.Period = 10 * time.Minute
	}
	if c.Server.Compaction.RetentionCount == 0 {
		c.Server.Compaction.RetentionCount = 1000
	}

	if c.Server.Reliability.ShutdownTimeout == 0 {
		c.Server.Reliability.ShutdownTimeout = 30 * time.Second
	}
	if !c.Server.Reliability.EnablePanicRecovery {
		c.Server.Reliability.EnablePanicRecovery = true
	}

	if c.Server.Log.Level == "" {
		c.Server.Log.Level = "info"
	}
	if c.Server.Log.Encoding == "" {
		c.Server.Log.Encoding = "console"
	}
	if len(c.Server.Log.OutputPaths) == 0 {
		c.Server.Log.OutputPaths = []string{"stdout"}
	}
	if len(c.Server.Log.ErrorOutputPaths) == 0 {
		c.Server.Log.ErrorOutputPaths = []string{"stderr"}
	}

	if !c.Server.Monitoring.EnablePrometheus {
		c.Server.Monitoring.EnablePrometheus = true
	}
	if c.Server.Monitoring.ListenAddress == "" {
		c.Server.Monitoring.ListenAddress = ":2480"
	}
}

// OverrideFromEnv applies CONFSTORE_* environment variable overrides, taking
// precedence over file and defaults.
func (c *Config) OverrideFromEnv() {
	if v := os.Getenv("CONFSTORE_MEMBER_ID"); v != "" {
		c.Server.MemberID = v
	}
	if v := os.Getenv("CONFSTORE_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("CONFSTORE_LOG_LEVEL"); v != "" {
		c.Server.Log.Level = v
	}
	if v := os.Getenv("CONFSTORE_LOG_ENCODING"); v != "" {
		c.Server.Log.Encoding = v
	}
	if v := os.Getenv("CONFSTORE_MONITORING_ADDR"); v != "" {
		c.Server.Monitoring.ListenAddress = v
	}
}

// Validate rejects configurations that would produce undefined behavior.
func (c *Config) Validate() error {
	if c.Server.MemberID == "" {
		return fmt.Errorf("member_id is required")
	}

	if c.Server.Limits.MaxWatchCount <= 0 {
		return fmt.Errorf("limits.max_watch_count must be > 0")
	}
	if c.Server.Limits.MaxLeaseCount <= 0 {
		return fmt.Errorf("limits.max_lease_count must be > 0")
	}
	if c.Server.Limits.MaxKeySize <= 0 {
		return fmt.Errorf("limits.max_key_size must be > 0")
	}
	if c.Server.Limits.MaxValueSize <= 0 {
		return fmt.Errorf("limits.max_value_size must be > 0")
	}
	if c.Server.Limits.MaxTxnOps <= 0 {
		return fmt.Errorf("limits.max_txn_ops must be > 0")
	}

	if c.Server.Lease.CheckInterval <= 0 {
		return fmt.Errorf("lease.check_interval must be > 0")
	}
	if c.Server.Lease.MinTTL <= 0 {
		return fmt.Errorf("lease.min_ttl_seconds must be > 0")
	}
	if c.Server.Lease.MaxTTL < c.Server.Lease.MinTTL {
		return fmt.Errorf("lease.max_ttl_seconds must be >= min_ttl_seconds")
	}
	if c.Server.Lease.DefaultTTL < c.Server.Lease.MinTTL || c.Server.Lease.DefaultTTL > c.Server.Lease.MaxTTL {
		return fmt.Errorf("lease.default_ttl_seconds must be within [min_ttl_seconds, max_ttl_seconds]")
	}

	switch c.Server.Compaction.Mode {
	case "periodic":
		if c.Server.Compaction.Period <= 0 {
			return fmt.Errorf("compaction.period must be > 0 when mode is periodic")
		}
	case "revision":
		if c.Server.Compaction.RetentionCount <= 0 {
			return fmt.Errorf("compaction.retention_count must be > 0 when mode is revision")
		}
	default:
		return fmt.Errorf("compaction.mode must be one of: periodic, revision")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true,
		"error": true, "dpanic": true, "panic": true, "fatal": true,
	}
	if !validLogLevels[c.Server.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, dpanic, panic, fatal")
	}
	if c.Server.Log.Encoding != "json" && c.Server.Log.Encoding != "console" {
		return fmt.Errorf("log.encoding must be either 'json' or 'console'")
	}

	return nil
}
