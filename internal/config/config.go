// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is where session snapshots are persisted. Empty means
	// in-memory only, with no durability across restarts.
	DataDir string `koanf:"data_dir"`

	// MaxMatches bounds the total contests per session.
	MaxMatches int `koanf:"max_matches"`

	// MaxWarmupMatches bounds the coverage phase per session.
	MaxWarmupMatches int `koanf:"max_warmup_matches"`

	// StreakThreshold is how many consecutive stable top-3 readings
	// finish a session early.
	StreakThreshold int `koanf:"streak_threshold"`

	// EloK is the rating step size per contest.
	EloK float64 `koanf:"elo_k"`

	// BaseRating is the rating floor every cluster starts from.
	BaseRating float64 `koanf:"base_rating"`

	// SizeBoost weights the ln(1+size) cold-start prior.
	SizeBoost float64 `koanf:"size_boost"`

	// RatioTemperature controls how sharply ratings map to keep ratios.
	RatioTemperature float64 `koanf:"ratio_temperature"`

	// SizePrior enables size-weighted allocation instead of pure softmax.
	SizePrior bool `koanf:"size_prior"`

	// TopPoolSize bounds the refinement candidate pool.
	TopPoolSize int `koanf:"top_pool_size"`

	// SnapshotQueueSize bounds the in-memory snapshot queue.
	SnapshotQueueSize int `koanf:"snapshot_queue_size"`

	// SnapshotWriterCount sets the number of snapshot writers.
	SnapshotWriterCount int `koanf:"snapshot_writer_count"`

	// DedupeSize sets the size of the choice deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the session store.
	ShardCount int `koanf:"shard_count"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DataDir:             "",
		MaxMatches:          12,
		MaxWarmupMatches:    6,
		StreakThreshold:     3,
		EloK:                24,
		BaseRating:          1000,
		SizeBoost:           20,
		RatioTemperature:    200,
		SizePrior:           false,
		TopPoolSize:         8,
		SnapshotQueueSize:   10_000,
		SnapshotWriterCount: runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		ShardCount:          16,
	}
}
