// Package config defines service configuration structures and loading.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBDriver selects the relational store: sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver-specific data source name.
	DBDSN string `koanf:"db_dsn"`

	// SlotWeights maps schedule slot types to their base scoring weight.
	// A slot type missing from this map is a configuration error at
	// scoring time, never a silent zero.
	SlotWeights map[string]float64 `koanf:"slot_weights"`

	// GraceMinutes is the lateness allowance with no score penalty.
	GraceMinutes int `koanf:"grace_minutes"`

	// DecayMinutes is the window past the grace threshold over which a
	// late arrival's contribution decays linearly toward the floor.
	DecayMinutes int `koanf:"decay_minutes"`

	// DecayFloor is the minimum timing multiplier in [0,1] for very late
	// arrivals. Contributions never go negative.
	DecayFloor float64 `koanf:"decay_floor"`

	// WorkerCount bounds concurrent per-member scoring.
	WorkerCount int `koanf:"worker_count"`

	// MaxSummaryLimit caps GET /summary?limit.
	MaxSummaryLimit int `koanf:"max_summary_limit"`

	// ComputeTimeoutSec bounds one weekly computation end to end.
	ComputeTimeoutSec int `koanf:"compute_timeout_sec"`

	// FCMEndpoint and FCMServerKey configure the push gateway used by the
	// notifier process. The scoring engine itself never calls it.
	FCMEndpoint  string `koanf:"fcm_endpoint"`
	FCMServerKey string `koanf:"fcm_server_key"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",
		DBDriver: "sqlite",
		DBDSN:    "",
		SlotWeights: map[string]float64{
			"sunday_service":  10,
			"midweek_service": 10,
			"prayer_meeting":  6,
			"bible_study":     8,
		},
		GraceMinutes:      10,
		DecayMinutes:      60,
		DecayFloor:        0.4,
		WorkerCount:       runtime.NumCPU() * 2,
		MaxSummaryLimit:   100,
		ComputeTimeoutSec: 30,
		FCMEndpoint:       "https://fcm.googleapis.com/fcm/send",
	}
}
