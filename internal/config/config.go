package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the fieldsync
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional JSON
// file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the engine version.
	App App `envPrefix:"APP_" json:"app"`

	// Storage holds configuration for the local replica database and the
	// durability floor used by the storage quota check.
	Storage Storage `envPrefix:"STORAGE_" json:"storage"`

	// Remote holds settings for the sync transport that reaches the remote
	// system of record.
	Remote Remote `envPrefix:"REMOTE_" json:"remote"`

	// Sync holds background drain settings.
	Sync Sync `envPrefix:"SYNC_" json:"sync"`

	// Device holds the optional fixed device identifier. When empty, a stable
	// identifier is generated on first run and persisted in the local store.
	Device Device `envPrefix:"DEVICE_" json:"device"`

	// JSONFilePath is the optional path to a JSON configuration file. When
	// non-empty, the file is parsed and merged on top of the values already
	// loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running engine.
	// Env: APP_VERSION
	Version string `env:"VERSION" json:"version"`
}

// Storage holds settings for the embedded local database.
type Storage struct {
	// DB holds the SQLite connection settings.
	DB DB `envPrefix:"DB_" json:"db"`

	// MinFreeBytes is the free-space floor under which the storage quota
	// check reports degraded durability. Zero disables the check.
	// Env: STORAGE_MIN_FREE_BYTES
	MinFreeBytes int64 `env:"MIN_FREE_BYTES" json:"min_free_bytes"`
}

// DB holds connection settings for the local replica database.
type DB struct {
	// DSN is the SQLite database file path
	// (e.g. "/var/lib/fieldsync/replica.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN" json:"dsn"`
}

// Remote holds settings for the outbound sync transport.
type Remote struct {
	// BaseURL is the root URL of the remote system of record
	// (e.g. "https://api.example.com").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL" json:"base_url"`

	// RequestTimeout bounds a single outbound push or pull
	// (e.g. "15s", "1m"). Timeout policy lives in the transport, not in the
	// queue: a timed-out push is recorded as one failed attempt.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" json:"request_timeout"`

	// HashKey is the optional HMAC key for the request integrity header.
	// When empty, requests are sent unsigned.
	// Env: REMOTE_HASH_KEY
	HashKey string `env:"HASH_KEY" json:"hash_key"`

	// AuthToken is the bearer token presented to the remote backend. Tenant
	// authorization is enforced remotely; the engine only carries the token.
	// Env: REMOTE_AUTH_TOKEN
	AuthToken string `env:"AUTH_TOKEN" json:"auth_token"`
}

// Sync holds background drain settings.
type Sync struct {
	// Interval is how often the background job drains the queue (e.g. "5m").
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL" json:"interval"`

	// Concurrency caps how many queue items are in flight against the remote
	// collaborator at once. Items for the same entity are never concurrent
	// regardless of this value.
	// Env: SYNC_CONCURRENCY
	Concurrency int `env:"CONCURRENCY" json:"concurrency"`
}

// Device holds the device identity override.
type Device struct {
	// ID pins the device identifier instead of generating one. Useful for
	// test rigs and device re-provisioning.
	// Env: DEVICE_ID
	ID string `env:"ID" json:"id"`
}

// GetConfig loads, merges, and validates the engine configuration from all
// available sources in the following priority order (first non-zero field
// wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source fails
// to load or the final config fails validation.
func GetConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
