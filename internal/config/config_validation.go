package config

import (
	"strings"
	"time"
)

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("config: bad default duration " + s)
	}
	return d
}

// Defaults applied after the merge, before validation. Only settings with a
// sensible universal value get one; the replica path and remote URL must be
// supplied explicitly.
const (
	defaultRequestTimeout  = "15s"
	defaultSyncInterval    = "5m"
	defaultSyncConcurrency = 4
)

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Remote.RequestTimeout == 0 {
		cfg.Remote.RequestTimeout = mustDuration(defaultRequestTimeout)
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = mustDuration(defaultSyncInterval)
	}
	if cfg.Sync.Concurrency <= 0 {
		cfg.Sync.Concurrency = defaultSyncConcurrency
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Remote.BaseURL == "" {
		return ErrInvalidRemoteConfigs
	}

	return nil
}
