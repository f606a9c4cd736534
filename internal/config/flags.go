package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database file path for the local replica
//	-r remote backend base URL
//	-c/-config json file path with configs
//	-request-timeout outbound request timeout (e.g., "15s", "1m")
//	-hash-key request integrity hash key
//	-auth-token bearer token for the remote backend
//	-sync-interval background drain interval (e.g., "5m")
//	-sync-concurrency max queue items in flight at once
//	-device-id fixed device identifier override
//	-min-free-bytes degraded-durability free-space floor
func ParseFlags() *StructuredConfig {
	var databaseDSN string
	var remoteBaseURL string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var hashKey string
	var authToken string
	var syncInterval time.Duration
	var syncConcurrency int
	var deviceID string
	var minFreeBytes int64

	flag.StringVar(&databaseDSN, "d", "", "Local replica database file path")
	flag.StringVar(&remoteBaseURL, "r", "", "Remote backend base URL")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Outbound request timeout (e.g., 15s, 1m)")
	flag.StringVar(&hashKey, "hash-key", "", "Request integrity hash key")
	flag.StringVar(&authToken, "auth-token", "", "Bearer token for the remote backend")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background drain interval (e.g., 5m)")
	flag.IntVar(&syncConcurrency, "sync-concurrency", 0, "Max queue items in flight at once")
	flag.StringVar(&deviceID, "device-id", "", "Fixed device identifier override")
	flag.Int64Var(&minFreeBytes, "min-free-bytes", 0, "Degraded-durability free-space floor")

	flag.Parse()

	return &StructuredConfig{
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			MinFreeBytes: minFreeBytes,
		},
		Remote: Remote{
			BaseURL:        remoteBaseURL,
			RequestTimeout: requestTimeout,
			HashKey:        hashKey,
			AuthToken:      authToken,
		},
		Sync: Sync{
			Interval:    syncInterval,
			Concurrency: syncConcurrency,
		},
		Device: Device{
			ID: deviceID,
		},
		JSONFilePath: jsonConfigPath,
	}
}
