package config

import "errors"

var (
	// ErrInvalidStorageConfigs is returned when the replica database path is
	// missing or points at an in-memory database. The engine is durable by
	// contract; an in-memory replica would silently discard captured data.
	ErrInvalidStorageConfigs = errors.New("invalid storage configs provided")

	// ErrInvalidRemoteConfigs is returned when no remote base URL is
	// configured, leaving the sync queue nowhere to drain to.
	ErrInvalidRemoteConfigs = errors.New("invalid remote configs provided")
)
