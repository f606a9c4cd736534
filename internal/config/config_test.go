package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_PopulatesNestedSections(t *testing.T) {
	t.Setenv("STORAGE_DB_DSN", "/tmp/replica.db")
	t.Setenv("STORAGE_MIN_FREE_BYTES", "1048576")
	t.Setenv("REMOTE_BASE_URL", "https://api.example.com")
	t.Setenv("REMOTE_REQUEST_TIMEOUT", "20s")
	t.Setenv("SYNC_INTERVAL", "2m")
	t.Setenv("SYNC_CONCURRENCY", "8")
	t.Setenv("DEVICE_ID", "device-007")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "/tmp/replica.db", cfg.Storage.DB.DSN)
	assert.Equal(t, int64(1048576), cfg.Storage.MinFreeBytes)
	assert.Equal(t, "https://api.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 8, cfg.Sync.Concurrency)
	assert.Equal(t, "device-007", cfg.Device.ID)
}

func TestValidate_RejectsInMemoryReplica(t *testing.T) {
	cfg := &StructuredConfig{
		Storage: Storage{DB: DB{DSN: ":memory:"}},
		Remote:  Remote{BaseURL: "https://api.example.com"},
	}
	assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestValidate_RequiresRemoteBaseURL(t *testing.T) {
	cfg := &StructuredConfig{
		Storage: Storage{DB: DB{DSN: "/tmp/replica.db"}},
	}
	assert.ErrorIs(t, cfg.validate(), ErrInvalidRemoteConfigs)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()

	assert.Equal(t, 15*time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &StructuredConfig{
		Remote: Remote{RequestTimeout: time.Second},
		Sync:   Sync{Interval: time.Minute, Concurrency: 1},
	}
	cfg.applyDefaults()

	assert.Equal(t, time.Second, cfg.Remote.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 1, cfg.Sync.Concurrency)
}
