package service

import (
	"context"
	"path/filepath"
	"syscall"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/logger"
)

type quotaService struct {
	dataDir      string
	minFreeBytes int64
	logger       *logger.Logger
}

// NewQuotaService constructs the storage durability check for the directory
// holding the replica database.
func NewQuotaService(cfg config.Storage, logger *logger.Logger) QuotaService {
	return &quotaService{
		dataDir:      filepath.Dir(cfg.DB.DSN),
		minFreeBytes: cfg.MinFreeBytes,
		logger:       logger,
	}
}

// RequestPersistence probes the free space of the replica's data directory.
// A shortfall or a failed probe is logged as a degraded-durability warning
// and reported as false; capture continues either way.
func (s *quotaService) RequestPersistence(_ context.Context) bool {
	if s.minFreeBytes <= 0 {
		return true
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(s.dataDir, &stat); err != nil {
		s.logger.Warn().
			Err(err).
			Str("func", "quotaService.RequestPersistence").
			Str("data_dir", s.dataDir).
			Msg("storage probe failed, durability degraded")
		return false
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < s.minFreeBytes {
		s.logger.Warn().
			Str("func", "quotaService.RequestPersistence").
			Str("data_dir", s.dataDir).
			Int64("available_bytes", available).
			Int64("min_free_bytes", s.minFreeBytes).
			Msg("free space below floor, durability degraded")
		return false
	}

	return true
}
