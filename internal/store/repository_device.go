package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// deviceRepository is the SQLite-backed implementation of [DeviceRepository].
type deviceRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the provided
// replica connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	return &deviceRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *deviceRepository) Get(ctx context.Context) (models.Device, error) {
	var device models.Device

	err := r.QueryRowContext(ctx, selectDevice).Scan(&device.ID, &device.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Device{}, ErrDeviceNotRegistered
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return device, nil
}

func (r *deviceRepository) Save(ctx context.Context, device models.Device) error {
	log := logger.FromContext(ctx)

	_, err := r.ExecContext(ctx, insertDevice, device.ID, device.CreatedAt)
	if err != nil {
		log.Err(err).
			Str("func", "deviceRepository.Save").
			Msg("failed to persist device identity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
