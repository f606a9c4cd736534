package store

import (
	"context"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/logger"
)

// Storages groups all replica repositories into a single value that can be
// passed around the service layer.
type Storages struct {
	// InspectionRepository persists inspections and their queue records.
	InspectionRepository InspectionRepository
	// PhotoRepository persists captured photo evidence.
	PhotoRepository PhotoRepository
	// MeasurementRepository persists immutable measured values.
	MeasurementRepository MeasurementRepository
	// DamageRepository persists damage findings.
	DamageRepository DamageRepository
	// QueueRepository drives the outbound sync queue.
	QueueRepository QueueRepository
	// ConflictRepository persists detected sync divergences.
	ConflictRepository ConflictRepository
	// DeviceRepository holds the per-install device identity row.
	DeviceRepository DeviceRepository

	db *DB
}

// NewStorages initialises the replica storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [Storages] value with every repository wired
//     to the shared connection.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		InspectionRepository:  NewInspectionRepository(db, logger),
		PhotoRepository:       NewPhotoRepository(db, logger),
		MeasurementRepository: NewMeasurementRepository(db, logger),
		DamageRepository:      NewDamageRepository(db, logger),
		QueueRepository:       NewQueueRepository(db, logger),
		ConflictRepository:    NewConflictRepository(db, logger),
		DeviceRepository:      NewDeviceRepository(db, logger),
		db:                    db,
	}, nil
}

// Close releases the underlying database connection.
func (s *Storages) Close() error {
	return s.db.Close()
}
