package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// measurementRepository is the SQLite-backed implementation of
// [MeasurementRepository].
type measurementRepository struct {
	*DB
	logger *logger.Logger
}

// NewMeasurementRepository constructs a [MeasurementRepository] backed by the
// provided replica connection and logger.
func NewMeasurementRepository(db *DB, logger *logger.Logger) MeasurementRepository {
	return &measurementRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *measurementRepository) Insert(ctx context.Context, m *models.Measurement, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	err := r.WithinTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, insertMeasurement,
			m.ID, m.InspectionID, m.Name, m.Value, m.Unit,
			m.RecordedAt, m.DeviceID, m.CreatedAt,
		)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "measurementRepository.Insert").
			Str("measurement_id", m.ID).
			Msg("failed to insert measurement")
		return err
	}

	return nil
}

func (r *measurementRepository) Get(ctx context.Context, id string) (models.Measurement, error) {
	row := r.QueryRowContext(ctx, selectMeasurement, id)

	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Measurement{}, ErrMeasurementNotFound
	}
	if err != nil {
		return models.Measurement{}, err
	}

	return *m, nil
}

func (r *measurementRepository) ListByInspection(ctx context.Context, inspectionID string) ([]models.Measurement, error) {
	rows, err := r.QueryContext(ctx, selectMeasurementsByInspection, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	measurements := make([]models.Measurement, 0, 10)
	for rows.Next() {
		m, scanErr := scanMeasurement(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		measurements = append(measurements, *m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return measurements, nil
}

func (r *measurementRepository) Delete(ctx context.Context, id string, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	err := r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, deleteMeasurement, id)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrMeasurementNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "measurementRepository.Delete").
			Str("measurement_id", id).
			Msg("failed to delete measurement")
		return err
	}

	return nil
}

func scanMeasurement(row rowScanner) (*models.Measurement, error) {
	var m models.Measurement

	err := row.Scan(
		&m.ID, &m.InspectionID, &m.Name, &m.Value, &m.Unit,
		&m.RecordedAt, &m.DeviceID, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return &m, nil
}
