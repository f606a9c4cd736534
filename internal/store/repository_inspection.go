package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// inspectionRepository is the SQLite-backed implementation of
// [InspectionRepository]. Every mutating method runs the entity write and the
// queue append inside one transaction via [DB.WithinTx].
type inspectionRepository struct {
	*DB
	logger *logger.Logger
}

// NewInspectionRepository constructs an [InspectionRepository] backed by the
// provided replica connection and logger.
func NewInspectionRepository(db *DB, logger *logger.Logger) InspectionRepository {
	return &inspectionRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *inspectionRepository) Insert(ctx context.Context, insp *models.Inspection, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	err := r.WithinTx(ctx, func(tx *sql.Tx) error {
		lat, lon, acc := geoColumns(insp.Location)
		_, execErr := tx.ExecContext(ctx, insertInspection,
			insp.ID, insp.Address, string(insp.Status), insp.Notes, lat, lon, acc,
			insp.DeviceID, insp.Version, insp.IsSynced, insp.CreatedAt, insp.UpdatedAt, insp.SyncedAt,
		)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "inspectionRepository.Insert").
			Str("inspection_id", insp.ID).
			Msg("failed to insert inspection")
		return err
	}

	return nil
}

func (r *inspectionRepository) Get(ctx context.Context, id string) (models.Inspection, error) {
	return scanInspection(r.QueryRowContext(ctx, selectInspection, id))
}

func (r *inspectionRepository) Update(ctx context.Context, insp *models.Inspection, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	query, args, err := buildInspectionUpdateQuery(insp)
	if err != nil {
		log.Err(err).
			Str("func", "inspectionRepository.Update").
			Str("inspection_id", insp.ID).
			Msg("failed to build update query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrInspectionNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
}

func (r *inspectionRepository) Delete(ctx context.Context, id string, item *models.SyncQueueItem) error {
	return r.WithinTx(ctx, func(tx *sql.Tx) error {
		// Children go first: the foreign keys reference the parent row.
		for _, query := range []string{deletePhotosByInspection, deleteMeasurementsByInspection, deleteDamageByInspection} {
			if _, execErr := tx.ExecContext(ctx, query, id); execErr != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
			}
		}

		res, execErr := tx.ExecContext(ctx, deleteInspection, id)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrInspectionNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
}

func (r *inspectionRepository) MarkSynced(ctx context.Context, id string, syncedAt int64) error {
	res, err := r.ExecContext(ctx, markInspectionSynced, syncedAt, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrInspectionNotFound
	}
	return nil
}

func (r *inspectionRepository) List(ctx context.Context) ([]models.Inspection, error) {
	log := logger.FromContext(ctx)

	rows, err := r.QueryContext(ctx, selectAllInspections)
	if err != nil {
		log.Err(err).
			Str("func", "inspectionRepository.List").
			Msg("failed to execute query for listing inspections")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	inspections := make([]models.Inspection, 0, 50)
	for rows.Next() {
		insp, scanErr := scanInspectionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		inspections = append(inspections, insp)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return inspections, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row *sql.Row) (models.Inspection, error) {
	insp, err := scanInspectionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Inspection{}, ErrInspectionNotFound
	}
	return insp, err
}

func scanInspectionRow(row rowScanner) (models.Inspection, error) {
	var insp models.Inspection
	var lat, lon, acc sql.NullFloat64
	var syncedAt sql.NullInt64

	err := row.Scan(
		&insp.ID, &insp.Address, &insp.Status, &insp.Notes, &lat, &lon, &acc,
		&insp.DeviceID, &insp.Version, &insp.IsSynced, &insp.CreatedAt, &insp.UpdatedAt, &syncedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Inspection{}, err
		}
		return models.Inspection{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	insp.Location = geoFromColumns(lat, lon, acc)
	if syncedAt.Valid {
		insp.SyncedAt = &syncedAt.Int64
	}

	return insp, nil
}

// geoFromColumns restores an optional GeoPoint from its nullable columns.
// A point exists only when both coordinates are present.
func geoFromColumns(lat, lon, acc sql.NullFloat64) *models.GeoPoint {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	p := &models.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	if acc.Valid {
		p.AccuracyM = acc.Float64
	}
	return p
}
