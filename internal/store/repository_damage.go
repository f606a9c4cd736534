package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// damageRepository is the SQLite-backed implementation of [DamageRepository].
type damageRepository struct {
	*DB
	logger *logger.Logger
}

// NewDamageRepository constructs a [DamageRepository] backed by the provided
// replica connection and logger.
func NewDamageRepository(db *DB, logger *logger.Logger) DamageRepository {
	return &damageRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *damageRepository) Insert(ctx context.Context, d *models.DamageRecord, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	photoIDs, err := encodePhotoIDs(d.PhotoIDs)
	if err != nil {
		return err
	}

	err = r.WithinTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, insertDamage,
			d.ID, d.InspectionID, d.Category, string(d.Severity), d.Notes,
			photoIDs, d.DeviceID, d.CreatedAt, d.UpdatedAt,
		)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "damageRepository.Insert").
			Str("damage_id", d.ID).
			Msg("failed to insert damage record")
		return err
	}

	return nil
}

func (r *damageRepository) Get(ctx context.Context, id string) (models.DamageRecord, error) {
	row := r.QueryRowContext(ctx, selectDamage, id)

	d, err := scanDamage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DamageRecord{}, ErrDamageNotFound
	}
	if err != nil {
		return models.DamageRecord{}, err
	}

	return *d, nil
}

func (r *damageRepository) ListByInspection(ctx context.Context, inspectionID string) ([]models.DamageRecord, error) {
	rows, err := r.QueryContext(ctx, selectDamageByInspection, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.DamageRecord, 0, 10)
	for rows.Next() {
		d, scanErr := scanDamage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *d)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return records, nil
}

func (r *damageRepository) Amend(ctx context.Context, d *models.DamageRecord, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDamageAmendQuery(d)
	if err != nil {
		log.Err(err).
			Str("func", "damageRepository.Amend").
			Msg("failed to build amend query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrDamageNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "damageRepository.Amend").
			Str("damage_id", d.ID).
			Msg("failed to amend damage record")
		return err
	}

	return nil
}

func (r *damageRepository) Delete(ctx context.Context, id string, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	err := r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, deleteDamage, id)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrDamageNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "damageRepository.Delete").
			Str("damage_id", id).
			Msg("failed to delete damage record")
		return err
	}

	return nil
}

func scanDamage(row rowScanner) (*models.DamageRecord, error) {
	var d models.DamageRecord
	var photoIDs sql.NullString

	err := row.Scan(
		&d.ID, &d.InspectionID, &d.Category, &d.Severity, &d.Notes,
		&photoIDs, &d.DeviceID, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if photoIDs.Valid && photoIDs.String != "" {
		if unmarshalErr := json.Unmarshal([]byte(photoIDs.String), &d.PhotoIDs); unmarshalErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, unmarshalErr)
		}
	}

	return &d, nil
}

// encodePhotoIDs serializes the weak photo references to a JSON text column.
// Empty lists are stored as NULL.
func encodePhotoIDs(ids []string) (any, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return string(raw), nil
}
