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

// photoRepository is the SQLite-backed implementation of [PhotoRepository].
type photoRepository struct {
	*DB
	logger *logger.Logger
}

// NewPhotoRepository constructs a [PhotoRepository] backed by the provided
// replica connection and logger.
func NewPhotoRepository(db *DB, logger *logger.Logger) PhotoRepository {
	return &photoRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *photoRepository) Insert(ctx context.Context, photo *models.Photo, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	meta, err := encodeCameraMeta(photo.CameraMeta)
	if err != nil {
		return err
	}
	lat, lon, acc := geoColumns(photo.Location)

	err = r.WithinTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, insertPhoto,
			photo.ID, photo.InspectionID, photo.Data, photo.Thumbnail,
			photo.MIMEType, photo.SizeBytes, photo.CapturedAt,
			lat, lon, acc, meta,
			photo.Synced, photo.RetryCount, photo.UploadError,
			photo.DeviceID, photo.CreatedAt,
		)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "photoRepository.Insert").
			Str("photo_id", photo.ID).
			Msg("failed to insert photo")
		return err
	}

	return nil
}

func (r *photoRepository) Get(ctx context.Context, id string) (models.Photo, error) {
	row := r.QueryRowContext(ctx, selectPhoto, id)

	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Photo{}, ErrPhotoNotFound
	}
	if err != nil {
		return models.Photo{}, err
	}

	return *photo, nil
}

func (r *photoRepository) ListByInspection(ctx context.Context, inspectionID string) ([]models.Photo, error) {
	rows, err := r.QueryContext(ctx, selectPhotosByInspection, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	photos := make([]models.Photo, 0, 10)
	for rows.Next() {
		photo, scanErr := scanPhoto(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		photos = append(photos, *photo)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return photos, nil
}

func (r *photoRepository) Delete(ctx context.Context, id string, item *models.SyncQueueItem) error {
	log := logger.FromContext(ctx)

	err := r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, execErr := tx.ExecContext(ctx, deletePhoto, id)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrPhotoNotFound
		}

		return insertQueueItem(ctx, tx, item)
	})
	if err != nil {
		log.Err(err).
			Str("func", "photoRepository.Delete").
			Str("photo_id", id).
			Msg("failed to delete photo")
		return err
	}

	return nil
}

func (r *photoRepository) MarkSynced(ctx context.Context, id string) error {
	res, err := r.ExecContext(ctx, markPhotoSynced, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *photoRepository) RecordUploadError(ctx context.Context, id string, uploadError string) error {
	res, err := r.ExecContext(ctx, recordPhotoError, uploadError, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *photoRepository) ResetUploadState(ctx context.Context, id string) error {
	res, err := r.ExecContext(ctx, resetPhotoUploadState, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var photo models.Photo
	var lat, lon, acc sql.NullFloat64
	var meta sql.NullString
	var uploadError sql.NullString

	err := row.Scan(
		&photo.ID, &photo.InspectionID, &photo.Data, &photo.Thumbnail,
		&photo.MIMEType, &photo.SizeBytes, &photo.CapturedAt,
		&lat, &lon, &acc, &meta,
		&photo.Synced, &photo.RetryCount, &uploadError,
		&photo.DeviceID, &photo.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	photo.Location = geoFromColumns(lat, lon, acc)
	if meta.Valid && meta.String != "" {
		if unmarshalErr := json.Unmarshal([]byte(meta.String), &photo.CameraMeta); unmarshalErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, unmarshalErr)
		}
	}
	if uploadError.Valid {
		photo.UploadError = &uploadError.String
	}

	return &photo, nil
}

// encodeCameraMeta serializes the EXIF-style key/value pairs to a JSON text
// column. Nil maps are stored as NULL.
func encodeCameraMeta(meta map[string]string) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return string(raw), nil
}
