package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// conflictRepository is the SQLite-backed implementation of
// [ConflictRepository].
type conflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewConflictRepository constructs a [ConflictRepository] backed by the
// provided replica connection and logger.
func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *conflictRepository) Insert(ctx context.Context, c *models.SyncConflict) error {
	log := logger.FromContext(ctx)

	_, err := r.ExecContext(ctx, insertConflict,
		c.ID, string(c.EntityType), c.EntityID,
		string(c.LocalSnapshot), string(c.RemoteSnapshot),
		c.LocalTimestamp, c.RemoteTimestamp, c.DetectedAt,
		c.IsResolved, nullableResolution(c.Resolution), nullableSnapshot(c.MergedSnapshot), c.ResolvedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Insert").
			Str("conflict_id", c.ID).
			Msg("failed to insert conflict record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *conflictRepository) Get(ctx context.Context, id string) (models.SyncConflict, error) {
	row := r.QueryRowContext(ctx, selectConflict, id)

	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncConflict{}, ErrConflictNotFound
	}
	if err != nil {
		return models.SyncConflict{}, err
	}

	return *c, nil
}

func (r *conflictRepository) ListUnresolved(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := r.QueryContext(ctx, selectUnresolvedConflicts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	conflicts := make([]models.SyncConflict, 0, 10)
	for rows.Next() {
		c, scanErr := scanConflict(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		conflicts = append(conflicts, *c)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return conflicts, nil
}

// MarkResolved flips an unresolved conflict to resolved. A conflict that is
// already resolved is reported as not found; callers that need to tell the
// two cases apart Get the record first.
func (r *conflictRepository) MarkResolved(ctx context.Context, id string, resolution models.ConflictResolution, merged []byte, resolvedAt int64) error {
	res, err := r.ExecContext(ctx, markConflictResolved,
		string(resolution), nullableSnapshot(merged), resolvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflictNotFound
	}
	return nil
}

func scanConflict(row rowScanner) (*models.SyncConflict, error) {
	var c models.SyncConflict
	var localSnapshot, remoteSnapshot string
	var resolution, mergedSnapshot sql.NullString
	var resolvedAt sql.NullInt64

	err := row.Scan(
		&c.ID, &c.EntityType, &c.EntityID,
		&localSnapshot, &remoteSnapshot,
		&c.LocalTimestamp, &c.RemoteTimestamp, &c.DetectedAt,
		&c.IsResolved, &resolution, &mergedSnapshot, &resolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	c.LocalSnapshot = []byte(localSnapshot)
	c.RemoteSnapshot = []byte(remoteSnapshot)
	if resolution.Valid {
		c.Resolution = models.ConflictResolution(resolution.String)
	}
	if mergedSnapshot.Valid {
		c.MergedSnapshot = []byte(mergedSnapshot.String)
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Int64
	}

	return &c, nil
}

func nullableResolution(r models.ConflictResolution) any {
	if r == "" {
		return nil
	}
	return string(r)
}

func nullableSnapshot(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
