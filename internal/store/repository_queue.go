package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

// queueRepository is the SQLite-backed implementation of [QueueRepository].
type queueRepository struct {
	*DB
	logger *logger.Logger
}

// NewQueueRepository constructs a [QueueRepository] backed by the provided
// replica connection and logger.
func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{
		DB:     db,
		logger: logger,
	}
}

// insertQueueItem appends one queue row on the given executor. Entity
// repositories call it with their open transaction so the entity write and
// its delivery record are one atomic unit. A nil item is a no-op: the legacy
// import inserts already-synced records without re-entering the queue.
func insertQueueItem(ctx context.Context, q dbtx, item *models.SyncQueueItem) error {
	if item == nil {
		return nil
	}

	_, err := q.ExecContext(ctx, insertQueueItemSQL,
		item.ID, string(item.EntityType), string(item.Action), item.EntityID,
		string(item.Payload), item.SnapshotHash, item.Priority, string(item.Status),
		item.RetryCount, item.MaxRetries, item.LastError, item.DeviceID,
		item.CreatedAt, item.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *queueRepository) Insert(ctx context.Context, item *models.SyncQueueItem) error {
	return insertQueueItem(ctx, r.DB, item)
}

func (r *queueRepository) DequeueBatch(ctx context.Context) ([]models.SyncQueueItem, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildDequeueBatchQuery()
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.DequeueBatch").
			Msg("failed to build dequeue query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.DequeueBatch").
			Msg("failed to execute dequeue query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func (r *queueRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.transition(ctx, markQueueProcessing, id)
}

func (r *queueRepository) MarkCompleted(ctx context.Context, id string, processedAt int64) error {
	return r.transition(ctx, markQueueCompleted, processedAt, id)
}

func (r *queueRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.transition(ctx, markQueueFailed, lastError, nil, id)
}

// transition runs one UPDATE whose final argument is the item identifier and
// maps a zero row count to [ErrQueueItemNotFound].
func (r *queueRepository) transition(ctx context.Context, query string, args ...any) error {
	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrQueueItemNotFound
	}
	return nil
}

func (r *queueRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	if err := r.QueryRowContext(ctx, countOpenQueueItems).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return count, nil
}

func (r *queueRepository) ListExhausted(ctx context.Context) ([]models.SyncQueueItem, error) {
	rows, err := r.QueryContext(ctx, selectExhaustedQueueItems)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func (r *queueRepository) ResetFailed(ctx context.Context, id string) error {
	return r.transition(ctx, resetFailedQueueItem, id)
}

func (r *queueRepository) Discard(ctx context.Context, id string) error {
	return r.transition(ctx, discardQueueItem, id)
}

func (r *queueRepository) DeleteCompletedBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.ExecContext(ctx, deleteCompletedQueueItems, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, nil
}

func (r *queueRepository) ListOpenEntityIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.QueryContext(ctx, selectOpenQueueEntityIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		ids[id] = struct{}{}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return ids, nil
}

func scanQueueItems(rows *sql.Rows) ([]models.SyncQueueItem, error) {
	items := make([]models.SyncQueueItem, 0, 50)

	for rows.Next() {
		var item models.SyncQueueItem
		var payload string
		var lastError sql.NullString
		var processedAt sql.NullInt64

		scanErr := rows.Scan(
			&item.ID, &item.EntityType, &item.Action, &item.EntityID,
			&payload, &item.SnapshotHash, &item.Priority, &item.Status,
			&item.RetryCount, &item.MaxRetries, &lastError, &item.DeviceID,
			&item.CreatedAt, &processedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		item.Payload = []byte(payload)
		if lastError.Valid {
			item.LastError = &lastError.String
		}
		if processedAt.Valid {
			item.ProcessedAt = &processedAt.Int64
		}

		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return items, nil
}
