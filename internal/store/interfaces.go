package store

import (
	"context"

	"github.com/fieldsync/fieldsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// InspectionRepository is the replica table for inspection aggregates.
//
// Mutating methods take the sync queue item produced by the mutation and
// persist entity row and queue row in one transaction, so a mutation is never
// durable without its outbound delivery record. A nil item skips the queue
// append; the legacy import uses that for records already acknowledged by the
// remote system.
type InspectionRepository interface {
	Insert(ctx context.Context, insp *models.Inspection, item *models.SyncQueueItem) error
	Get(ctx context.Context, id string) (models.Inspection, error)
	Update(ctx context.Context, insp *models.Inspection, item *models.SyncQueueItem) error
	// Delete removes the inspection row together with its child rows. The
	// queue item still carries the identifier so the remote side learns about
	// the deletion after the local copy is gone.
	Delete(ctx context.Context, id string, item *models.SyncQueueItem) error
	// MarkSynced records a successful sync acknowledgment: is_synced true and
	// synced_at stamped, nothing else touched.
	MarkSynced(ctx context.Context, id string, syncedAt int64) error
	List(ctx context.Context) ([]models.Inspection, error)
}

// PhotoRepository is the replica table for captured photos.
type PhotoRepository interface {
	Insert(ctx context.Context, photo *models.Photo, item *models.SyncQueueItem) error
	Get(ctx context.Context, id string) (models.Photo, error)
	ListByInspection(ctx context.Context, inspectionID string) ([]models.Photo, error)
	Delete(ctx context.Context, id string, item *models.SyncQueueItem) error
	MarkSynced(ctx context.Context, id string) error
	// RecordUploadError increments retry_count and stores the error text.
	// The counter only grows; ResetUploadState is the explicit operator
	// action that clears it.
	RecordUploadError(ctx context.Context, id string, uploadError string) error
	ResetUploadState(ctx context.Context, id string) error
}

// MeasurementRepository is the replica table for measurements, immutable
// after creation.
type MeasurementRepository interface {
	Insert(ctx context.Context, m *models.Measurement, item *models.SyncQueueItem) error
	Get(ctx context.Context, id string) (models.Measurement, error)
	ListByInspection(ctx context.Context, inspectionID string) ([]models.Measurement, error)
	Delete(ctx context.Context, id string, item *models.SyncQueueItem) error
}

// DamageRepository is the replica table for damage records. Only severity and
// notes are amendable after creation.
type DamageRepository interface {
	Insert(ctx context.Context, d *models.DamageRecord, item *models.SyncQueueItem) error
	Get(ctx context.Context, id string) (models.DamageRecord, error)
	ListByInspection(ctx context.Context, inspectionID string) ([]models.DamageRecord, error)
	Amend(ctx context.Context, d *models.DamageRecord, item *models.SyncQueueItem) error
	Delete(ctx context.Context, id string, item *models.SyncQueueItem) error
}

// QueueRepository is the persisted outbound mutation queue.
type QueueRepository interface {
	// Insert appends one item outside an entity transaction. Conflict
	// resolutions use it to re-enqueue authoritative snapshots.
	Insert(ctx context.Context, item *models.SyncQueueItem) error
	// DequeueBatch returns every item that is still deliverable: status
	// pending or failed with retry budget left, ordered by ascending
	// priority, creation time, then id.
	DequeueBatch(ctx context.Context) ([]models.SyncQueueItem, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, processedAt int64) error
	// MarkFailed increments retry_count, records the error text, and returns
	// the item to pending semantics for the next drain cycle. Items that have
	// consumed their budget stay failed.
	MarkFailed(ctx context.Context, id string, lastError string) error
	// CountOpen reports the number of not-yet-terminal items.
	CountOpen(ctx context.Context) (int, error)
	// ListExhausted returns permanently failed items awaiting an operator
	// decision.
	ListExhausted(ctx context.Context) ([]models.SyncQueueItem, error)
	// ResetFailed is the operator resend action: retry budget restored,
	// status back to pending.
	ResetFailed(ctx context.Context, id string) error
	// Discard is the operator discard action for a permanently failed item.
	Discard(ctx context.Context, id string) error
	// DeleteCompletedBefore garbage-collects completed items older than the
	// retention cutoff. Maintenance only, not part of delivery guarantees.
	DeleteCompletedBefore(ctx context.Context, cutoff int64) (int64, error)
	// ListOpenEntityIDs reports the entity identifiers holding undelivered
	// items, used to exclude them from pull-based conflict detection.
	ListOpenEntityIDs(ctx context.Context) (map[string]struct{}, error)
}

// ConflictRepository is the persisted conflict store. Rows are never deleted,
// only resolved.
type ConflictRepository interface {
	Insert(ctx context.Context, c *models.SyncConflict) error
	Get(ctx context.Context, id string) (models.SyncConflict, error)
	ListUnresolved(ctx context.Context) ([]models.SyncConflict, error)
	MarkResolved(ctx context.Context, id string, resolution models.ConflictResolution, merged []byte, resolvedAt int64) error
}

// DeviceRepository persists the single device identity row.
type DeviceRepository interface {
	Get(ctx context.Context) (models.Device, error)
	Save(ctx context.Context, device models.Device) error
}
