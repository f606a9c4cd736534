// Package service implements the behavior of the offline replica: entity
// mutations with atomic queue enqueue, queue draining against the remote
// transport, the conflict record lifecycle, legacy archive import, and the
// storage quota check.
package service

import (
	"context"
	"time"

	"github.com/fieldsync/fieldsync/models"
)

// EntityService is the local-first CRUD surface. Every mutation is durable
// together with its outbound queue record before the call returns; callers
// never wait for network activity.
type EntityService interface {
	CreateInspection(ctx context.Context, insp models.Inspection) (models.Inspection, error)
	UpdateInspection(ctx context.Context, id string, update models.InspectionUpdate) (models.Inspection, error)
	DeleteInspection(ctx context.Context, id string) error
	GetInspection(ctx context.Context, id string) (models.Inspection, error)
	GetInspectionWithRelations(ctx context.Context, id string) (models.InspectionWithRelations, error)
	ListInspections(ctx context.Context) ([]models.Inspection, error)

	AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error)
	GetPhoto(ctx context.Context, id string) (models.Photo, error)
	DeletePhoto(ctx context.Context, id string) error
	ResetPhotoUpload(ctx context.Context, id string) error

	AddMeasurement(ctx context.Context, m models.Measurement) (models.Measurement, error)
	DeleteMeasurement(ctx context.Context, id string) error

	AddDamage(ctx context.Context, d models.DamageRecord) (models.DamageRecord, error)
	AmendDamage(ctx context.Context, id string, severity *models.DamageSeverity, notes *string) (models.DamageRecord, error)
	DeleteDamage(ctx context.Context, id string) error

	// PendingCount reports how many queue items still await delivery.
	PendingCount(ctx context.Context) (int, error)
	// FailedItems lists queue items that exhausted their retry budget and
	// await an operator decision.
	FailedItems(ctx context.Context) ([]models.SyncQueueItem, error)
	// ResendFailed restores a permanently failed item's retry budget.
	ResendFailed(ctx context.Context, itemID string) error
	// DiscardFailed drops a permanently failed item without delivering it.
	DiscardFailed(ctx context.Context, itemID string) error
}

// SyncService drains the outbound queue and performs opportunistic pulls.
type SyncService interface {
	// DrainOnce dispatches every deliverable queue item once, respecting
	// priority order, the concurrency cap, and per-entity exclusion. It
	// returns the per-cycle outcome counts; delivery failures are recorded on
	// the items, not returned.
	DrainOnce(ctx context.Context) (DrainStats, error)
	// PullChanges fetches remote snapshots changed since the given unix
	// timestamp and records conflicts for local rows whose digests diverge.
	// Entities with undelivered queue items are skipped.
	PullChanges(ctx context.Context, entityType models.EntityType, since int64) (int, error)
	// ClearCompleted garbage-collects completed queue items older than the
	// retention window.
	ClearCompleted(ctx context.Context) (int64, error)
}

// DrainStats summarises one drain cycle.
type DrainStats struct {
	Dispatched int
	Completed  int
	Conflicts  int
	Failed     int
	Deferred   int
}

// ConflictService manages the conflict record lifecycle.
type ConflictService interface {
	RecordConflict(ctx context.Context, c models.SyncConflict) (models.SyncConflict, error)
	ListUnresolved(ctx context.Context) ([]models.SyncConflict, error)
	// Resolve settles a conflict with the given strategy. The merged payload
	// is required for merged resolutions and ignored otherwise.
	Resolve(ctx context.Context, id string, resolution models.ConflictResolution, merged []byte) error
}

// ImportService migrates a serialized legacy archive into the replica.
type ImportService interface {
	// ImportLegacy parses and imports the archive. The returned bool reports
	// whether the legacy source may be cleared, which is only the case when
	// every record imported cleanly.
	ImportLegacy(ctx context.Context, blob []byte) (models.ImportSummary, bool, error)
}

// QuotaService negotiates storage durability with the platform.
type QuotaService interface {
	// RequestPersistence reports whether the data directory currently has at
	// least the configured free-space floor. A refused or failed probe is a
	// degraded-durability warning, never an error.
	RequestPersistence(ctx context.Context) bool
}

// SyncJob periodically drains the queue in the background.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}
