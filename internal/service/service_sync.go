package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldsync/fieldsync/internal/adapter"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

// completedRetention is how long completed queue items are kept for
// diagnostics before garbage collection.
const completedRetention = 7 * 24 * time.Hour

const defaultDrainConcurrency = 4

type syncService struct {
	storages  *store.Storages
	transport adapter.SyncTransport
	conflicts ConflictService

	concurrency int
	logger      *logger.Logger
}

// NewSyncService constructs the queue drain engine. concurrency caps how many
// pushes are in flight at once; zero or negative picks the default.
func NewSyncService(storages *store.Storages, transport adapter.SyncTransport, conflicts ConflictService, concurrency int, logger *logger.Logger) SyncService {
	if concurrency <= 0 {
		concurrency = defaultDrainConcurrency
	}

	return &syncService{
		storages:    storages,
		transport:   transport,
		conflicts:   conflicts,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *syncService) DrainOnce(ctx context.Context) (DrainStats, error) {
	items, err := s.storages.QueueRepository.DequeueBatch(ctx)
	if err != nil {
		return DrainStats{}, err
	}
	if len(items) == 0 {
		return DrainStats{}, nil
	}

	// Items sharing an entity never travel concurrently. The batch arrives in
	// (priority, created_at, id) order, so keeping only the first item per entity
	// dispatches the earliest mutation and leaves the rest for later cycles.
	dispatch := make([]models.SyncQueueItem, 0, len(items))
	inFlight := make(map[string]struct{}, len(items))
	deferred := 0
	for _, item := range items {
		if _, exists := inFlight[item.EntityID]; exists {
			deferred++
			continue
		}
		inFlight[item.EntityID] = struct{}{}
		dispatch = append(dispatch, item)
	}

	var (
		mu    sync.Mutex
		stats = DrainStats{Dispatched: len(dispatch), Deferred: deferred}
		wg    sync.WaitGroup
		sem   = make(chan struct{}, s.concurrency)
	)

	for i := range dispatch {
		item := dispatch[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.deliver(ctx, item)

			mu.Lock()
			switch outcome {
			case outcomeCompleted:
				stats.Completed++
			case outcomeConflict:
				stats.Conflicts++
			default:
				stats.Failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.logger.Info().
		Str("func", "syncService.DrainOnce").
		Int("dispatched", stats.Dispatched).
		Int("completed", stats.Completed).
		Int("conflicts", stats.Conflicts).
		Int("failed", stats.Failed).
		Int("deferred", stats.Deferred).
		Msg("drain cycle finished")

	return stats, nil
}

type deliveryOutcome int

const (
	outcomeCompleted deliveryOutcome = iota
	outcomeConflict
	outcomeFailed
)

// deliver pushes one queue item and settles its status. Delivery errors are
// recorded on the item, never returned: the queue is the retry mechanism.
func (s *syncService) deliver(ctx context.Context, item models.SyncQueueItem) deliveryOutcome {
	log := s.logger

	if err := s.storages.QueueRepository.MarkProcessing(ctx, item.ID); err != nil {
		log.Err(err).
			Str("func", "syncService.deliver").
			Str("item_id", item.ID).
			Msg("failed to mark queue item processing")
		return outcomeFailed
	}

	result, err := s.transport.Push(ctx, &item)
	if err != nil {
		s.recordFailure(ctx, item, fmt.Errorf("%w: %w", ErrTransientSync, err))
		return outcomeFailed
	}

	now := time.Now().Unix()

	if !result.Accepted {
		conflict := models.SyncConflict{
			EntityType:      item.EntityType,
			EntityID:        item.EntityID,
			LocalSnapshot:   item.Payload,
			RemoteSnapshot:  result.Remote.Snapshot,
			LocalTimestamp:  item.CreatedAt,
			RemoteTimestamp: result.Remote.UpdatedAt,
		}
		if _, recordErr := s.conflicts.RecordConflict(ctx, conflict); recordErr != nil {
			// Keep the item retryable, the divergence is not persisted yet.
			s.recordFailure(ctx, item, recordErr)
			return outcomeFailed
		}
		if completeErr := s.storages.QueueRepository.MarkCompleted(ctx, item.ID, now); completeErr != nil {
			log.Err(completeErr).
				Str("func", "syncService.deliver").
				Str("item_id", item.ID).
				Msg("failed to complete conflicting queue item")
		}
		return outcomeConflict
	}

	if completeErr := s.storages.QueueRepository.MarkCompleted(ctx, item.ID, now); completeErr != nil {
		log.Err(completeErr).
			Str("func", "syncService.deliver").
			Str("item_id", item.ID).
			Msg("failed to complete queue item")
		return outcomeFailed
	}

	s.acknowledgeEntity(ctx, item, now)
	return outcomeCompleted
}

// recordFailure books one failed attempt on the queue item and, for photo
// uploads, on the photo row itself.
func (s *syncService) recordFailure(ctx context.Context, item models.SyncQueueItem, cause error) {
	log := s.logger

	log.Warn().
		Err(cause).
		Str("func", "syncService.recordFailure").
		Str("item_id", item.ID).
		Str("entity_id", item.EntityID).
		Int("retry_count", item.RetryCount+1).
		Int("max_retries", item.MaxRetries).
		Msg("queue item delivery failed")

	if err := s.storages.QueueRepository.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		log.Err(err).
			Str("func", "syncService.recordFailure").
			Str("item_id", item.ID).
			Msg("failed to mark queue item failed")
	}

	if item.EntityType == models.EntityPhoto && item.Action != models.ActionDelete {
		if err := s.storages.PhotoRepository.RecordUploadError(ctx, item.EntityID, cause.Error()); err != nil &&
			!errors.Is(err, store.ErrPhotoNotFound) {
			log.Err(err).
				Str("func", "syncService.recordFailure").
				Str("photo_id", item.EntityID).
				Msg("failed to record photo upload error")
		}
	}
}

// acknowledgeEntity flips the entity's synced flag after an accepted push.
// The entity may have been deleted locally while the item was in flight;
// that is not an error.
func (s *syncService) acknowledgeEntity(ctx context.Context, item models.SyncQueueItem, syncedAt int64) {
	if item.Action == models.ActionDelete {
		return
	}

	var err error
	switch item.EntityType {
	case models.EntityInspection:
		err = s.storages.InspectionRepository.MarkSynced(ctx, item.EntityID, syncedAt)
	case models.EntityPhoto:
		err = s.storages.PhotoRepository.MarkSynced(ctx, item.EntityID)
	default:
		// Measurements and damage records carry no synced flag of their own;
		// the completed queue item is the acknowledgment.
		return
	}

	if err != nil &&
		!errors.Is(err, store.ErrInspectionNotFound) &&
		!errors.Is(err, store.ErrPhotoNotFound) {
		s.logger.Err(err).
			Str("func", "syncService.acknowledgeEntity").
			Str("entity_id", item.EntityID).
			Msg("failed to acknowledge synced entity")
	}
}

func (s *syncService) PullChanges(ctx context.Context, entityType models.EntityType, since int64) (int, error) {
	snapshots, err := s.transport.Pull(ctx, entityType, since)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransientSync, err)
	}
	if len(snapshots) == 0 {
		return 0, nil
	}

	open, err := s.storages.QueueRepository.ListOpenEntityIDs(ctx)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, remote := range snapshots {
		// Entities with undelivered mutations are settled by the push path;
		// comparing them here would double-report every in-flight edit.
		if _, queued := open[remote.EntityID]; queued {
			continue
		}

		localPayload, localUpdatedAt, found, loadErr := s.localSnapshot(ctx, entityType, remote.EntityID)
		if loadErr != nil {
			return recorded, loadErr
		}
		if !found {
			continue
		}
		if utils.SnapshotDigest(localPayload) == remote.Hash {
			continue
		}

		conflict := models.SyncConflict{
			EntityType:      entityType,
			EntityID:        remote.EntityID,
			LocalSnapshot:   localPayload,
			RemoteSnapshot:  remote.Snapshot,
			LocalTimestamp:  localUpdatedAt,
			RemoteTimestamp: remote.UpdatedAt,
		}
		if _, recordErr := s.conflicts.RecordConflict(ctx, conflict); recordErr != nil {
			return recorded, recordErr
		}
		recorded++
	}

	return recorded, nil
}

// localSnapshot loads and re-serializes the local row for digest comparison.
func (s *syncService) localSnapshot(ctx context.Context, entityType models.EntityType, entityID string) ([]byte, int64, bool, error) {
	var (
		entity    any
		updatedAt int64
		err       error
	)

	switch entityType {
	case models.EntityInspection:
		var insp models.Inspection
		insp, err = s.storages.InspectionRepository.Get(ctx, entityID)
		entity, updatedAt = insp, insp.UpdatedAt
	case models.EntityPhoto:
		var photo models.Photo
		photo, err = s.storages.PhotoRepository.Get(ctx, entityID)
		entity, updatedAt = photo, photo.CreatedAt
	case models.EntityMeasurement:
		var m models.Measurement
		m, err = s.storages.MeasurementRepository.Get(ctx, entityID)
		entity, updatedAt = m, m.CreatedAt
	case models.EntityDamage:
		var d models.DamageRecord
		d, err = s.storages.DamageRepository.Get(ctx, entityID)
		entity, updatedAt = d, d.UpdatedAt
	default:
		return nil, 0, false, nil
	}

	if errors.Is(err, store.ErrInspectionNotFound) ||
		errors.Is(err, store.ErrPhotoNotFound) ||
		errors.Is(err, store.ErrMeasurementNotFound) ||
		errors.Is(err, store.ErrDamageNotFound) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		return nil, 0, false, err
	}

	return payload, updatedAt, true, nil
}

func (s *syncService) ClearCompleted(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-completedRetention).Unix()

	deleted, err := s.storages.QueueRepository.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().
			Str("func", "syncService.ClearCompleted").
			Int64("deleted", deleted).
			Msg("garbage-collected completed queue items")
	}

	return deleted, nil
}
