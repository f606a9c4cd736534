package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldsync/fieldsync/internal/identity"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

type conflictService struct {
	storages *store.Storages
	identity *identity.Provider
	uuid     *utils.UUIDGenerator
	logger   *logger.Logger
}

// NewConflictService constructs the conflict record lifecycle manager.
func NewConflictService(storages *store.Storages, identityProvider *identity.Provider, logger *logger.Logger) ConflictService {
	return &conflictService{
		storages: storages,
		identity: identityProvider,
		uuid:     utils.NewUUIDGenerator(),
		logger:   logger,
	}
}

func (s *conflictService) RecordConflict(ctx context.Context, c models.SyncConflict) (models.SyncConflict, error) {
	if c.ID == "" {
		c.ID = s.uuid.Generate()
	}
	if c.DetectedAt == 0 {
		c.DetectedAt = time.Now().Unix()
	}
	c.IsResolved = false
	c.Resolution = ""
	c.MergedSnapshot = nil
	c.ResolvedAt = nil

	if err := s.storages.ConflictRepository.Insert(ctx, &c); err != nil {
		return models.SyncConflict{}, err
	}

	s.logger.Warn().
		Str("func", "conflictService.RecordConflict").
		Str("conflict_id", c.ID).
		Str("entity_type", string(c.EntityType)).
		Str("entity_id", c.EntityID).
		Msg("sync conflict recorded")

	return c, nil
}

func (s *conflictService) ListUnresolved(ctx context.Context) ([]models.SyncConflict, error) {
	return s.storages.ConflictRepository.ListUnresolved(ctx)
}

// Resolve settles one conflict:
//   - local: the stored local snapshot is re-enqueued as an authoritative
//     update; the replica row is untouched.
//   - remote: the replica row is overwritten with the remote snapshot exactly
//     and nothing is enqueued.
//   - merged: the supplied payload becomes the new local state and is
//     enqueued.
//   - manual: the decision is recorded and nothing else happens.
func (s *conflictService) Resolve(ctx context.Context, id string, resolution models.ConflictResolution, merged []byte) error {
	if !resolution.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownResolution, resolution)
	}
	if resolution == models.ResolutionMerged && len(merged) == 0 {
		return ErrConflictPayloadRequired
	}

	conflict, err := s.storages.ConflictRepository.Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}
	if conflict.IsResolved {
		return ErrConflictAlreadyResolved
	}

	switch resolution {
	case models.ResolutionLocal:
		err = s.enqueueSnapshot(ctx, conflict.EntityType, conflict.EntityID, conflict.LocalSnapshot)
	case models.ResolutionRemote:
		err = s.overwriteLocal(ctx, conflict.EntityType, conflict.EntityID, conflict.RemoteSnapshot)
	case models.ResolutionMerged:
		if err = s.overwriteLocal(ctx, conflict.EntityType, conflict.EntityID, merged); err == nil {
			err = s.enqueueSnapshot(ctx, conflict.EntityType, conflict.EntityID, merged)
		}
	case models.ResolutionManual:
		// Decision recorded below, the operator reconciled out-of-band.
	}
	if err != nil {
		return err
	}

	if resolution != models.ResolutionMerged {
		merged = nil
	}
	if err = s.storages.ConflictRepository.MarkResolved(ctx, id, resolution, merged, time.Now().Unix()); err != nil {
		return mapStoreError(err)
	}

	s.logger.Info().
		Str("func", "conflictService.Resolve").
		Str("conflict_id", id).
		Str("resolution", string(resolution)).
		Msg("sync conflict resolved")

	return nil
}

// enqueueSnapshot appends an authoritative update item carrying the given
// snapshot, so the next drain pushes it to the remote side.
func (s *conflictService) enqueueSnapshot(ctx context.Context, entityType models.EntityType, entityID string, snapshot []byte) error {
	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return err
	}

	item := &models.SyncQueueItem{
		ID:           s.uuid.Generate(),
		EntityType:   entityType,
		Action:       models.ActionUpdate,
		EntityID:     entityID,
		Payload:      snapshot,
		SnapshotHash: utils.SnapshotDigest(snapshot),
		Priority:     models.PriorityFor(entityType, models.ActionUpdate),
		Status:       models.QueueStatusPending,
		MaxRetries:   models.DefaultMaxRetries,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().Unix(),
	}

	return s.storages.QueueRepository.Insert(ctx, item)
}

// overwriteLocal installs a snapshot as the replica row, byte-identical to
// what the snapshot describes. Missing rows are re-created, nothing is
// enqueued here.
func (s *conflictService) overwriteLocal(ctx context.Context, entityType models.EntityType, entityID string, snapshot []byte) error {
	switch entityType {
	case models.EntityInspection:
		var insp models.Inspection
		if err := json.Unmarshal(snapshot, &insp); err != nil {
			return fmt.Errorf("%w: decode inspection snapshot: %w", ErrValidation, err)
		}
		insp.ID = entityID
		err := s.storages.InspectionRepository.Update(ctx, &insp, nil)
		if errors.Is(err, store.ErrInspectionNotFound) {
			return s.storages.InspectionRepository.Insert(ctx, &insp, nil)
		}
		return err

	case models.EntityPhoto:
		var photo models.Photo
		if err := json.Unmarshal(snapshot, &photo); err != nil {
			return fmt.Errorf("%w: decode photo snapshot: %w", ErrValidation, err)
		}
		photo.ID = entityID
		if err := s.storages.PhotoRepository.Delete(ctx, entityID, nil); err != nil &&
			!errors.Is(err, store.ErrPhotoNotFound) {
			return err
		}
		return s.storages.PhotoRepository.Insert(ctx, &photo, nil)

	case models.EntityMeasurement:
		var m models.Measurement
		if err := json.Unmarshal(snapshot, &m); err != nil {
			return fmt.Errorf("%w: decode measurement snapshot: %w", ErrValidation, err)
		}
		m.ID = entityID
		if err := s.storages.MeasurementRepository.Delete(ctx, entityID, nil); err != nil &&
			!errors.Is(err, store.ErrMeasurementNotFound) {
			return err
		}
		return s.storages.MeasurementRepository.Insert(ctx, &m, nil)

	case models.EntityDamage:
		var d models.DamageRecord
		if err := json.Unmarshal(snapshot, &d); err != nil {
			return fmt.Errorf("%w: decode damage snapshot: %w", ErrValidation, err)
		}
		d.ID = entityID
		if err := s.storages.DamageRepository.Delete(ctx, entityID, nil); err != nil &&
			!errors.Is(err, store.ErrDamageNotFound) {
			return err
		}
		return s.storages.DamageRepository.Insert(ctx, &d, nil)

	default:
		return fmt.Errorf("%w: unknown entity type %q", ErrValidation, entityType)
	}
}
