package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldsync/fieldsync/internal/identity"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

type entityService struct {
	storages *store.Storages
	identity *identity.Provider
	uuid     *utils.UUIDGenerator
	logger   *logger.Logger
}

// NewEntityService constructs the local-first CRUD surface on top of the
// replica storages and the device identity provider.
func NewEntityService(storages *store.Storages, identityProvider *identity.Provider, logger *logger.Logger) EntityService {
	return &entityService{
		storages: storages,
		identity: identityProvider,
		uuid:     utils.NewUUIDGenerator(),
		logger:   logger,
	}
}

func (s *entityService) CreateInspection(ctx context.Context, insp models.Inspection) (models.Inspection, error) {
	if strings.TrimSpace(insp.Address) == "" {
		return models.Inspection{}, fmt.Errorf("%w: inspection address is required", ErrValidation)
	}
	if insp.Status == "" {
		insp.Status = models.StatusDraft
	}
	if !insp.Status.Valid() {
		return models.Inspection{}, fmt.Errorf("%w: unknown inspection status %q", ErrValidation, insp.Status)
	}

	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return models.Inspection{}, err
	}

	now := time.Now().Unix()
	if insp.ID == "" {
		insp.ID = s.uuid.Generate()
	}
	insp.DeviceID = deviceID
	insp.Version = 1
	insp.IsSynced = false
	insp.SyncedAt = nil
	insp.CreatedAt = now
	insp.UpdatedAt = now

	item, err := s.newQueueItem(models.EntityInspection, models.ActionCreate, insp.ID, deviceID, insp)
	if err != nil {
		return models.Inspection{}, err
	}
	if err = s.storages.InspectionRepository.Insert(ctx, &insp, item); err != nil {
		return models.Inspection{}, mapStoreError(err)
	}

	return insp, nil
}

func (s *entityService) UpdateInspection(ctx context.Context, id string, update models.InspectionUpdate) (models.Inspection, error) {
	insp, err := s.storages.InspectionRepository.Get(ctx, id)
	if err != nil {
		return models.Inspection{}, mapStoreError(err)
	}

	if update.Status != nil && *update.Status != insp.Status {
		if !insp.Status.CanTransitionTo(*update.Status) {
			return models.Inspection{}, fmt.Errorf("%w: inspection status cannot change from %q to %q",
				ErrValidation, insp.Status, *update.Status)
		}
		insp.Status = *update.Status
	}
	if update.Address != nil {
		if strings.TrimSpace(*update.Address) == "" {
			return models.Inspection{}, fmt.Errorf("%w: inspection address is required", ErrValidation)
		}
		insp.Address = *update.Address
	}
	if update.Notes != nil {
		insp.Notes = *update.Notes
	}
	if update.Location != nil {
		insp.Location = update.Location
	}

	insp.Version++
	insp.IsSynced = false
	insp.UpdatedAt = time.Now().Unix()

	item, err := s.newQueueItem(models.EntityInspection, models.ActionUpdate, insp.ID, insp.DeviceID, insp)
	if err != nil {
		return models.Inspection{}, err
	}
	if err = s.storages.InspectionRepository.Update(ctx, &insp, item); err != nil {
		return models.Inspection{}, mapStoreError(err)
	}

	return insp, nil
}

func (s *entityService) DeleteInspection(ctx context.Context, id string) error {
	insp, err := s.storages.InspectionRepository.Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}

	item, err := s.newQueueItem(models.EntityInspection, models.ActionDelete, id, insp.DeviceID, deletionPayload{ID: id})
	if err != nil {
		return err
	}
	if err = s.storages.InspectionRepository.Delete(ctx, id, item); err != nil {
		return mapStoreError(err)
	}

	return nil
}

func (s *entityService) GetInspection(ctx context.Context, id string) (models.Inspection, error) {
	insp, err := s.storages.InspectionRepository.Get(ctx, id)
	if err != nil {
		return models.Inspection{}, mapStoreError(err)
	}
	return insp, nil
}

func (s *entityService) GetInspectionWithRelations(ctx context.Context, id string) (models.InspectionWithRelations, error) {
	insp, err := s.storages.InspectionRepository.Get(ctx, id)
	if err != nil {
		return models.InspectionWithRelations{}, mapStoreError(err)
	}

	photos, err := s.storages.PhotoRepository.ListByInspection(ctx, id)
	if err != nil {
		return models.InspectionWithRelations{}, mapStoreError(err)
	}
	measurements, err := s.storages.MeasurementRepository.ListByInspection(ctx, id)
	if err != nil {
		return models.InspectionWithRelations{}, mapStoreError(err)
	}
	damage, err := s.storages.DamageRepository.ListByInspection(ctx, id)
	if err != nil {
		return models.InspectionWithRelations{}, mapStoreError(err)
	}

	return models.InspectionWithRelations{
		Inspection:   insp,
		Photos:       photos,
		Measurements: measurements,
		Damage:       damage,
	}, nil
}

func (s *entityService) ListInspections(ctx context.Context) ([]models.Inspection, error) {
	inspections, err := s.storages.InspectionRepository.List(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return inspections, nil
}

func (s *entityService) AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error) {
	if len(photo.Data) == 0 {
		return models.Photo{}, fmt.Errorf("%w: photo payload is required", ErrValidation)
	}
	if strings.TrimSpace(photo.MIMEType) == "" {
		return models.Photo{}, fmt.Errorf("%w: photo mime type is required", ErrValidation)
	}
	if err := s.requireInspection(ctx, photo.InspectionID); err != nil {
		return models.Photo{}, err
	}

	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return models.Photo{}, err
	}

	now := time.Now().Unix()
	if photo.ID == "" {
		photo.ID = s.uuid.Generate()
	}
	if photo.CapturedAt == 0 {
		photo.CapturedAt = now
	}
	if photo.SizeBytes == 0 {
		photo.SizeBytes = int64(len(photo.Data))
	}
	photo.DeviceID = deviceID
	photo.Synced = false
	photo.RetryCount = 0
	photo.UploadError = nil
	photo.CreatedAt = now

	item, err := s.newQueueItem(models.EntityPhoto, models.ActionCreate, photo.ID, deviceID, photo)
	if err != nil {
		return models.Photo{}, err
	}
	if err = s.storages.PhotoRepository.Insert(ctx, &photo, item); err != nil {
		return models.Photo{}, mapStoreError(err)
	}

	return photo, nil
}

func (s *entityService) GetPhoto(ctx context.Context, id string) (models.Photo, error) {
	photo, err := s.storages.PhotoRepository.Get(ctx, id)
	if err != nil {
		return models.Photo{}, mapStoreError(err)
	}
	return photo, nil
}

func (s *entityService) DeletePhoto(ctx context.Context, id string) error {
	photo, err := s.storages.PhotoRepository.Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}

	item, err := s.newQueueItem(models.EntityPhoto, models.ActionDelete, id, photo.DeviceID, deletionPayload{ID: id})
	if err != nil {
		return err
	}
	if err = s.storages.PhotoRepository.Delete(ctx, id, item); err != nil {
		return mapStoreError(err)
	}

	return nil
}

func (s *entityService) ResetPhotoUpload(ctx context.Context, id string) error {
	if err := s.storages.PhotoRepository.ResetUploadState(ctx, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *entityService) AddMeasurement(ctx context.Context, m models.Measurement) (models.Measurement, error) {
	if strings.TrimSpace(m.Name) == "" {
		return models.Measurement{}, fmt.Errorf("%w: measurement name is required", ErrValidation)
	}
	if strings.TrimSpace(m.Unit) == "" {
		return models.Measurement{}, fmt.Errorf("%w: measurement unit is required", ErrValidation)
	}
	if err := s.requireInspection(ctx, m.InspectionID); err != nil {
		return models.Measurement{}, err
	}

	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return models.Measurement{}, err
	}

	now := time.Now().Unix()
	if m.ID == "" {
		m.ID = s.uuid.Generate()
	}
	if m.RecordedAt == 0 {
		m.RecordedAt = now
	}
	m.DeviceID = deviceID
	m.CreatedAt = now

	item, err := s.newQueueItem(models.EntityMeasurement, models.ActionCreate, m.ID, deviceID, m)
	if err != nil {
		return models.Measurement{}, err
	}
	if err = s.storages.MeasurementRepository.Insert(ctx, &m, item); err != nil {
		return models.Measurement{}, mapStoreError(err)
	}

	return m, nil
}

func (s *entityService) DeleteMeasurement(ctx context.Context, id string) error {
	m, err := s.storages.MeasurementRepository.Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}

	item, err := s.newQueueItem(models.EntityMeasurement, models.ActionDelete, id, m.DeviceID, deletionPayload{ID: id})
	if err != nil {
		return err
	}
	if err = s.storages.MeasurementRepository.Delete(ctx, id, item); err != nil {
		return mapStoreError(err)
	}

	return nil
}

func (s *entityService) AddDamage(ctx context.Context, d models.DamageRecord) (models.DamageRecord, error) {
	if strings.TrimSpace(d.Category) == "" {
		return models.DamageRecord{}, fmt.Errorf("%w: damage category is required", ErrValidation)
	}
	if !d.Severity.Valid() {
		return models.DamageRecord{}, fmt.Errorf("%w: unknown damage severity %q", ErrValidation, d.Severity)
	}
	if err := s.requireInspection(ctx, d.InspectionID); err != nil {
		return models.DamageRecord{}, err
	}

	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return models.DamageRecord{}, err
	}

	now := time.Now().Unix()
	if d.ID == "" {
		d.ID = s.uuid.Generate()
	}
	d.DeviceID = deviceID
	d.CreatedAt = now
	d.UpdatedAt = now

	item, err := s.newQueueItem(models.EntityDamage, models.ActionCreate, d.ID, deviceID, d)
	if err != nil {
		return models.DamageRecord{}, err
	}
	if err = s.storages.DamageRepository.Insert(ctx, &d, item); err != nil {
		return models.DamageRecord{}, mapStoreError(err)
	}

	return d, nil
}

func (s *entityService) AmendDamage(ctx context.Context, id string, severity *models.DamageSeverity, notes *string) (models.DamageRecord, error) {
	d, err := s.storages.DamageRepository.Get(ctx, id)
	if err != nil {
		return models.DamageRecord{}, mapStoreError(err)
	}

	if severity != nil {
		if !severity.Valid() {
			return models.DamageRecord{}, fmt.Errorf("%w: unknown damage severity %q", ErrValidation, *severity)
		}
		d.Severity = *severity
	}
	if notes != nil {
		d.Notes = *notes
	}
	d.UpdatedAt = time.Now().Unix()

	item, err := s.newQueueItem(models.EntityDamage, models.ActionUpdate, d.ID, d.DeviceID, d)
	if err != nil {
		return models.DamageRecord{}, err
	}
	if err = s.storages.DamageRepository.Amend(ctx, &d, item); err != nil {
		return models.DamageRecord{}, mapStoreError(err)
	}

	return d, nil
}

func (s *entityService) DeleteDamage(ctx context.Context, id string) error {
	d, err := s.storages.DamageRepository.Get(ctx, id)
	if err != nil {
		return mapStoreError(err)
	}

	item, err := s.newQueueItem(models.EntityDamage, models.ActionDelete, id, d.DeviceID, deletionPayload{ID: id})
	if err != nil {
		return err
	}
	if err = s.storages.DamageRepository.Delete(ctx, id, item); err != nil {
		return mapStoreError(err)
	}

	return nil
}

func (s *entityService) PendingCount(ctx context.Context) (int, error) {
	return s.storages.QueueRepository.CountOpen(ctx)
}

func (s *entityService) FailedItems(ctx context.Context) ([]models.SyncQueueItem, error) {
	return s.storages.QueueRepository.ListExhausted(ctx)
}

func (s *entityService) ResendFailed(ctx context.Context, itemID string) error {
	if err := s.storages.QueueRepository.ResetFailed(ctx, itemID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *entityService) DiscardFailed(ctx context.Context, itemID string) error {
	if err := s.storages.QueueRepository.Discard(ctx, itemID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// deletionPayload is the queue snapshot for delete actions: the local row is
// gone, so only the identifier travels.
type deletionPayload struct {
	ID string `json:"id"`
}

// newQueueItem builds the outbound delivery record for one mutation. The
// payload is the entity snapshot at mutation time; later local edits produce
// their own items and never rewrite an enqueued one.
func (s *entityService) newQueueItem(entityType models.EntityType, action models.QueueAction, entityID, deviceID string, snapshot any) (*models.SyncQueueItem, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: encode queue snapshot: %w", ErrValidation, err)
	}

	return &models.SyncQueueItem{
		ID:           s.uuid.Generate(),
		EntityType:   entityType,
		Action:       action,
		EntityID:     entityID,
		Payload:      payload,
		SnapshotHash: utils.SnapshotDigest(payload),
		Priority:     models.PriorityFor(entityType, action),
		Status:       models.QueueStatusPending,
		RetryCount:   0,
		MaxRetries:   models.DefaultMaxRetries,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().Unix(),
	}, nil
}

// requireInspection rejects child mutations that reference an inspection the
// replica does not hold.
func (s *entityService) requireInspection(ctx context.Context, inspectionID string) error {
	if strings.TrimSpace(inspectionID) == "" {
		return fmt.Errorf("%w: inspection id is required", ErrValidation)
	}
	if _, err := s.storages.InspectionRepository.Get(ctx, inspectionID); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// mapStoreError translates store sentinels into the service error taxonomy.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrInspectionNotFound),
		errors.Is(err, store.ErrPhotoNotFound),
		errors.Is(err, store.ErrMeasurementNotFound),
		errors.Is(err, store.ErrDamageNotFound),
		errors.Is(err, store.ErrQueueItemNotFound),
		errors.Is(err, store.ErrConflictNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
