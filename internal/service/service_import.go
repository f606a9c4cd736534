package service

import (
	"context"
	"encoding/base64"
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

type importService struct {
	storages *store.Storages
	identity *identity.Provider
	uuid     *utils.UUIDGenerator
	logger   *logger.Logger
}

// NewImportService constructs the legacy archive importer.
func NewImportService(storages *store.Storages, identityProvider *identity.Provider, logger *logger.Logger) ImportService {
	return &importService{
		storages: storages,
		identity: identityProvider,
		uuid:     utils.NewUUIDGenerator(),
		logger:   logger,
	}
}

// ImportLegacy migrates a serialized legacy archive into the replica. The
// import is idempotent: inspections whose identifier already exists are
// skipped, so re-running a partially failed import only picks up the
// leftovers. Records the archive marks as synced do not re-enter the
// outbound queue. The returned bool is true only when every record imported
// cleanly; the caller may then clear the legacy source.
func (s *importService) ImportLegacy(ctx context.Context, blob []byte) (models.ImportSummary, bool, error) {
	var archive models.LegacyArchive
	if err := json.Unmarshal(blob, &archive); err != nil {
		return models.ImportSummary{}, false, fmt.Errorf("%w: decode legacy archive: %w", ErrValidation, err)
	}

	deviceID, err := s.identity.DeviceID(ctx)
	if err != nil {
		return models.ImportSummary{}, false, err
	}

	var summary models.ImportSummary
	for _, legacy := range archive.Inspections {
		s.importInspection(ctx, legacy, deviceID, &summary)
	}

	clearSource := len(summary.Errors) == 0

	s.logger.Info().
		Str("func", "importService.ImportLegacy").
		Int("migrated", summary.Migrated).
		Int("skipped", summary.Skipped).
		Int("errors", len(summary.Errors)).
		Bool("clear_source", clearSource).
		Msg("legacy import finished")

	return summary, clearSource, nil
}

func (s *importService) importInspection(ctx context.Context, legacy models.LegacyInspection, deviceID string, summary *models.ImportSummary) {
	if legacy.ID == "" {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityInspection,
			Reason:     "missing inspection id",
		})
		return
	}

	_, err := s.storages.InspectionRepository.Get(ctx, legacy.ID)
	switch {
	case err == nil:
		summary.Skipped++
		return
	case !errors.Is(err, store.ErrInspectionNotFound):
		summary.Errors = append(summary.Errors, importError(models.EntityInspection, legacy.ID, err))
		return
	}

	status := models.InspectionStatus(legacy.Status)
	if !status.Valid() {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityInspection,
			EntityID:   legacy.ID,
			Reason:     fmt.Sprintf("unknown status %q", legacy.Status),
		})
		return
	}
	if legacy.Address == "" {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityInspection,
			EntityID:   legacy.ID,
			Reason:     "missing address",
		})
		return
	}

	insp := models.Inspection{
		ID:        legacy.ID,
		Address:   legacy.Address,
		Status:    status,
		Notes:     legacy.Notes,
		DeviceID:  deviceID,
		Version:   1,
		IsSynced:  legacy.Synced,
		CreatedAt: legacy.CreatedAt,
		UpdatedAt: legacy.UpdatedAt,
	}
	if legacy.Latitude != nil && legacy.Longitude != nil {
		insp.Location = &models.GeoPoint{Latitude: *legacy.Latitude, Longitude: *legacy.Longitude}
	}
	if legacy.Synced {
		syncedAt := legacy.UpdatedAt
		insp.SyncedAt = &syncedAt
	}

	item, err := s.queueItemFor(models.EntityInspection, insp.ID, deviceID, insp, legacy.Synced)
	if err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityInspection, legacy.ID, err))
		return
	}
	if err = s.storages.InspectionRepository.Insert(ctx, &insp, item); err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityInspection, legacy.ID, err))
		return
	}
	summary.Migrated++

	for _, lp := range legacy.Photos {
		s.importPhoto(ctx, legacy.ID, lp, deviceID, summary)
	}
	for _, lm := range legacy.Measurements {
		s.importMeasurement(ctx, legacy.ID, lm, deviceID, summary)
	}
	for _, ld := range legacy.Damage {
		s.importDamage(ctx, legacy.ID, ld, deviceID, summary)
	}
}

func (s *importService) importPhoto(ctx context.Context, inspectionID string, legacy models.LegacyPhoto, deviceID string, summary *models.ImportSummary) {
	data, err := base64.StdEncoding.DecodeString(legacy.Data)
	if err != nil {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityPhoto,
			EntityID:   legacy.ID,
			Reason:     fmt.Sprintf("invalid base64 payload: %v", err),
		})
		return
	}
	if legacy.MIMEType == "" {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityPhoto,
			EntityID:   legacy.ID,
			Reason:     "missing mime type",
		})
		return
	}

	photo := models.Photo{
		ID:           legacy.ID,
		InspectionID: inspectionID,
		Data:         data,
		MIMEType:     legacy.MIMEType,
		SizeBytes:    int64(len(data)),
		CapturedAt:   legacy.CapturedAt,
		Synced:       legacy.Synced,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().Unix(),
	}
	if photo.ID == "" {
		photo.ID = s.uuid.Generate()
	}

	item, err := s.queueItemFor(models.EntityPhoto, photo.ID, deviceID, photo, legacy.Synced)
	if err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityPhoto, photo.ID, err))
		return
	}
	if err = s.storages.PhotoRepository.Insert(ctx, &photo, item); err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityPhoto, photo.ID, err))
	}
}

func (s *importService) importMeasurement(ctx context.Context, inspectionID string, legacy models.LegacyMeasurement, deviceID string, summary *models.ImportSummary) {
	if legacy.Name == "" || legacy.Unit == "" {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityMeasurement,
			EntityID:   legacy.ID,
			Reason:     "missing name or unit",
		})
		return
	}

	m := models.Measurement{
		ID:           legacy.ID,
		InspectionID: inspectionID,
		Name:         legacy.Name,
		Value:        legacy.Value,
		Unit:         legacy.Unit,
		RecordedAt:   legacy.RecordedAt,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().Unix(),
	}
	if m.ID == "" {
		m.ID = s.uuid.Generate()
	}

	item, err := s.queueItemFor(models.EntityMeasurement, m.ID, deviceID, m, legacy.Synced)
	if err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityMeasurement, m.ID, err))
		return
	}
	if err = s.storages.MeasurementRepository.Insert(ctx, &m, item); err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityMeasurement, m.ID, err))
	}
}

func (s *importService) importDamage(ctx context.Context, inspectionID string, legacy models.LegacyDamage, deviceID string, summary *models.ImportSummary) {
	severity := models.DamageSeverity(legacy.Severity)
	if !severity.Valid() {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityDamage,
			EntityID:   legacy.ID,
			Reason:     fmt.Sprintf("unknown severity %q", legacy.Severity),
		})
		return
	}
	if legacy.Category == "" {
		summary.Errors = append(summary.Errors, models.ImportError{
			EntityType: models.EntityDamage,
			EntityID:   legacy.ID,
			Reason:     "missing category",
		})
		return
	}

	now := time.Now().Unix()
	d := models.DamageRecord{
		ID:           legacy.ID,
		InspectionID: inspectionID,
		Category:     legacy.Category,
		Severity:     severity,
		Notes:        legacy.Notes,
		PhotoIDs:     legacy.PhotoIDs,
		DeviceID:     deviceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if d.ID == "" {
		d.ID = s.uuid.Generate()
	}

	item, err := s.queueItemFor(models.EntityDamage, d.ID, deviceID, d, legacy.Synced)
	if err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityDamage, d.ID, err))
		return
	}
	if err = s.storages.DamageRepository.Insert(ctx, &d, item); err != nil {
		summary.Errors = append(summary.Errors, importError(models.EntityDamage, d.ID, err))
	}
}

// queueItemFor builds a create item for an imported record, or nil when the
// archive already marks the record as delivered.
func (s *importService) queueItemFor(entityType models.EntityType, entityID, deviceID string, snapshot any, synced bool) (*models.SyncQueueItem, error) {
	if synced {
		return nil, nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	return &models.SyncQueueItem{
		ID:           s.uuid.Generate(),
		EntityType:   entityType,
		Action:       models.ActionCreate,
		EntityID:     entityID,
		Payload:      payload,
		SnapshotHash: utils.SnapshotDigest(payload),
		Priority:     models.PriorityFor(entityType, models.ActionCreate),
		Status:       models.QueueStatusPending,
		MaxRetries:   models.DefaultMaxRetries,
		DeviceID:     deviceID,
		CreatedAt:    time.Now().Unix(),
	}, nil
}

func importError(entityType models.EntityType, entityID string, err error) models.ImportError {
	return models.ImportError{
		EntityType: entityType,
		EntityID:   entityID,
		Reason:     err.Error(),
	}
}
