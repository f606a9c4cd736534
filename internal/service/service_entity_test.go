package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/identity"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/mock"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/models"
)

type entityServiceMocks struct {
	inspections  *mock.MockInspectionRepository
	photos       *mock.MockPhotoRepository
	measurements *mock.MockMeasurementRepository
	damage       *mock.MockDamageRepository
	queue        *mock.MockQueueRepository
	devices      *mock.MockDeviceRepository
}

func newTestEntityService(t *testing.T) (EntityService, entityServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := entityServiceMocks{
		inspections:  mock.NewMockInspectionRepository(ctrl),
		photos:       mock.NewMockPhotoRepository(ctrl),
		measurements: mock.NewMockMeasurementRepository(ctrl),
		damage:       mock.NewMockDamageRepository(ctrl),
		queue:        mock.NewMockQueueRepository(ctrl),
		devices:      mock.NewMockDeviceRepository(ctrl),
	}
	storages := &store.Storages{
		InspectionRepository:  mocks.inspections,
		PhotoRepository:       mocks.photos,
		MeasurementRepository: mocks.measurements,
		DamageRepository:      mocks.damage,
		QueueRepository:       mocks.queue,
		DeviceRepository:      mocks.devices,
	}

	l := logger.NewLogger("test")
	provider := identity.NewProvider(config.Device{ID: "dev-1"}, mocks.devices, l)
	return NewEntityService(storages, provider, l), mocks
}

func expectDeviceID(mocks entityServiceMocks) {
	mocks.devices.EXPECT().Get(gomock.Any()).Return(models.Device{ID: "dev-1", CreatedAt: 1}, nil)
}

func TestCreateInspection_EnqueuesExactlyOneItem(t *testing.T) {
	svc, mocks := newTestEntityService(t)
	expectDeviceID(mocks)

	var captured *models.SyncQueueItem
	mocks.inspections.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, insp *models.Inspection, item *models.SyncQueueItem) error {
			captured = item
			return nil
		})

	insp, err := svc.CreateInspection(context.Background(), models.Inspection{Address: "12 Harbour Rd"})
	require.NoError(t, err)

	assert.NotEmpty(t, insp.ID)
	assert.Equal(t, models.StatusDraft, insp.Status)
	assert.Equal(t, int64(1), insp.Version)
	assert.False(t, insp.IsSynced)
	assert.Equal(t, "dev-1", insp.DeviceID)

	require.NotNil(t, captured)
	assert.Equal(t, models.EntityInspection, captured.EntityType)
	assert.Equal(t, models.ActionCreate, captured.Action)
	assert.Equal(t, insp.ID, captured.EntityID)
	assert.Equal(t, models.PriorityInspection, captured.Priority)
	assert.Equal(t, models.QueueStatusPending, captured.Status)
	assert.Equal(t, models.DefaultMaxRetries, captured.MaxRetries)
	assert.NotEmpty(t, captured.SnapshotHash)
}

func TestCreateInspection_MissingAddressWritesNothing(t *testing.T) {
	svc, _ := newTestEntityService(t)

	_, err := svc.CreateInspection(context.Background(), models.Inspection{Address: "   "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateInspection_BumpsVersionAndResetsSyncFlag(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	syncedAt := int64(200)
	mocks.inspections.EXPECT().
		Get(gomock.Any(), "i1").
		Return(models.Inspection{
			ID: "i1", Address: "12 Harbour Rd", Status: models.StatusSynced,
			DeviceID: "dev-1", Version: 3, IsSynced: true, SyncedAt: &syncedAt,
			CreatedAt: 100, UpdatedAt: 150,
		}, nil)

	var updated *models.Inspection
	mocks.inspections.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, insp *models.Inspection, item *models.SyncQueueItem) error {
			updated = insp
			require.NotNil(t, item)
			assert.Equal(t, models.ActionUpdate, item.Action)
			return nil
		})

	notes := "crack widened"
	insp, err := svc.UpdateInspection(context.Background(), "i1", models.InspectionUpdate{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, int64(4), insp.Version)
	assert.False(t, insp.IsSynced)
	assert.Equal(t, "crack widened", updated.Notes)
}

func TestUpdateInspection_RejectsIllegalStatusTransition(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "i1").
		Return(models.Inspection{ID: "i1", Address: "a", Status: models.StatusCompleted, Version: 2}, nil)

	draft := models.StatusDraft
	_, err := svc.UpdateInspection(context.Background(), "i1", models.InspectionUpdate{Status: &draft})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteInspection_EnqueuesDeletionPayload(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "i1").
		Return(models.Inspection{ID: "i1", Address: "a", DeviceID: "dev-1"}, nil)
	mocks.inspections.EXPECT().
		Delete(gomock.Any(), "i1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, item *models.SyncQueueItem) error {
			assert.Equal(t, models.ActionDelete, item.Action)
			assert.Equal(t, models.PriorityDelete, item.Priority)
			assert.JSONEq(t, `{"id":"i1"}`, string(item.Payload))
			return nil
		})

	require.NoError(t, svc.DeleteInspection(context.Background(), "i1"))
}

func TestGetInspection_NotFoundMapped(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "missing").
		Return(models.Inspection{}, store.ErrInspectionNotFound)

	_, err := svc.GetInspection(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddPhoto_DefaultsAndPriority(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "i1").
		Return(models.Inspection{ID: "i1", Address: "a"}, nil)
	expectDeviceID(mocks)

	mocks.photos.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, photo *models.Photo, item *models.SyncQueueItem) error {
			assert.Equal(t, int64(3), photo.SizeBytes)
			assert.NotZero(t, photo.CapturedAt)
			assert.False(t, photo.Synced)
			assert.Equal(t, models.PriorityPhoto, item.Priority)
			return nil
		})

	photo, err := svc.AddPhoto(context.Background(), models.Photo{
		InspectionID: "i1",
		Data:         []byte{0xFF, 0xD8, 0xFF},
		MIMEType:     "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "dev-1", photo.DeviceID)
}

func TestAddPhoto_UnknownInspectionRejected(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "missing").
		Return(models.Inspection{}, store.ErrInspectionNotFound)

	_, err := svc.AddPhoto(context.Background(), models.Photo{
		InspectionID: "missing",
		Data:         []byte{1},
		MIMEType:     "image/jpeg",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddMeasurement_RequiresNameAndUnit(t *testing.T) {
	svc, _ := newTestEntityService(t)

	_, err := svc.AddMeasurement(context.Background(), models.Measurement{InspectionID: "i1", Unit: "mm"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddMeasurement(context.Background(), models.Measurement{InspectionID: "i1", Name: "crack width"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddMeasurement_PriorityAboveInspections(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.inspections.EXPECT().
		Get(gomock.Any(), "i1").
		Return(models.Inspection{ID: "i1", Address: "a"}, nil)
	expectDeviceID(mocks)

	mocks.measurements.EXPECT().
		Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *models.Measurement, item *models.SyncQueueItem) error {
			assert.Equal(t, models.PriorityMeasurement, item.Priority)
			return nil
		})

	_, err := svc.AddMeasurement(context.Background(), models.Measurement{
		InspectionID: "i1",
		Name:         "crack width",
		Value:        2.4,
		Unit:         "mm",
	})
	require.NoError(t, err)
}

func TestAmendDamage_OnlySeverityAndNotesChange(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.damage.EXPECT().
		Get(gomock.Any(), "d1").
		Return(models.DamageRecord{
			ID: "d1", InspectionID: "i1", Category: "corrosion",
			Severity: models.SeverityMinor, DeviceID: "dev-1", CreatedAt: 100, UpdatedAt: 100,
		}, nil)

	mocks.damage.EXPECT().
		Amend(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.DamageRecord, item *models.SyncQueueItem) error {
			assert.Equal(t, models.SeveritySevere, d.Severity)
			assert.Equal(t, "corrosion", d.Category)
			assert.Equal(t, models.ActionUpdate, item.Action)
			return nil
		})

	severe := models.SeveritySevere
	d, err := svc.AmendDamage(context.Background(), "d1", &severe, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SeveritySevere, d.Severity)
}

func TestAddDamage_InvalidSeverityRejected(t *testing.T) {
	svc, _ := newTestEntityService(t)

	_, err := svc.AddDamage(context.Background(), models.DamageRecord{
		InspectionID: "i1",
		Category:     "corrosion",
		Severity:     models.DamageSeverity("catastrophic"),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestResendFailed_MapsUnknownItem(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.queue.EXPECT().
		ResetFailed(gomock.Any(), "missing").
		Return(store.ErrQueueItemNotFound)

	err := svc.ResendFailed(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPendingCount_Delegates(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	mocks.queue.EXPECT().CountOpen(gomock.Any()).Return(5, nil)

	count, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestFailedItems_PropagatesStoreError(t *testing.T) {
	svc, mocks := newTestEntityService(t)

	storeErr := errors.New("database is locked")
	mocks.queue.EXPECT().ListExhausted(gomock.Any()).Return(nil, storeErr)

	_, err := svc.FailedItems(context.Background())
	require.ErrorIs(t, err, storeErr)
}
