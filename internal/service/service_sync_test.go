package service

import (
	"context"
	"encoding/json"
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
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

type syncServiceMocks struct {
	inspections  *mock.MockInspectionRepository
	photos       *mock.MockPhotoRepository
	measurements *mock.MockMeasurementRepository
	damage       *mock.MockDamageRepository
	queue        *mock.MockQueueRepository
	conflicts    *mock.MockConflictRepository
	devices      *mock.MockDeviceRepository
	transport    *mock.MockSyncTransport
}

func newTestSyncService(t *testing.T) (SyncService, syncServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := syncServiceMocks{
		inspections:  mock.NewMockInspectionRepository(ctrl),
		photos:       mock.NewMockPhotoRepository(ctrl),
		measurements: mock.NewMockMeasurementRepository(ctrl),
		damage:       mock.NewMockDamageRepository(ctrl),
		queue:        mock.NewMockQueueRepository(ctrl),
		conflicts:    mock.NewMockConflictRepository(ctrl),
		devices:      mock.NewMockDeviceRepository(ctrl),
		transport:    mock.NewMockSyncTransport(ctrl),
	}
	storages := &store.Storages{
		InspectionRepository:  mocks.inspections,
		PhotoRepository:       mocks.photos,
		MeasurementRepository: mocks.measurements,
		DamageRepository:      mocks.damage,
		QueueRepository:       mocks.queue,
		ConflictRepository:    mocks.conflicts,
		DeviceRepository:      mocks.devices,
	}

	l := logger.NewLogger("test")
	provider := identity.NewProvider(config.Device{ID: "dev-1"}, mocks.devices, l)
	conflictSvc := NewConflictService(storages, provider, l)
	return NewSyncService(storages, mocks.transport, conflictSvc, 2, l), mocks
}

func queueItem(id string, entityType models.EntityType, entityID string, priority int) models.SyncQueueItem {
	return models.SyncQueueItem{
		ID:         id,
		EntityType: entityType,
		Action:     models.ActionCreate,
		EntityID:   entityID,
		Payload:    []byte(`{"id":"` + entityID + `"}`),
		Priority:   priority,
		Status:     models.QueueStatusPending,
		MaxRetries: models.DefaultMaxRetries,
		DeviceID:   "dev-1",
		CreatedAt:  100,
	}
}

func TestDrainOnce_EmptyQueue(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	mocks.queue.EXPECT().DequeueBatch(gomock.Any()).Return(nil, nil)

	stats, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainStats{}, stats)
}

func TestDrainOnce_DefersSecondItemOfSameEntity(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	items := []models.SyncQueueItem{
		queueItem("q1", models.EntityPhoto, "p1", models.PriorityPhoto),
		queueItem("q2", models.EntityInspection, "i1", models.PriorityInspection),
		queueItem("q3", models.EntityInspection, "i1", models.PriorityInspection),
	}
	mocks.queue.EXPECT().DequeueBatch(gomock.Any()).Return(items, nil)

	mocks.queue.EXPECT().MarkProcessing(gomock.Any(), "q1").Return(nil)
	mocks.queue.EXPECT().MarkProcessing(gomock.Any(), "q2").Return(nil)
	mocks.transport.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResult{Accepted: true}, nil).Times(2)
	mocks.queue.EXPECT().MarkCompleted(gomock.Any(), "q1", gomock.Any()).Return(nil)
	mocks.queue.EXPECT().MarkCompleted(gomock.Any(), "q2", gomock.Any()).Return(nil)
	mocks.photos.EXPECT().MarkSynced(gomock.Any(), "p1").Return(nil)
	mocks.inspections.EXPECT().MarkSynced(gomock.Any(), "i1", gomock.Any()).Return(nil)

	stats, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Dispatched)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Deferred)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Conflicts)
}

func TestDrainOnce_RejectedPushRecordsConflictAndCompletesItem(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	item := queueItem("q1", models.EntityInspection, "i1", models.PriorityInspection)
	mocks.queue.EXPECT().DequeueBatch(gomock.Any()).Return([]models.SyncQueueItem{item}, nil)
	mocks.queue.EXPECT().MarkProcessing(gomock.Any(), "q1").Return(nil)

	remote := models.RemoteSnapshot{
		EntityType: models.EntityInspection,
		EntityID:   "i1",
		Snapshot:   []byte(`{"id":"i1","address":"other"}`),
		UpdatedAt:  300,
	}
	mocks.transport.EXPECT().Push(gomock.Any(), gomock.Any()).
		Return(models.PushResult{Accepted: false, Remote: &remote}, nil)

	mocks.conflicts.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *models.SyncConflict) error {
			assert.NotEmpty(t, c.ID)
			assert.Equal(t, models.EntityInspection, c.EntityType)
			assert.Equal(t, "i1", c.EntityID)
			assert.Equal(t, []byte(item.Payload), []byte(c.LocalSnapshot))
			assert.Equal(t, []byte(remote.Snapshot), []byte(c.RemoteSnapshot))
			assert.False(t, c.IsResolved)
			return nil
		})
	mocks.queue.EXPECT().MarkCompleted(gomock.Any(), "q1", gomock.Any()).Return(nil)

	stats, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Conflicts)
	assert.Zero(t, stats.Completed)
	assert.Zero(t, stats.Failed)
}

func TestDrainOnce_TransportErrorMarksFailedAndBooksPhotoError(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	item := queueItem("q1", models.EntityPhoto, "p1", models.PriorityPhoto)
	mocks.queue.EXPECT().DequeueBatch(gomock.Any()).Return([]models.SyncQueueItem{item}, nil)
	mocks.queue.EXPECT().MarkProcessing(gomock.Any(), "q1").Return(nil)

	pushErr := errors.New("internal server error")
	mocks.transport.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResult{}, pushErr)

	// The recorded error carries the transient taxonomy so operators can tell
	// retryable delivery failures from validation rejections.
	wantError := ErrTransientSync.Error() + ": internal server error"
	mocks.queue.EXPECT().MarkFailed(gomock.Any(), "q1", wantError).Return(nil)
	mocks.photos.EXPECT().RecordUploadError(gomock.Any(), "p1", wantError).Return(nil)

	stats, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Completed)
}

func TestDrainOnce_DeleteAcknowledgesNothing(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	item := queueItem("q1", models.EntityInspection, "i1", models.PriorityDelete)
	item.Action = models.ActionDelete
	mocks.queue.EXPECT().DequeueBatch(gomock.Any()).Return([]models.SyncQueueItem{item}, nil)
	mocks.queue.EXPECT().MarkProcessing(gomock.Any(), "q1").Return(nil)
	mocks.transport.EXPECT().Push(gomock.Any(), gomock.Any()).Return(models.PushResult{Accepted: true}, nil)
	mocks.queue.EXPECT().MarkCompleted(gomock.Any(), "q1", gomock.Any()).Return(nil)

	stats, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Completed)
}

func TestPullChanges_SkipsEntitiesWithOpenQueueItems(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	remote := models.RemoteSnapshot{
		EntityType: models.EntityInspection,
		EntityID:   "i1",
		Snapshot:   []byte(`{"id":"i1"}`),
		Hash:       "whatever",
		UpdatedAt:  300,
	}
	mocks.transport.EXPECT().Pull(gomock.Any(), models.EntityInspection, int64(0)).
		Return([]models.RemoteSnapshot{remote}, nil)
	mocks.queue.EXPECT().ListOpenEntityIDs(gomock.Any()).
		Return(map[string]struct{}{"i1": {}}, nil)

	recorded, err := svc.PullChanges(context.Background(), models.EntityInspection, 0)
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

func TestPullChanges_MatchingDigestIsNotAConflict(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	local := models.Inspection{ID: "i1", Address: "12 Harbour Rd", Status: models.StatusSynced, Version: 2}
	payload, err := json.Marshal(local)
	require.NoError(t, err)

	remote := models.RemoteSnapshot{
		EntityType: models.EntityInspection,
		EntityID:   "i1",
		Snapshot:   payload,
		Hash:       utils.SnapshotDigest(payload),
		UpdatedAt:  300,
	}
	mocks.transport.EXPECT().Pull(gomock.Any(), models.EntityInspection, int64(0)).
		Return([]models.RemoteSnapshot{remote}, nil)
	mocks.queue.EXPECT().ListOpenEntityIDs(gomock.Any()).Return(map[string]struct{}{}, nil)
	mocks.inspections.EXPECT().Get(gomock.Any(), "i1").Return(local, nil)

	recorded, err := svc.PullChanges(context.Background(), models.EntityInspection, 0)
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

func TestPullChanges_DivergedDigestRecordsConflict(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	local := models.Inspection{ID: "i1", Address: "12 Harbour Rd", Status: models.StatusSynced, Version: 2, UpdatedAt: 250}
	remote := models.RemoteSnapshot{
		EntityType: models.EntityInspection,
		EntityID:   "i1",
		Snapshot:   []byte(`{"id":"i1","address":"14 Harbour Rd"}`),
		Hash:       "remote-digest-that-differs",
		UpdatedAt:  300,
	}
	mocks.transport.EXPECT().Pull(gomock.Any(), models.EntityInspection, int64(100)).
		Return([]models.RemoteSnapshot{remote}, nil)
	mocks.queue.EXPECT().ListOpenEntityIDs(gomock.Any()).Return(map[string]struct{}{}, nil)
	mocks.inspections.EXPECT().Get(gomock.Any(), "i1").Return(local, nil)

	mocks.conflicts.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *models.SyncConflict) error {
			assert.Equal(t, "i1", c.EntityID)
			assert.Equal(t, int64(250), c.LocalTimestamp)
			assert.Equal(t, int64(300), c.RemoteTimestamp)
			return nil
		})

	recorded, err := svc.PullChanges(context.Background(), models.EntityInspection, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)
}

func TestPullChanges_UnknownLocalEntityIsSkipped(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	remote := models.RemoteSnapshot{
		EntityType: models.EntityPhoto,
		EntityID:   "p-new",
		Snapshot:   []byte(`{"id":"p-new"}`),
		Hash:       "h",
	}
	mocks.transport.EXPECT().Pull(gomock.Any(), models.EntityPhoto, int64(0)).
		Return([]models.RemoteSnapshot{remote}, nil)
	mocks.queue.EXPECT().ListOpenEntityIDs(gomock.Any()).Return(map[string]struct{}{}, nil)
	mocks.photos.EXPECT().Get(gomock.Any(), "p-new").Return(models.Photo{}, store.ErrPhotoNotFound)

	recorded, err := svc.PullChanges(context.Background(), models.EntityPhoto, 0)
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

func TestPullChanges_TransportErrorIsTransient(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	mocks.transport.EXPECT().Pull(gomock.Any(), models.EntityInspection, int64(0)).
		Return(nil, errors.New("connection refused"))

	_, err := svc.PullChanges(context.Background(), models.EntityInspection, 0)
	require.ErrorIs(t, err, ErrTransientSync)
}

func TestClearCompleted_ReportsDeleted(t *testing.T) {
	svc, mocks := newTestSyncService(t)

	mocks.queue.EXPECT().DeleteCompletedBefore(gomock.Any(), gomock.Any()).Return(int64(3), nil)

	deleted, err := svc.ClearCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
