package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/models"
)

func newTestPhotoRepo(t *testing.T) (*photoRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.NewLogger("test")
	repo := &photoRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

var photoColumns = []string{
	"id", "inspection_id", "data", "thumbnail", "mime_type", "size_bytes", "captured_at",
	"latitude", "longitude", "accuracy_m", "camera_meta", "synced", "retry_count", "upload_error",
	"device_id", "created_at",
}

func TestPhotoInsert_SerializesCameraMeta(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	photo := &models.Photo{
		ID:           "p1",
		InspectionID: "i1",
		Data:         []byte{0xFF, 0xD8},
		MIMEType:     "image/jpeg",
		SizeBytes:    2,
		CapturedAt:   100,
		CameraMeta:   map[string]string{"iso": "400"},
		DeviceID:     "dev",
		CreatedAt:    100,
	}
	item := &models.SyncQueueItem{
		ID:         "q1",
		EntityType: models.EntityPhoto,
		Action:     models.ActionCreate,
		EntityID:   "p1",
		Payload:    []byte(`{"id":"p1"}`),
		Priority:   models.PriorityPhoto,
		Status:     models.QueueStatusPending,
		MaxRetries: models.DefaultMaxRetries,
		DeviceID:   "dev",
		CreatedAt:  100,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO photos").
		WithArgs("p1", "i1", []byte{0xFF, 0xD8}, []byte(nil), "image/jpeg", int64(2), int64(100),
			nil, nil, nil, `{"iso":"400"}`, false, 0, nil, "dev", int64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sync_queue").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.Insert(context.Background(), photo, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPhotoGet_RestoresMetaAndUploadError(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows(photoColumns).
		AddRow("p1", "i1", []byte{0xFF}, []byte{0xAA}, "image/jpeg", 1, 100,
			52.1, 4.3, 5.0, `{"iso":"400"}`, false, 2, "remote 500", "dev", 100)

	mock.ExpectQuery("SELECT .+ FROM photos WHERE id = \\?").
		WithArgs("p1").
		WillReturnRows(rows)

	photo, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if photo.CameraMeta["iso"] != "400" {
		t.Errorf("expected camera meta restored, got %+v", photo.CameraMeta)
	}
	if photo.UploadError == nil || *photo.UploadError != "remote 500" {
		t.Errorf("expected upload error restored, got %+v", photo.UploadError)
	}
	if photo.Location == nil || photo.Location.AccuracyM != 5.0 {
		t.Errorf("expected location restored, got %+v", photo.Location)
	}
}

func TestPhotoGet_NotFound(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM photos WHERE id = \\?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
}

func TestPhotoRecordUploadError_IncrementsRetryCount(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE photos SET retry_count = retry_count \\+ 1, upload_error = \\?").
		WithArgs("connection refused", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordUploadError(context.Background(), "p1", "connection refused"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPhotoMarkSynced_ClearsUploadError(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE photos SET synced = 1, upload_error = NULL").
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkSynced(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPhotoDelete_UnknownRow(t *testing.T) {
	repo, mock, db := newTestPhotoRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM photos WHERE id = \\?").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing", nil)
	if !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
}
