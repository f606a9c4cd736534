package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

func newTestTransport(t *testing.T, handler http.Handler, cfg config.Remote) SyncTransport {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return NewHTTPSyncTransport(cfg, logger.NewLogger("test"))
}

func testQueueItem() *models.SyncQueueItem {
	payload := []byte(`{"id":"i1","address":"12 Harbour Rd"}`)
	return &models.SyncQueueItem{
		ID:           "q1",
		EntityType:   models.EntityInspection,
		Action:       models.ActionCreate,
		EntityID:     "i1",
		Payload:      payload,
		SnapshotHash: utils.SnapshotDigest(payload),
		Priority:     models.PriorityInspection,
		Status:       models.QueueStatusProcessing,
		MaxRetries:   models.DefaultMaxRetries,
		DeviceID:     "dev-1",
		CreatedAt:    100,
	}
}

func TestPush_AcceptedDecodesRequest(t *testing.T) {
	var received models.PushRequest

	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	})

	transport := newTestTransport(t, r, config.Remote{})

	result, err := transport.Push(context.Background(), testQueueItem())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Nil(t, result.Remote)
	assert.Equal(t, "q1", received.ItemID)
	assert.Equal(t, models.EntityInspection, received.EntityType)
	assert.Equal(t, "dev-1", received.DeviceID)
	assert.NotEmpty(t, received.SnapshotHash)
}

func TestPush_ConflictCarriesRemoteSnapshot(t *testing.T) {
	remote := models.RemoteSnapshot{
		EntityType: models.EntityInspection,
		EntityID:   "i1",
		Snapshot:   []byte(`{"id":"i1","address":"14 Harbour Rd"}`),
		Version:    3,
		Hash:       "remote-digest",
		UpdatedAt:  300,
	}

	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(remote)
	})

	transport := newTestTransport(t, r, config.Remote{})

	result, err := transport.Push(context.Background(), testQueueItem())
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	require.NotNil(t, result.Remote)
	assert.Equal(t, "i1", result.Remote.EntityID)
	assert.Equal(t, int64(3), result.Remote.Version)
	assert.JSONEq(t, string(remote.Snapshot), string(result.Remote.Snapshot))
}

func TestPush_ServerErrorMapped(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "replica out of sync", http.StatusInternalServerError)
	})

	transport := newTestTransport(t, r, config.Remote{})

	_, err := transport.Push(context.Background(), testQueueItem())
	require.ErrorIs(t, err, ErrInternalServerError)
	assert.Contains(t, err.Error(), "replica out of sync")
}

func TestPush_UnauthorizedMapped(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	transport := newTestTransport(t, r, config.Remote{})

	_, err := transport.Push(context.Background(), testQueueItem())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestPush_SignsBodyWhenHashKeyConfigured(t *testing.T) {
	const hashKey = "shared-secret"

	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, utils.SignBody(body, hashKey), req.Header.Get(integrityHeader))
		w.WriteHeader(http.StatusOK)
	})

	transport := newTestTransport(t, r, config.Remote{HashKey: hashKey})

	_, err := transport.Push(context.Background(), testQueueItem())
	require.NoError(t, err)
}

func TestPush_BearerTokenAttached(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/sync/push", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer opaque-token", req.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	transport := newTestTransport(t, r, config.Remote{AuthToken: "opaque-token"})

	_, err := transport.Push(context.Background(), testQueueItem())
	require.NoError(t, err)
}

func TestPush_ExpiredTokenShortCircuits(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	token, err := expired.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Post("/api/sync/push", func(http.ResponseWriter, *http.Request) {
		t.Error("request must not reach the server with an expired token")
	})

	transport := newTestTransport(t, r, config.Remote{AuthToken: token})

	_, err = transport.Push(context.Background(), testQueueItem())
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestPull_DecodesSnapshotsAndQuery(t *testing.T) {
	snapshots := []models.RemoteSnapshot{
		{EntityType: models.EntityPhoto, EntityID: "p1", Snapshot: []byte(`{"id":"p1"}`), Hash: "h1", UpdatedAt: 200},
		{EntityType: models.EntityPhoto, EntityID: "p2", Snapshot: []byte(`{"id":"p2"}`), Hash: "h2", UpdatedAt: 300},
	}

	r := chi.NewRouter()
	r.Get("/api/sync/pull", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "photo", req.URL.Query().Get("entity_type"))
		assert.Equal(t, "150", req.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshots)
	})

	transport := newTestTransport(t, r, config.Remote{})

	got, err := transport.Pull(context.Background(), models.EntityPhoto, 150)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].EntityID)
	assert.Equal(t, int64(300), got[1].UpdatedAt)
}

func TestPull_BadGatewayMapped(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/sync/pull", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	transport := newTestTransport(t, r, config.Remote{})

	_, err := transport.Pull(context.Background(), models.EntityInspection, 0)
	require.ErrorIs(t, err, ErrBadGateway)
}
