package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// integrityHeader carries the HMAC signature of the request body when a hash
// key is configured.
const integrityHeader = "X-Body-Signature"

type httpSyncTransport struct {
	client  *resty.Client
	hashKey string
	token   string
	logger  *logger.Logger
}

// NewHTTPSyncTransport constructs the HTTP/REST implementation of
// [SyncTransport] from the remote configuration.
func NewHTTPSyncTransport(cfg config.Remote, logger *logger.Logger) SyncTransport {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout)

	return &httpSyncTransport{
		client:  cli,
		hashKey: cfg.HashKey,
		token:   strings.TrimSpace(cfg.AuthToken),
		logger:  logger,
	}
}

func (h *httpSyncTransport) Push(ctx context.Context, item *models.SyncQueueItem) (models.PushResult, error) {
	if err := h.checkTokenExpiry(); err != nil {
		return models.PushResult{}, err
	}

	body, err := json.Marshal(models.PushRequest{
		ItemID:       item.ID,
		EntityType:   item.EntityType,
		Action:       item.Action,
		EntityID:     item.EntityID,
		Payload:      item.Payload,
		SnapshotHash: item.SnapshotHash,
		DeviceID:     item.DeviceID,
	})
	if err != nil {
		return models.PushResult{}, fmt.Errorf("encode push request: %w", err)
	}

	resp, err := h.signedRequest(ctx, body).Post("/api/sync/push")
	if err != nil {
		return models.PushResult{}, fmt.Errorf("push request: %w", err)
	}

	if resp.StatusCode() == http.StatusConflict {
		var remote models.RemoteSnapshot
		if decodeErr := json.Unmarshal(resp.Body(), &remote); decodeErr != nil {
			return models.PushResult{}, fmt.Errorf("decode conflict response: %w", decodeErr)
		}
		return models.PushResult{Accepted: false, Remote: &remote}, nil
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResult{}, err
	}

	return models.PushResult{Accepted: true}, nil
}

func (h *httpSyncTransport) Pull(ctx context.Context, entityType models.EntityType, since int64) ([]models.RemoteSnapshot, error) {
	if err := h.checkTokenExpiry(); err != nil {
		return nil, err
	}

	resp, err := h.authedRequest(ctx).
		SetQueryParam("entity_type", string(entityType)).
		SetQueryParam("since", strconv.FormatInt(since, 10)).
		Get("/api/sync/pull")
	if err != nil {
		return nil, fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var snapshots []models.RemoteSnapshot
	if err = json.Unmarshal(resp.Body(), &snapshots); err != nil {
		return nil, fmt.Errorf("decode pull response: %w", err)
	}

	return snapshots, nil
}

func (h *httpSyncTransport) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.token != "" {
		req.SetHeader("Authorization", "Bearer "+h.token)
	}
	return req
}

func (h *httpSyncTransport) signedRequest(ctx context.Context, body []byte) *resty.Request {
	req := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if h.hashKey != "" {
		req.SetHeader(integrityHeader, utils.SignBody(body, h.hashKey))
	}
	return req
}

// checkTokenExpiry inspects the configured bearer token before spending a
// network round trip on a request the remote side will refuse anyway. Tokens
// that are not JWTs, or JWTs without an exp claim, pass through untouched.
func (h *httpSyncTransport) checkTokenExpiry() error {
	if h.token == "" {
		return nil
	}

	token, _, err := jwt.NewParser().ParseUnverified(h.token, jwt.MapClaims{})
	if err != nil {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		h.logger.Warn().
			Str("func", "httpSyncTransport.checkTokenExpiry").
			Time("expired_at", exp.Time).
			Msg("auth token expired, skipping request")
		return ErrTokenExpired
	}

	return nil
}
