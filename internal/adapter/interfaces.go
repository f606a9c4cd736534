// Package adapter provides transport-layer abstractions for communicating
// with the remote system of record.
//
// The primary abstraction is [SyncTransport], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPSyncTransport]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401). A 409 is not an error at
// all: it carries the remote snapshot and is surfaced as a non-accepted
// [models.PushResult].
package adapter

import (
	"context"

	"github.com/fieldsync/fieldsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/sync_transport_mock.go -package=mock

// SyncTransport defines transport-agnostic delivery of queued mutations to
// the remote backend. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
type SyncTransport interface {
	// Push delivers one queued mutation. An accepted push returns
	// PushResult{Accepted: true}. A push the remote rejects because its copy
	// of the entity diverged returns PushResult{Accepted: false} with the
	// remote snapshot attached; this is a normal outcome, not an error.
	// Errors mean the attempt itself failed and the item should be retried.
	Push(ctx context.Context, item *models.SyncQueueItem) (models.PushResult, error)

	// Pull fetches remote-side snapshots of the given entity kind changed
	// since the provided unix timestamp. Zero means everything.
	Pull(ctx context.Context, entityType models.EntityType, since int64) ([]models.RemoteSnapshot, error)
}
