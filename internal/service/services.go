package service

import (
	"github.com/fieldsync/fieldsync/internal/adapter"
	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/identity"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/store"
)

// Services groups the replica's behavior into a single value wired once at
// startup.
type Services struct {
	EntityService   EntityService
	SyncService     SyncService
	ConflictService ConflictService
	ImportService   ImportService
	QuotaService    QuotaService
	SyncJob         SyncJob
}

// NewServices wires the full service layer on top of the storages, the
// device identity provider, and the sync transport.
func NewServices(cfg *config.StructuredConfig, storages *store.Storages, identityProvider *identity.Provider, transport adapter.SyncTransport, logger *logger.Logger) *Services {
	entitySvc := NewEntityService(storages, identityProvider, logger)
	conflictSvc := NewConflictService(storages, identityProvider, logger)
	syncSvc := NewSyncService(storages, transport, conflictSvc, cfg.Sync.Concurrency, logger)
	importSvc := NewImportService(storages, identityProvider, logger)
	quotaSvc := NewQuotaService(cfg.Storage, logger)

	return &Services{
		EntityService:   entitySvc,
		SyncService:     syncSvc,
		ConflictService: conflictSvc,
		ImportService:   importSvc,
		QuotaService:    quotaSvc,
		SyncJob:         NewSyncJob(syncSvc, logger),
	}
}
