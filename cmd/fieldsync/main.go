package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldsync/fieldsync/internal/adapter"
	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/identity"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/service"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("fieldsync")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}
	defer storages.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	identityProvider := identity.NewProvider(cfg.Device, storages.DeviceRepository, log)
	deviceID, err := identityProvider.DeviceID(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve device identity")
	}
	log.Info().Str("device_id", deviceID).Msg("device identity resolved")

	transport := adapter.NewHTTPSyncTransport(cfg.Remote, log)
	services := service.NewServices(cfg, storages, identityProvider, transport, log)

	if !services.QuotaService.RequestPersistence(ctx) {
		log.Warn().Msg("running with degraded storage durability")
	}

	workers.NewWorkers(
		workers.NewSyncWorker(ctx, services.SyncJob, cfg.Sync.Interval),
	).Run()

	log.Info().Msg("fieldsync engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down...")
	services.SyncJob.Stop()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
