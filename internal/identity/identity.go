// Package identity resolves the stable per-install device identifier that
// tags every locally originated mutation.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/internal/store"
	"github.com/fieldsync/fieldsync/internal/utils"
	"github.com/fieldsync/fieldsync/models"
)

// Provider resolves and caches the device identity. Resolution order:
// a configured override wins, otherwise the persisted device row is reused,
// otherwise a fresh identifier is generated and persisted. The identifier
// never changes for the lifetime of the local store.
type Provider struct {
	devices store.DeviceRepository
	uuid    *utils.UUIDGenerator
	logger  *logger.Logger

	configured string
	resolved   string
}

// NewProvider constructs a [Provider] on top of the device repository.
func NewProvider(cfg config.Device, devices store.DeviceRepository, logger *logger.Logger) *Provider {
	return &Provider{
		devices:    devices,
		uuid:       utils.NewUUIDGenerator(),
		logger:     logger,
		configured: cfg.ID,
	}
}

// DeviceID returns the resolved device identifier, performing first-use
// registration when the local store has never been tagged.
func (p *Provider) DeviceID(ctx context.Context) (string, error) {
	if p.resolved != "" {
		return p.resolved, nil
	}

	device, err := p.devices.Get(ctx)
	switch {
	case err == nil:
		if p.configured != "" && p.configured != device.ID {
			p.logger.Warn().
				Str("func", "Provider.DeviceID").
				Str("configured", p.configured).
				Str("persisted", device.ID).
				Msg("configured device id differs from persisted identity, keeping persisted value")
		}
		p.resolved = device.ID
		return p.resolved, nil

	case errors.Is(err, store.ErrDeviceNotRegistered):
		id := p.configured
		if id == "" {
			id = p.uuid.Generate()
		}
		if saveErr := p.devices.Save(ctx, models.Device{ID: id, CreatedAt: time.Now().Unix()}); saveErr != nil {
			return "", saveErr
		}
		p.logger.Info().
			Str("func", "Provider.DeviceID").
			Str("device_id", id).
			Msg("registered device identity")
		p.resolved = id
		return p.resolved, nil

	default:
		return "", err
	}
}
