package device

import (
	"context"

	"github.com/bazimogmbh/easypurchase/internal/config"
)

// StaticProvider serves identity, consent and the attribution token from
// configuration. The daemon has no real device to interrogate, so the
// values are pinned at startup.
type StaticProvider struct {
	info    Info
	consent bool
	token   string
}

func NewStatic(cfg config.Config) *StaticProvider {
	return &StaticProvider{
		info: Info{
			BundleID:      cfg.BundleID,
			AppVersion:    cfg.AppVersion,
			StoreAppID:    cfg.StoreAppID,
			OSVersion:     cfg.OSVersion,
			Model:         cfg.DeviceModel,
			Locale:        cfg.Locale,
			CountryCode:   cfg.CountryCode,
			VendorID:      cfg.VendorID,
			AdvertisingID: cfg.AdvertisingID,
			Simulated:     cfg.SimulatedDevice,
		},
		consent: cfg.TrackingConsent,
		token:   cfg.AttributionToken,
	}
}

func (p *StaticProvider) Info(ctx context.Context) (Info, error) {
	return p.info, nil
}

func (p *StaticProvider) RequestTrackingConsent(ctx context.Context) (bool, error) {
	return p.consent, nil
}

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	if p.info.Simulated || p.token == "" {
		return "", ErrTokenUnavailable
	}
	return p.token, nil
}
