package device

import (
	"context"
	"errors"
)

// ErrTokenUnavailable is returned when the platform cannot produce an
// attribution token, typically on a simulated device.
var ErrTokenUnavailable = errors.New("attribution_token_unavailable")

// Info is the device and application identity snapshot reported to the
// telemetry backend during the configure flow.
type Info struct {
	BundleID      string
	AppVersion    string
	StoreAppID    string
	OSVersion     string
	Model         string
	Locale        string
	CountryCode   string
	VendorID      string
	AdvertisingID string
	Simulated     bool
}

// InfoProvider exposes the identity of the device the engine runs for.
type InfoProvider interface {
	Info(ctx context.Context) (Info, error)
}

// ConsentProvider asks the user for tracking permission. The status is
// informational; the configure flow proceeds either way.
type ConsentProvider interface {
	RequestTrackingConsent(ctx context.Context) (granted bool, err error)
}

// AttributionTokenProvider fetches the platform ad attribution token.
type AttributionTokenProvider interface {
	Token(ctx context.Context) (string, error)
}
