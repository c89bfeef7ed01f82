package storefront

import (
	"go.uber.org/fx"
)

var Module = fx.Module("providers.storefront",
	fx.Provide(NewClient),
)

// NewClient returns the storefront collaborator for the daemon. The real
// payment queue lives on the device; the process talks to it through this
// interface, so the standalone daemon runs against the in-memory fake.
func NewClient() Client {
	return NewFake()
}
