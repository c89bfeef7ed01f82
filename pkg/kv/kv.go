// Package kv provides the durable key/value backends used for entitlement
// state and one-shot flags.
package kv

import (
	"context"
	"errors"
)

// KV is a durable string key/value store. Implementations are last-write-wins;
// callers are expected to serialize writers.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

var ErrUnavailable = errors.New("kv_unavailable")
