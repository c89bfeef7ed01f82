package attribution

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bazimogmbh/easypurchase/pkg/kv"
)

const (
	keyAppUserID  = "appUserId"
	keyIsFirstRun = "isFirstRun"
)

// Flags holds the persisted attribution guards: the stable app user id
// and the first-run marker for the one-time purchase backfill.
type Flags struct {
	kv kv.KV
}

func NewFlags(backend kv.KV) *Flags {
	return &Flags{kv: backend}
}

// AppUserID returns the stable user id, generating and persisting it on
// first ever call. The first generation also arms the first-run flag.
func (f *Flags) AppUserID(ctx context.Context) (string, error) {
	existing, found, err := f.kv.Get(ctx, keyAppUserID)
	if err != nil {
		return "", err
	}
	if found && existing != "" {
		return existing, nil
	}

	id := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err := f.kv.Set(ctx, keyAppUserID, id); err != nil {
		return "", err
	}
	if err := f.kv.Set(ctx, keyIsFirstRun, "true"); err != nil {
		return "", err
	}
	return id, nil
}

// IsFirstRun reports whether the one-time backfill is still pending.
// An absent flag counts as pending.
func (f *Flags) IsFirstRun(ctx context.Context) bool {
	raw, found, err := f.kv.Get(ctx, keyIsFirstRun)
	if err != nil || !found {
		return true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return value
}

// ClearFirstRun permanently disarms the backfill.
func (f *Flags) ClearFirstRun(ctx context.Context) error {
	return f.kv.Set(ctx, keyIsFirstRun, "false")
}
