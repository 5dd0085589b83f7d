package quota

import (
	"context"
	"fmt"

	"github.com/perfsage/perfsage/internal/store"
)

// usageStore abstracts the slice of the store the tracker needs.
type usageStore interface {
	CountUsage(ctx context.Context, username string) (int, error)
	AppendUsage(ctx context.Context, rec store.UsageRecord) error
}

// Tracker derives remaining uploads from the append-only usage log.
// Quota state is computed fresh on every check and never cached, so it is
// eventually consistent with the last durable write. Two parallel uploads
// by the same user can both observe remaining=1 and both proceed; that
// race is accepted.
type Tracker struct {
	store   usageStore
	ceiling int
}

// NewTracker builds a Tracker with the per-user upload ceiling.
func NewTracker(store usageStore, ceiling int) *Tracker {
	return &Tracker{store: store, ceiling: ceiling}
}

// Ceiling returns the fixed per-user upload limit.
func (t *Tracker) Ceiling() int { return t.ceiling }

// Remaining returns ceiling minus the user's recorded uploads, clamped
// at zero. A username with no records has the full ceiling available.
func (t *Tracker) Remaining(ctx context.Context, username string) (int, error) {
	count, err := t.store.CountUsage(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("count usage for %s: %w", username, err)
	}

	remaining := t.ceiling - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Record appends one usage record for a completed analysis. The record
// carries the ceiling so historical rows stay self-describing.
func (t *Tracker) Record(ctx context.Context, rec store.UsageRecord) error {
	rec.InitialUploadLimit = t.ceiling
	if err := t.store.AppendUsage(ctx, rec); err != nil {
		return fmt.Errorf("append usage for %s: %w", rec.Username, err)
	}
	return nil
}
