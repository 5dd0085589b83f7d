package store

import (
	"context"

	"github.com/perfsage/perfsage/internal/metrics"
)

// withRetry runs op and recovers exactly once from an expired delegated
// credential: refresh the broker, rebuild the client, re-run op. Every
// other failure class propagates untouched; a second expired-token
// failure surfaces rather than looping.
func (c *Context) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !IsAuthExpired(err) {
		return err
	}

	metrics.ExpiredTokenRecoveries.Inc()
	if _, rerr := c.broker.ForceRefresh(ctx); rerr != nil {
		return &Error{Op: "refresh credentials", Kind: KindAuthFailure, Err: rerr}
	}
	c.invalidate()

	return op(ctx)
}
