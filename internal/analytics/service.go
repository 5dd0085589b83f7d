package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/perfsage/perfsage/internal/metrics"
	"github.com/perfsage/perfsage/internal/store"
)

// usageScanner abstracts the full-table scan the aggregates need.
type usageScanner interface {
	ScanUsage(ctx context.Context) ([]store.UsageRecord, error)
}

// Snapshot holds aggregate usage numbers at a point in time.
type Snapshot struct {
	TotalUsers   int       `json:"total_users"`
	TotalUploads int       `json:"total_uploads"`
	TotalTokens  int       `json:"total_tokens"`
	RefreshedAt  time.Time `json:"refreshed_at"`
}

// Service computes usage aggregates from the usage table and caches the
// latest snapshot. The table scan is expensive, so requests serve the
// cached value and a cron schedule refreshes it.
type Service struct {
	store  usageScanner
	logger *slog.Logger
	cron   *cron.Cron

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewService constructs an analytics service.
func NewService(store usageScanner, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Start refreshes the snapshot once and schedules recurring refreshes.
func (s *Service) Start(ctx context.Context, spec string) error {
	if err := s.Refresh(ctx); err != nil {
		// A cold cache is acceptable at boot; the cron catches up.
		s.logger.Warn("initial analytics refresh failed", "error", err)
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("scheduled analytics refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule analytics refresh: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the refresh schedule.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Refresh recomputes the aggregates from a full usage-table scan and
// publishes them to the cache and the Prometheus gauges.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.store.ScanUsage(ctx)
	if err != nil {
		return fmt.Errorf("scan usage: %w", err)
	}

	users := make(map[string]struct{})
	uploads := make(map[string]struct{})
	tokens := 0
	for _, rec := range records {
		users[rec.Username] = struct{}{}
		if rec.CompletionID != "" {
			uploads[rec.CompletionID] = struct{}{}
		}
		tokens += rec.TotalTokens
	}

	snap := Snapshot{
		TotalUsers:   len(users),
		TotalUploads: len(uploads),
		TotalTokens:  tokens,
		RefreshedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	metrics.TotalUsers.Set(float64(snap.TotalUsers))
	metrics.TotalUploads.Set(float64(snap.TotalUploads))
	metrics.TotalTokens.Set(float64(snap.TotalTokens))
	return nil
}

// Current returns the last published snapshot.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
