package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/perfsage/perfsage/internal/store"
)

type memoryUsage struct {
	records  []store.UsageRecord
	countErr error
	putErr   error
}

func (m *memoryUsage) CountUsage(ctx context.Context, username string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	count := 0
	for _, rec := range m.records {
		if rec.Username == username {
			count++
		}
	}
	return count, nil
}

func (m *memoryUsage) AppendUsage(ctx context.Context, rec store.UsageRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.records = append(m.records, rec)
	return nil
}

func TestRemainingForFreshUser(t *testing.T) {
	tracker := NewTracker(&memoryUsage{}, 10)

	remaining, err := tracker.Remaining(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if remaining != 10 {
		t.Fatalf("expected full ceiling for fresh user, got %d", remaining)
	}
}

func TestRemainingDecreasesByOnePerRecord(t *testing.T) {
	usage := &memoryUsage{}
	tracker := NewTracker(usage, 10)

	for i := 0; i < 4; i++ {
		if err := tracker.Record(context.Background(), store.UsageRecord{Username: "alice"}); err != nil {
			t.Fatalf("Record %d returned error: %v", i, err)
		}
		remaining, err := tracker.Remaining(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Remaining returned error: %v", err)
		}
		if remaining != 10-(i+1) {
			t.Fatalf("after %d records expected remaining %d, got %d", i+1, 10-(i+1), remaining)
		}
	}
}

func TestRemainingClampsAtZero(t *testing.T) {
	usage := &memoryUsage{}
	for i := 0; i < 12; i++ {
		usage.records = append(usage.records, store.UsageRecord{Username: "bob"})
	}
	tracker := NewTracker(usage, 10)

	remaining, err := tracker.Remaining(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected remaining clamped at 0, got %d", remaining)
	}
}

func TestRemainingIsPerUser(t *testing.T) {
	usage := &memoryUsage{records: []store.UsageRecord{
		{Username: "alice"}, {Username: "alice"}, {Username: "carol"},
	}}
	tracker := NewTracker(usage, 10)

	remaining, err := tracker.Remaining(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if remaining != 9 {
		t.Fatalf("expected carol unaffected by alice's records, got %d", remaining)
	}
}

func TestRecordStampsCeiling(t *testing.T) {
	usage := &memoryUsage{}
	tracker := NewTracker(usage, 10)

	if err := tracker.Record(context.Background(), store.UsageRecord{Username: "alice"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if got := usage.records[0].InitialUploadLimit; got != 10 {
		t.Fatalf("expected record to carry ceiling 10, got %d", got)
	}
}

func TestRecordSurfacesStoreFailure(t *testing.T) {
	usage := &memoryUsage{putErr: &store.Error{Op: "put", Kind: store.KindThrottled, Err: errors.New("slow down")}}
	tracker := NewTracker(usage, 10)

	err := tracker.Record(context.Background(), store.UsageRecord{Username: "alice"})
	if store.KindOf(err) != store.KindThrottled {
		t.Fatalf("expected throttled kind to surface, got %v", err)
	}
}
