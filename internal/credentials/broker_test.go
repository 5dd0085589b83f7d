package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"

	"github.com/perfsage/perfsage/internal/config"
)

func testAWSConfig() config.AWSConfig {
	return config.AWSConfig{
		RoleARN:         "arn:aws:iam::123456789012:role/perfsage",
		SessionName:     "perfsage-test",
		SessionDuration: 15 * time.Minute,
		ExpiryMargin:    5 * time.Minute,
	}
}

// fakeSTS hands out sequentially numbered credentials.
type fakeSTS struct {
	calls  int
	err    error
	expiry time.Time
}

func (f *fakeSTS) AssumeRole(ctx context.Context, in *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("AKIA" + string(rune('A'+f.calls-1))),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
			Expiration:      aws.Time(f.expiry),
		},
	}, nil
}

func TestActiveAssumesRoleOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(15 * time.Minute)}
	broker := NewBroker(api, testAWSConfig())
	broker.nowFunc = func() time.Time { return now }

	first, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	second, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("second Active returned error: %v", err)
	}

	if api.calls != 1 {
		t.Fatalf("expected one assume-role call, got %d", api.calls)
	}
	if first != second {
		t.Fatalf("expected identical credential values, got %+v vs %+v", first, second)
	}
}

func TestActiveAppliesExpiryMargin(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(15 * time.Minute)}
	broker := NewBroker(api, testAWSConfig())
	broker.nowFunc = func() time.Time { return now }

	cred, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if want := now.Add(10 * time.Minute); !cred.Expiry.Equal(want) {
		t.Fatalf("expected margin-adjusted expiry %v, got %v", want, cred.Expiry)
	}
}

func TestActiveRefreshesAtExactExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(15 * time.Minute)}
	broker := NewBroker(api, testAWSConfig())
	broker.nowFunc = func() time.Time { return now }

	first, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}

	// Advance to exactly the margin-adjusted expiry; the boundary counts
	// as expired.
	now = first.Expiry
	api.expiry = now.Add(15 * time.Minute)

	second, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("Active after expiry returned error: %v", err)
	}

	if api.calls != 2 {
		t.Fatalf("expected refresh at expiry boundary, got %d assume-role calls", api.calls)
	}
	if second.AccessKeyID == first.AccessKeyID {
		t.Fatalf("expected a new credential after refresh")
	}
}

func TestAssumeRoleFailureLeavesStateUnchanged(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(15 * time.Minute)}
	broker := NewBroker(api, testAWSConfig())
	broker.nowFunc = func() time.Time { return now }

	first, err := broker.Active(context.Background())
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}

	now = first.Expiry.Add(time.Minute)
	api.err = errors.New("connection reset")

	if _, err := broker.Active(context.Background()); !IsAuthFailure(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}

	// No partial credential was published; the stale one is still there
	// so the next call retries assume-role from scratch.
	if cached := broker.current.Load(); cached == nil || *cached != first {
		t.Fatalf("expected cached credential to be unchanged")
	}

	api.err = nil
	api.expiry = now.Add(15 * time.Minute)
	if _, err := broker.Active(context.Background()); err != nil {
		t.Fatalf("expected recovery on next call, got %v", err)
	}
	if api.calls != 3 {
		t.Fatalf("expected three assume-role calls, got %d", api.calls)
	}
}

func TestForceRefreshAlwaysAssumesRole(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeSTS{expiry: now.Add(15 * time.Minute)}
	broker := NewBroker(api, testAWSConfig())
	broker.nowFunc = func() time.Time { return now }

	if _, err := broker.Active(context.Background()); err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if _, err := broker.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh returned error: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("expected ForceRefresh to assume the role again, got %d calls", api.calls)
	}
}
