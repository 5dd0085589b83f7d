package credentials

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"

	"github.com/perfsage/perfsage/internal/config"
	"github.com/perfsage/perfsage/internal/metrics"
)

// Credential is a delegated short-lived credential. Values are immutable;
// a refresh publishes a whole new value, fields are never written in place.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Expiry already includes the early-refresh margin.
	Expiry time.Time
}

// Valid reports whether the credential may still be used at the given
// instant. The boundary is exclusive: expiry == now counts as expired.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessKeyID != "" && now.Before(c.Expiry)
}

// Key identifies the credential for handle caching.
func (c Credential) Key() string {
	return c.AccessKeyID + "/" + c.SessionToken
}

// assumeRoleAPI abstracts the role-assumption call.
type assumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Broker obtains and caches a delegated credential, refreshing it before
// expiry. Readers load the last published value without locking; the
// assume-role-and-publish sequence is serialized by the mutex.
type Broker struct {
	api         assumeRoleAPI
	roleARN     string
	sessionName string
	duration    time.Duration
	margin      time.Duration

	mu      sync.Mutex
	current atomic.Pointer[Credential]
	nowFunc func() time.Time
}

// NewBroker builds a Broker assuming the configured role.
func NewBroker(api assumeRoleAPI, cfg config.AWSConfig) *Broker {
	return &Broker{
		api:         api,
		roleARN:     cfg.RoleARN,
		sessionName: cfg.SessionName,
		duration:    cfg.SessionDuration,
		margin:      cfg.ExpiryMargin,
		nowFunc:     time.Now,
	}
}

// Active returns the cached credential when it is still valid, otherwise
// assumes the role for a fresh one. It never returns a credential past
// the margin-adjusted expiry.
func (b *Broker) Active(ctx context.Context) (Credential, error) {
	now := b.nowFunc().UTC()
	if cred := b.current.Load(); cred != nil && cred.Valid(now) {
		return *cred, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if cred := b.current.Load(); cred != nil && cred.Valid(b.nowFunc().UTC()) {
		return *cred, nil
	}

	return b.assume(ctx)
}

// ForceRefresh discards the cached credential and assumes the role again.
// Used by the store recovery path after an expired-token failure.
func (b *Broker) ForceRefresh(ctx context.Context) (Credential, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.assume(ctx)
}

// assume performs the role-assumption call and publishes the result.
// Callers must hold b.mu. On failure the previously published credential
// is left untouched so the next call retries from scratch.
func (b *Broker) assume(ctx context.Context) (Credential, error) {
	out, err := b.api.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(b.roleARN),
		RoleSessionName: aws.String(b.sessionName + "-" + uuid.NewString()),
		DurationSeconds: aws.Int32(int32(b.duration / time.Second)),
	})
	if err != nil {
		return Credential{}, fmt.Errorf("assume role %s: %w", b.roleARN, errAssume(err))
	}
	if out.Credentials == nil || out.Credentials.Expiration == nil {
		return Credential{}, fmt.Errorf("assume role %s: %w", b.roleARN, errAssume(errMissingCredentials))
	}

	cred := Credential{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiry:          out.Credentials.Expiration.UTC().Add(-b.margin),
	}
	b.current.Store(&cred)
	metrics.CredentialRefreshes.Inc()
	return cred, nil
}
