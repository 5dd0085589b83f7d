package store

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/perfsage/perfsage/internal/config"
	"github.com/perfsage/perfsage/internal/credentials"
)

// DynamoAPI is the slice of the DynamoDB client the tables use.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Context owns the table handles bound to the broker's current delegated
// credential and rebuilds them when the credential rotates. It replaces
// the process-wide table globals of earlier designs: handlers receive a
// *Context, nothing reads ambient state.
type Context struct {
	broker *credentials.Broker
	cfg    config.AWSConfig

	// newClient is swapped in tests to avoid real network clients.
	newClient func(credentials.Credential) DynamoAPI

	mu        sync.Mutex
	client    DynamoAPI
	clientKey string
}

// NewContext builds a store context over the given credential broker.
func NewContext(broker *credentials.Broker, cfg config.AWSConfig) *Context {
	c := &Context{broker: broker, cfg: cfg}
	c.newClient = c.buildClient
	return c
}

// NewContextWithClient builds a store context that uses the given client
// regardless of credential rotation. Intended for tests and local stacks
// that point at a single DynamoDB-compatible endpoint.
func NewContextWithClient(broker *credentials.Broker, cfg config.AWSConfig, api DynamoAPI) *Context {
	c := NewContext(broker, cfg)
	c.newClient = func(credentials.Credential) DynamoAPI { return api }
	return c
}

// handles returns table handles bound to the active credential,
// refreshing the credential first when it has expired. Constructing a
// handle performs no network I/O beyond what the broker already did.
func (c *Context) handles(ctx context.Context) (usageTable, settingsTable, error) {
	cred, err := c.broker.Active(ctx)
	if err != nil {
		return usageTable{}, settingsTable{}, &Error{Op: "credentials", Kind: KindAuthFailure, Err: err}
	}

	api := c.clientFor(cred)
	usage := usageTable{api: api, name: c.cfg.UsageTable, timeout: c.cfg.OperationTimeout}
	settings := settingsTable{api: api, name: c.cfg.SettingsTable, timeout: c.cfg.OperationTimeout}
	return usage, settings, nil
}

// clientFor returns the cached client when the credential identity is
// unchanged, otherwise builds and caches a fresh one.
func (c *Context) clientFor(cred credentials.Credential) DynamoAPI {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.clientKey == cred.Key() {
		return c.client
	}
	c.client = c.newClient(cred)
	c.clientKey = cred.Key()
	return c.client
}

// invalidate drops the cached client so the next operation rebuilds it
// from the freshly published credential.
func (c *Context) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
	c.clientKey = ""
}

func (c *Context) buildClient(cred credentials.Credential) DynamoAPI {
	return dynamodb.NewFromConfig(aws.Config{
		Region: c.cfg.Region,
		Credentials: awscreds.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken),
	})
}

// AppendUsage appends one usage record, recovering once from an expired
// credential.
func (c *Context) AppendUsage(ctx context.Context, rec UsageRecord) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		usage, _, err := c.handles(ctx)
		if err != nil {
			return err
		}
		return usage.append(ctx, rec)
	})
}

// CountUsage returns the number of usage records stored for a username.
func (c *Context) CountUsage(ctx context.Context, username string) (int, error) {
	var count int
	err := c.withRetry(ctx, func(ctx context.Context) error {
		usage, _, err := c.handles(ctx)
		if err != nil {
			return err
		}
		count, err = usage.countByUsername(ctx, username)
		return err
	})
	return count, err
}

// ScanUsage returns every usage record, for aggregate analytics only.
func (c *Context) ScanUsage(ctx context.Context) ([]UsageRecord, error) {
	var records []UsageRecord
	err := c.withRetry(ctx, func(ctx context.Context) error {
		usage, _, err := c.handles(ctx)
		if err != nil {
			return err
		}
		records, err = usage.scanAll(ctx)
		return err
	})
	return records, err
}

// PutSettings upserts the settings record for rec.Username.
func (c *Context) PutSettings(ctx context.Context, rec SettingsRecord) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		_, settings, err := c.handles(ctx)
		if err != nil {
			return err
		}
		return settings.put(ctx, rec)
	})
}

// GetSettings returns the settings record for a username, a KindNotFound
// error when none was saved.
func (c *Context) GetSettings(ctx context.Context, username string) (SettingsRecord, error) {
	var rec SettingsRecord
	err := c.withRetry(ctx, func(ctx context.Context) error {
		_, settings, err := c.handles(ctx)
		if err != nil {
			return err
		}
		rec, err = settings.get(ctx, username)
		return err
	})
	return rec, err
}

// Ping verifies the usage table is reachable with the active credential.
func (c *Context) Ping(ctx context.Context) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		usage, _, err := c.handles(ctx)
		if err != nil {
			return err
		}
		return usage.ping(ctx)
	})
}
