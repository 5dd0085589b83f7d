package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/perfsage/perfsage/internal/credentials"
)

// secretsAPI abstracts the Secrets Manager call.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Client fetches configuration secrets with a delegated credential.
// Used only at startup; nothing in the request path depends on it.
type Client struct {
	api secretsAPI
}

// NewClient builds a secrets client bound to the given credential and region.
func NewClient(region string, cred credentials.Credential) *Client {
	api := secretsmanager.NewFromConfig(aws.Config{
		Region: region,
		Credentials: awscreds.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken),
	})
	return &Client{api: api}
}

// GetSecret returns the value stored under name. The secret string is a
// JSON object keyed by the secret's own name.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return "", fmt.Errorf("decode secret %s: %w", name, err)
	}
	value, ok := values[name]
	if !ok {
		return "", fmt.Errorf("secret %s missing key %q", name, name)
	}
	return value, nil
}
