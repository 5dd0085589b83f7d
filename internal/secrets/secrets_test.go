package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeSecretsAPI struct {
	value string
	err   error
}

func (f *fakeSecretsAPI) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestGetSecretExtractsNamedKey(t *testing.T) {
	client := &Client{api: &fakeSecretsAPI{value: `{"OPENAI_API_KEY":"sk-123"}`}}

	got, err := client.GetSecret(context.Background(), "OPENAI_API_KEY")
	if err != nil {
		t.Fatalf("GetSecret returned error: %v", err)
	}
	if got != "sk-123" {
		t.Fatalf("expected sk-123, got %q", got)
	}
}

func TestGetSecretMissingKey(t *testing.T) {
	client := &Client{api: &fakeSecretsAPI{value: `{"OTHER":"x"}`}}

	if _, err := client.GetSecret(context.Background(), "OPENAI_API_KEY"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestGetSecretSurfacesProviderError(t *testing.T) {
	client := &Client{api: &fakeSecretsAPI{err: errors.New("denied")}}

	if _, err := client.GetSecret(context.Background(), "OPENAI_API_KEY"); err == nil {
		t.Fatalf("expected provider error to surface")
	}
}
