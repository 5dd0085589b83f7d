package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/perfsage/perfsage/internal/config"
)

func testConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        baseURL,
		Model:          "gpt-3.5-turbo-instruct",
		Temperature:    0,
		MaxTokens:      100,
		TopP:           1.0,
		RequestTimeout: 5 * time.Second,
	}
}

func TestCompleteParsesChoiceAndUsage(t *testing.T) {
	var gotAuth string
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "cmpl-123",
			"created": 1700000000,
			"choices": []map[string]interface{}{{"text": "  looks healthy  "}},
			"usage": map[string]int{
				"prompt_tokens":     42,
				"completion_tokens": 10,
				"total_tokens":      52,
			},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	got, err := client.Complete(context.Background(), "analyse this")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Model != "gpt-3.5-turbo-instruct" || gotReq.MaxTokens != 100 {
		t.Fatalf("unexpected request parameters: %+v", gotReq)
	}
	if got.ID != "cmpl-123" || got.Text != "looks healthy" {
		t.Fatalf("unexpected completion: %+v", got)
	}
	if got.TotalTokens != 52 || got.PromptTokens != 42 {
		t.Fatalf("unexpected usage: %+v", got)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), "analyse this")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	cfg := testConfig("https://api.openai.com/v1")
	cfg.APIKey = ""
	client := NewClient(cfg)

	if _, err := client.Complete(context.Background(), "x"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error for missing key, got %v", err)
	}
}
