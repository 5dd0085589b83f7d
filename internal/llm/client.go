package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/perfsage/perfsage/internal/config"
)

// ErrUpstream marks a completion-endpoint failure. The service treats the
// endpoint as opaque and never retries.
var ErrUpstream = errors.New("completion service failed")

// Completion is one completion result with its token accounting.
type Completion struct {
	ID               string
	Text             string
	Created          int64
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client calls an OpenAI-compatible /completions endpoint. All tuning
// parameters come from configuration and are sent verbatim.
type Client struct {
	baseURL    string
	apiKey     string
	cfg        config.OpenAIConfig
	httpClient *http.Client
}

// NewClient builds a completion client. baseURL should include the /v1
// prefix, e.g. "https://api.openai.com/v1".
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// Complete sends one prompt and returns the first choice with usage counts.
func (c *Client) Complete(ctx context.Context, prompt string) (Completion, error) {
	if c.apiKey == "" {
		return Completion{}, fmt.Errorf("%w: API key not set", ErrUpstream)
	}

	body, err := json.Marshal(completionRequest{
		Model:            c.cfg.Model,
		Prompt:           prompt,
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
	})
	if err != nil {
		return Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return Completion{}, fmt.Errorf("%w: %s", ErrUpstream, errResp.Error.Message)
		}
		return Completion{}, fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Completion{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	return Completion{
		ID:               out.ID,
		Text:             strings.TrimSpace(out.Choices[0].Text),
		Created:          out.Created,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
	}, nil
}

type completionRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
