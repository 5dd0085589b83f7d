package analysis

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/perfsage/perfsage/internal/llm"
	"github.com/perfsage/perfsage/internal/metrics"
	"github.com/perfsage/perfsage/internal/store"
)

// Prompts sent per upload, in order. Each produces one response section.
var promptSections = []struct {
	Title  string
	Prompt string
}{
	{
		Title: "High level Summary",
		Prompt: "Act like a performance engineer. Please analyse this performance " +
			"test results and give me a high level summary.",
	},
	{
		Title: "Detailed Summary",
		Prompt: "Act like a performance engineer and write a detailed summary " +
			"from this raw performance results.",
	},
}

type quotaTracker interface {
	Remaining(ctx context.Context, username string) (int, error)
	Record(ctx context.Context, rec store.UsageRecord) error
}

type completer interface {
	Complete(ctx context.Context, prompt string) (llm.Completion, error)
}

type notifier interface {
	Notify(ctx context.Context, message, title, filename, target string) error
}

type webhookSource interface {
	WebhookTarget(ctx context.Context, username string) string
}

// Service runs the upload-to-analysis flow: validate the results file,
// enforce the quota, call the completion service, log usage, notify.
type Service struct {
	quotas       quotaTracker
	llm          completer
	notifier     notifier
	settings     webhookSource
	logger       *slog.Logger
	maxFileBytes int64
	nowFunc      func() time.Time
}

// NewService constructs the analysis service.
func NewService(quotas quotaTracker, llmClient completer, notifier notifier, settings webhookSource, logger *slog.Logger, maxFileBytes int64) *Service {
	return &Service{
		quotas:       quotas,
		llm:          llmClient,
		notifier:     notifier,
		settings:     settings,
		logger:       logger,
		maxFileBytes: maxFileBytes,
		nowFunc:      time.Now,
	}
}

// Result is one completed analysis.
type Result struct {
	Sections  map[string]string `json:"sections"`
	Remaining int               `json:"remaining_uploads"`
}

// Analyze validates and analyzes one uploaded results file for username.
func (s *Service) Analyze(ctx context.Context, username, filename string, contents []byte) (Result, error) {
	if err := s.validate(filename, contents); err != nil {
		return Result{}, err
	}

	remaining, err := s.quotas.Remaining(ctx, username)
	if err != nil {
		return Result{}, fmt.Errorf("check quota: %w", err)
	}
	if remaining <= 0 {
		metrics.QuotaRejections.Inc()
		return Result{}, ErrQuotaExceeded
	}

	sections := make(map[string]string, len(promptSections))
	var last llm.Completion
	promptTokens, completionTokens, totalTokens := 0, 0, 0
	for _, section := range promptSections {
		completion, err := s.llm.Complete(ctx, section.Prompt+": \n"+string(contents))
		if err != nil {
			metrics.Analyses.WithLabelValues("upstream_error").Inc()
			return Result{}, fmt.Errorf("analysis %q: %w", section.Title, err)
		}
		sections[section.Title] = beautify(completion.Text)
		promptTokens += completion.PromptTokens
		completionTokens += completion.CompletionTokens
		totalTokens += completion.TotalTokens
		last = completion
	}

	webhook := s.settings.WebhookTarget(ctx, username)

	rec := store.UsageRecord{
		Username:         username,
		CreatedAt:        s.nowFunc().UTC().Format(time.RFC3339),
		CompletionID:     last.ID,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		SlackWebhook:     webhook,
	}
	if err := s.quotas.Record(ctx, rec); err != nil {
		metrics.Analyses.WithLabelValues("store_error").Inc()
		return Result{}, fmt.Errorf("record usage: %w", err)
	}

	if webhook != "" {
		if err := s.notifier.Notify(ctx, sections[promptSections[0].Title], promptSections[0].Title, filename, webhook); err != nil {
			// Best effort only; the analysis already succeeded.
			s.logger.Warn("webhook notification failed", "username", username, "error", err)
		}
	}

	metrics.Analyses.WithLabelValues("success").Inc()
	return Result{Sections: sections, Remaining: remaining - 1}, nil
}

// validate rejects uploads the analysis cannot use before any quota or
// store work happens.
func (s *Service) validate(filename string, contents []byte) error {
	if strings.TrimSpace(filename) == "" {
		return ErrInvalidFile
	}
	if len(contents) == 0 {
		return ErrInvalidFile
	}
	if s.maxFileBytes > 0 && int64(len(contents)) > s.maxFileBytes {
		return ErrFileTooLarge
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(bytes.NewReader(contents))
		reader.FieldsPerRecord = -1
		if _, err := reader.ReadAll(); err != nil {
			return ErrInvalidFile
		}
	case ".json":
		if !json.Valid(contents) {
			return ErrInvalidFile
		}
	default:
		return ErrUnsupportedFormat
	}
	return nil
}
