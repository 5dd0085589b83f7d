package settings

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/perfsage/perfsage/internal/store"
)

// settingsStore abstracts the settings table operations.
type settingsStore interface {
	PutSettings(ctx context.Context, rec store.SettingsRecord) error
	GetSettings(ctx context.Context, username string) (store.SettingsRecord, error)
}

// Service manages per-user notification preferences.
type Service struct {
	store settingsStore
}

// NewService constructs a settings service.
func NewService(store settingsStore) *Service {
	return &Service{store: store}
}

// Save upserts the user's webhook URL and notifications flag.
func (s *Service) Save(ctx context.Context, username, webhookURL string, sendNotifications bool) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL != "" {
		parsed, err := url.Parse(webhookURL)
		if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
			return ErrInvalidWebhook
		}
	}

	rec := store.SettingsRecord{
		Username:          username,
		SlackWebhook:      webhookURL,
		SendNotifications: sendNotifications,
	}
	if err := s.store.PutSettings(ctx, rec); err != nil {
		return fmt.Errorf("save settings for %s: %w", username, err)
	}
	return nil
}

// Get returns the user's saved settings; a zero record when none exist.
func (s *Service) Get(ctx context.Context, username string) (store.SettingsRecord, error) {
	rec, err := s.store.GetSettings(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			return store.SettingsRecord{Username: username}, nil
		}
		return store.SettingsRecord{}, fmt.Errorf("get settings for %s: %w", username, err)
	}
	return rec, nil
}

// WebhookTarget returns the webhook URL to notify for a user, empty when
// notifications are disabled or unconfigured.
func (s *Service) WebhookTarget(ctx context.Context, username string) string {
	rec, err := s.Get(ctx, username)
	if err != nil || !rec.SendNotifications {
		return ""
	}
	return rec.SlackWebhook
}
