package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Notifier posts analysis summaries to a Slack incoming webhook.
// Delivery is best effort: callers log failures and carry on, a broken
// webhook must never fail the analysis that triggered it.
type Notifier struct {
	httpClient *http.Client
}

// NewNotifier builds a webhook notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify posts message to the target webhook URL.
func (n *Notifier) Notify(ctx context.Context, message, title, filename, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("no webhook target configured")
	}

	text := message
	if title != "" || filename != "" {
		text = fmt.Sprintf("*%s* (%s)\n%s", title, filename, message)
	}

	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
