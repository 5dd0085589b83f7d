package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifyPostsFormattedMessage(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	n := NewNotifier()
	err := n.Notify(context.Background(), "all good", "High level Summary", "results.csv", server.URL)
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if !strings.Contains(got.Text, "High level Summary") || !strings.Contains(got.Text, "results.csv") {
		t.Fatalf("expected title and filename in payload, got %q", got.Text)
	}
}

func TestNotifyRejectsEmptyTarget(t *testing.T) {
	n := NewNotifier()
	if err := n.Notify(context.Background(), "msg", "", "", "  "); err == nil {
		t.Fatalf("expected error for empty target")
	}
}

func TestNotifyReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer server.Close()

	n := NewNotifier()
	if err := n.Notify(context.Background(), "msg", "", "", server.URL); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}
