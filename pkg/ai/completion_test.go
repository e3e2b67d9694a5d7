package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/johnquangdev/meeting-insights/pkg/config"
)

func TestComplete_Success(t *testing.T) {
	// Mock completion server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if len(payload.Messages) != 1 || payload.Messages[0].Content == "" {
			t.Fatalf("unexpected messages: %+v", payload.Messages)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello from model"}},
			},
		})
	}))
	defer ts.Close()

	client := NewCompletionClient(&config.CompletionConfig{BaseURL: ts.URL, APIKey: "test-key"})

	got, err := client.Complete(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "hello from model" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestComplete_RetriesServerError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer ts.Close()

	client := NewCompletionClient(&config.CompletionConfig{BaseURL: ts.URL, Timeout: 5 * time.Second})

	got, err := client.Complete(context.Background(), "retry please")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected content %q", got)
	}
	if calls < 2 {
		t.Fatalf("expected a retry, got %d calls", calls)
	}
}

func TestComplete_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewCompletionClient(&config.CompletionConfig{BaseURL: ts.URL})

	if _, err := client.Complete(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}
