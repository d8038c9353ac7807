package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestGetJSONRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), fastRetry(3))

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if !out.OK {
		t.Fatal("expected decoded response")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.Client(), fastRetry(3))

	var out map[string]any
	if err := client.GetJSON(context.Background(), server.URL, &out); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestNoRetryIssuesSingleAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), NoRetry())

	var out map[string]any
	if err := client.GetJSON(context.Background(), server.URL, &out); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestPostJSONSendsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		_, _ = w.Write([]byte(`{"echo":"yes"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), NoRetry())

	var out struct {
		Echo string `json:"echo"`
	}
	if err := client.PostJSON(context.Background(), server.URL, map[string]string{"q": "allergy"}, &out); err != nil {
		t.Fatalf("PostJSON error: %v", err)
	}
	if out.Echo != "yes" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{Attempts: 5, InitialBackoff: 4 * time.Second, MaxBackoff: 10 * time.Second}
	if got := p.backoff(0); got != 4*time.Second {
		t.Fatalf("attempt 0 backoff = %v", got)
	}
	if got := p.backoff(1); got != 8*time.Second {
		t.Fatalf("attempt 1 backoff = %v", got)
	}
	if got := p.backoff(2); got != 10*time.Second {
		t.Fatalf("attempt 2 backoff = %v, want cap", got)
	}
}
