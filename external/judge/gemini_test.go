package judge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestGenerateJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "key-1" {
			t.Fatalf("unexpected api key: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" || req.Contents[0].Parts[0].Text != "judge this" {
			t.Fatalf("unexpected request: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"winner\":"},{"text":"\"player1\"}"}]}}]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "gemini-test", "key-1")
	got, err := c.GenerateJSON(context.Background(), "judge this", 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"winner":"player1"}` {
		t.Fatalf("unexpected text: %s", got)
	}
}

func TestGenerateJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "m", "k")
	if _, err := c.GenerateJSON(context.Background(), "p", 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGenerateJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "m", "k")
	if _, err := c.GenerateJSON(context.Background(), "p", 0.5); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestGenerateJSON_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "m", "k")
	if _, err := c.GenerateJSON(context.Background(), "p", 0.5); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
