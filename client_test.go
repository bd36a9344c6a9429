package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIKeyInQueryParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-api-key" {
			t.Errorf("key query param = %q, want 'test-api-key'", got)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "" {
			t.Errorf("x-goog-api-key header = %q, want unset (key travels in query)", got)
		}

		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("test-api-key", WithBaseURL(server.URL))

	_, err := client.GenerateContent().User("hello").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestExtraHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Custom"); got != "custom-value" {
			t.Errorf("X-Custom = %q, want 'custom-value'", got)
		}
		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL), WithHeader("X-Custom", "custom-value"))

	_, err := client.GenerateContent().User("hello").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	client := New("k")

	if client.config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.config.BaseURL, DefaultBaseURL)
	}
	if client.config.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", client.config.Model, DefaultModel)
	}
	if client.config.HTTPClient != http.DefaultClient {
		t.Error("HTTPClient is not http.DefaultClient")
	}
	if client.config.Retry != nil {
		t.Error("Retry is non-nil by default, want disabled")
	}
	if _, ok := client.config.Telemetry.(NoopTelemetryHook); !ok {
		t.Errorf("Telemetry = %T, want NoopTelemetryHook", client.config.Telemetry)
	}
}

func TestWithModelOption(t *testing.T) {
	client := New("k", WithModel(ModelGemini25Pro))

	if client.config.Model != ModelGemini25Pro {
		t.Errorf("Model = %q, want %q", client.config.Model, ModelGemini25Pro)
	}
}

func TestModelURL(t *testing.T) {
	client := New("secret-key", WithBaseURL("https://example.test"))

	got := client.modelURL("gemini-2.5-flash", "generateContent")
	want := "https://example.test/v1beta/models/gemini-2.5-flash:generateContent?key=secret-key"
	if got != want {
		t.Errorf("modelURL = %q, want %q", got, want)
	}
}

func TestResourceURLPreservesExistingQuery(t *testing.T) {
	client := New("secret-key", WithBaseURL("https://example.test"))

	got := client.resourceURL("files?pageSize=10")
	want := "https://example.test/v1beta/files?pageSize=10&key=secret-key"
	if got != want {
		t.Errorf("resourceURL = %q, want %q", got, want)
	}
}

type recordingHook struct {
	starts []RequestStartEvent
	ends   []RequestEndEvent
}

func (h *recordingHook) OnRequestStart(e RequestStartEvent) { h.starts = append(h.starts, e) }
func (h *recordingHook) OnRequestEnd(e RequestEndEvent)     { h.ends = append(h.ends, e) }

func TestTelemetryEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerationResponse{
			UsageMetadata: &UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 7, TotalTokenCount: 10},
		})
	}))
	defer server.Close()

	hook := &recordingHook{}
	client := New("k", WithBaseURL(server.URL), WithTelemetry(hook))

	_, err := client.GenerateContent().User("hello").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if len(hook.starts) != 1 || len(hook.ends) != 1 {
		t.Fatalf("events = %d starts, %d ends, want 1 each", len(hook.starts), len(hook.ends))
	}
	if hook.starts[0].Operation != "generateContent" {
		t.Errorf("start Operation = %q, want 'generateContent'", hook.starts[0].Operation)
	}
	if hook.ends[0].Usage == nil || hook.ends[0].Usage.TotalTokenCount != 10 {
		t.Errorf("end Usage = %+v, want TotalTokenCount 10", hook.ends[0].Usage)
	}
	if hook.ends[0].Err != nil {
		t.Errorf("end Err = %v, want nil", hook.ends[0].Err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(GenerationResponse{
			Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "ok"}}, Role: RoleModel}}},
		})
	}))
	defer server.Close()

	policy := NewRetryPolicy(RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, Jitter: 0})
	client := New("k", WithBaseURL(server.URL), WithRetryPolicy(policy))

	resp, err := client.GenerateContent().User("hello").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("Text() = %q, want 'ok'", resp.Text())
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
