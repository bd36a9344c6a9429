package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v1beta/models/gemini-2.5-flash:streamGenerateContent"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		if got := r.URL.Query().Get("alt"); got != "sse" {
			t.Errorf("alt = %q, want 'sse'", got)
		}
		if got := r.URL.Query().Get("key"); got != "k" {
			t.Errorf("key = %q, want 'k'", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Hello\"}],\"role\":\"model\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\", world\"}],\"role\":\"model\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	stream, err := client.GenerateContent().User("hi").Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream error = %v", err)
	}

	text, err := stream.Drain()
	if err != nil {
		t.Fatalf("Drain error = %v", err)
	}
	if text != "Hello, world" {
		t.Errorf("accumulated text = %q, want 'Hello, world'", text)
	}
}

func TestStreamFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}],\"role\":\"model\"}}],\"usageMetadata\":{\"totalTokenCount\":5}}\n\n")
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	stream, err := client.GenerateContent().User("hi").Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream error = %v", err)
	}

	var frames []*GenerationResponse
	for frame := range stream.Ch {
		frames = append(frames, frame)
	}
	if err, ok := <-stream.Err; ok && err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].UsageMetadata == nil || frames[0].UsageMetadata.TotalTokenCount != 5 {
		t.Errorf("UsageMetadata = %+v, want TotalTokenCount 5", frames[0].UsageMetadata)
	}
}

func TestStreamDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json}\n\n")
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	stream, err := client.GenerateContent().User("hi").Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream error = %v", err)
	}

	_, err = stream.Drain()
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Drain error = %v, want ErrDecode", err)
	}
}

func TestStreamHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().User("hi").Stream(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Stream error = %v, want ErrRateLimited", err)
	}
}

func TestStreamContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}],\"role\":\"model\"}}]}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := New("k", WithBaseURL(server.URL))

	stream, err := client.GenerateContent().User("hi").Stream(ctx)
	if err != nil {
		t.Fatalf("Stream error = %v", err)
	}

	<-stream.Ch // first frame
	cancel()

	for range stream.Ch {
	}
	// Cancellation surfaces either directly or as a transport read error.
	err, _ = <-stream.Err
	if err == nil {
		t.Error("stream error = nil after cancel, want non-nil")
	}
}
