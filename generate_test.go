package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}

		wantPath := "/v1beta/models/gemini-2.5-flash:generateContent"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want 'application/json'", r.Header.Get("Content-Type"))
		}

		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if len(req.Contents) != 1 {
			t.Fatalf("contents count = %d, want 1", len(req.Contents))
		}
		if req.Contents[0].Role != RoleUser {
			t.Errorf("role = %q, want 'user'", req.Contents[0].Role)
		}
		if req.Contents[0].Parts[0].Text != "Why is the sky blue?" {
			t.Errorf("text = %q, want the question", req.Contents[0].Parts[0].Text)
		}

		json.NewEncoder(w).Encode(GenerationResponse{
			Candidates: []Candidate{{
				Content:      Content{Role: RoleModel, Parts: []Part{{Text: "Rayleigh scattering."}}},
				FinishReason: FinishReasonStop,
			}},
			UsageMetadata: &UsageMetadata{PromptTokenCount: 6, CandidatesTokenCount: 3, TotalTokenCount: 9},
		})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	resp, err := client.GenerateContent().User("Why is the sky blue?").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if resp.Text() != "Rayleigh scattering." {
		t.Errorf("Text() = %q, want 'Rayleigh scattering.'", resp.Text())
	}
	if resp.UsageMetadata.TotalTokenCount != 9 {
		t.Errorf("TotalTokenCount = %d, want 9", resp.UsageMetadata.TotalTokenCount)
	}
}

func TestGenerateSystemInstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if req.SystemInstruction == nil {
			t.Fatal("SystemInstruction is nil")
		}
		if req.SystemInstruction.Parts[0].Text != "Be terse." {
			t.Errorf("system text = %q, want 'Be terse.'", req.SystemInstruction.Parts[0].Text)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != RoleUser {
			t.Errorf("contents = %+v, want single user message", req.Contents)
		}

		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().System("Be terse.").User("hi").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestGenerateGenerationConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		cfg := req.GenerationConfig
		if cfg == nil {
			t.Fatal("GenerationConfig is nil")
		}
		if cfg.Temperature == nil || *cfg.Temperature != 0.2 {
			t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
		}
		if cfg.TopP == nil || *cfg.TopP != 0.9 {
			t.Errorf("TopP = %v, want 0.9", cfg.TopP)
		}
		if cfg.MaxOutputTokens == nil || *cfg.MaxOutputTokens != 128 {
			t.Errorf("MaxOutputTokens = %v, want 128", cfg.MaxOutputTokens)
		}
		if len(cfg.StopSequences) != 2 {
			t.Errorf("StopSequences = %v, want 2 entries", cfg.StopSequences)
		}
		if cfg.ThinkingConfig == nil || cfg.ThinkingConfig.ThinkingBudget == nil || *cfg.ThinkingConfig.ThinkingBudget != -1 {
			t.Errorf("ThinkingConfig = %+v, want dynamic budget -1", cfg.ThinkingConfig)
		}
		if !cfg.ThinkingConfig.IncludeThoughts {
			t.Error("IncludeThoughts = false, want true")
		}

		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().
		User("hi").
		Temperature(0.2).
		TopP(0.9).
		MaxOutputTokens(128).
		StopSequences("END", "STOP").
		DynamicThinking().
		IncludeThoughts().
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestMultiSpeakerOrderedBySpeakerName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		cfg := req.GenerationConfig.SpeechConfig.MultiSpeakerVoiceConfig
		if cfg == nil {
			t.Fatal("MultiSpeakerVoiceConfig is nil")
		}
		var got []string
		for _, sv := range cfg.SpeakerVoiceConfigs {
			got = append(got, sv.Speaker)
		}
		want := []string{"Alice", "Bob", "Carol"}
		if len(got) != len(want) {
			t.Fatalf("speakers = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("speakers = %v, want %v", got, want)
			}
		}
		if cfg.SpeakerVoiceConfigs[1].VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
			t.Errorf("Bob voice = %q, want 'Puck'", cfg.SpeakerVoiceConfigs[1].VoiceConfig.PrebuiltVoiceConfig.VoiceName)
		}

		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().
		User("Read this dialogue aloud.").
		AudioOutput().
		MultiSpeaker(map[string]string{
			"Carol": "Aoede",
			"Alice": "Kore",
			"Bob":   "Puck",
		}).
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestGenerateResponseSchemaImpliesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("ResponseMimeType = %q, want 'application/json'", req.GenerationConfig.ResponseMimeType)
		}
		if len(req.GenerationConfig.ResponseSchema) == 0 {
			t.Error("ResponseSchema is empty")
		}

		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	schema := json.RawMessage(`{"type":"object","properties":{"answer":{"type":"string"}}}`)
	_, err := client.GenerateContent().User("hi").ResponseSchema(schema).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestGenerateNoContents(t *testing.T) {
	client := New("k")

	_, err := client.GenerateContent().Generate(context.Background())
	if !errors.Is(err, ErrNoContents) {
		t.Errorf("error = %v, want ErrNoContents", err)
	}
}

func TestGenerateModelOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v1beta/models/gemini-2.5-pro:generateContent"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().Model(ModelGemini25Pro).User("hi").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Invalid value","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().User("hi").Generate(context.Background())
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("error = %v, want ErrBadRequest", err)
	}

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("errors.As APIError = false for %v", err)
	}
	if ae.Message != "Invalid value" {
		t.Errorf("Message = %q, want 'Invalid value'", ae.Message)
	}
}

func TestCountTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/v1beta/models/gemini-2.5-flash:countTokens"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}

		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if req.SystemInstruction != nil {
			t.Error("SystemInstruction sent to countTokens, want contents only")
		}

		w.Write([]byte(`{"totalTokens":42,"cachedContentTokenCount":10}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	count, err := client.GenerateContent().System("sys").User("hi").CountTokens(context.Background())
	if err != nil {
		t.Fatalf("CountTokens error = %v", err)
	}
	if count.TotalTokens != 42 {
		t.Errorf("TotalTokens = %d, want 42", count.TotalTokens)
	}
	if count.CachedContentTokenCount != 10 {
		t.Errorf("CachedContentTokenCount = %d, want 10", count.CachedContentTokenCount)
	}
}

func TestGenerateCachedContentReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if req.CachedContent != "cachedContents/abc" {
			t.Errorf("CachedContent = %q, want 'cachedContents/abc'", req.CachedContent)
		}
		json.NewEncoder(w).Encode(GenerationResponse{})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	_, err := client.GenerateContent().
		User("hi").
		CachedContent("cachedContents/abc").
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
}
