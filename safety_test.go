package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSafetySettingsOnRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if len(req.SafetySettings) != 2 {
			t.Fatalf("safetySettings count = %d, want 2", len(req.SafetySettings))
		}
		if req.SafetySettings[0].Category != HarmCategoryHarassment {
			t.Errorf("category = %q, want HARM_CATEGORY_HARASSMENT", req.SafetySettings[0].Category)
		}
		if req.SafetySettings[0].Threshold != BlockOnlyHigh {
			t.Errorf("threshold = %q, want BLOCK_ONLY_HIGH", req.SafetySettings[0].Threshold)
		}

		json.NewEncoder(w).Encode(GenerationResponse{
			Candidates: []Candidate{{
				Content:      Content{Role: RoleModel, Parts: []Part{{Text: "ok"}}},
				FinishReason: FinishReasonStop,
				SafetyRatings: []SafetyRating{
					{Category: HarmCategoryHarassment, Probability: HarmProbabilityNegligible},
				},
			}},
		})
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	resp, err := client.GenerateContent().
		User("hi").
		SafetySetting(HarmCategoryHarassment, BlockOnlyHigh).
		SafetySetting(HarmCategoryDangerousContent, BlockMediumAndAbove).
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	ratings := resp.Candidates[0].SafetyRatings
	if len(ratings) != 1 || ratings[0].Probability != HarmProbabilityNegligible {
		t.Errorf("safetyRatings = %+v", ratings)
	}
}

func TestPromptFeedbackBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"HIGH","blocked":true}]}}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))

	resp, err := client.GenerateContent().User("blocked prompt").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}

	if resp.PromptFeedback == nil || resp.PromptFeedback.BlockReason != BlockReasonSafety {
		t.Fatalf("PromptFeedback = %+v, want SAFETY block", resp.PromptFeedback)
	}
	if resp.Text() != "" {
		t.Errorf("Text() = %q, want empty for blocked prompt", resp.Text())
	}
	if !resp.PromptFeedback.SafetyRatings[0].Blocked {
		t.Error("rating Blocked = false, want true")
	}
}
