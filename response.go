package gemini

// FinishReason explains why a candidate stopped generating.
type FinishReason string

const (
	FinishReasonStop            FinishReason = "STOP"
	FinishReasonMaxTokens       FinishReason = "MAX_TOKENS"
	FinishReasonSafety          FinishReason = "SAFETY"
	FinishReasonRecitation      FinishReason = "RECITATION"
	FinishReasonMalformedFnCall FinishReason = "MALFORMED_FUNCTION_CALL"
	FinishReasonOther           FinishReason = "OTHER"
)

// Candidate is one generated response alternative.
type Candidate struct {
	Content          Content           `json:"content"`
	FinishReason     FinishReason      `json:"finishReason,omitempty"`
	Index            int32             `json:"index,omitempty"`
	SafetyRatings    []SafetyRating    `json:"safetyRatings,omitempty"`
	CitationMetadata *CitationMetadata `json:"citationMetadata,omitempty"`
}

// UsageMetadata reports token consumption for a request.
type UsageMetadata struct {
	PromptTokenCount        int32 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    int32 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount         int32 `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount      int32 `json:"thoughtsTokenCount,omitempty"`
	CachedContentTokenCount int32 `json:"cachedContentTokenCount,omitempty"`
}

// GenerationResponse is the full result of a generateContent call, or one
// decoded frame of a stream.
type GenerationResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// Text returns the concatenated text of the first candidate's non-thought
// parts, or "" when there are no candidates.
func (r *GenerationResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Text()
}

// FunctionCalls returns every function call across all candidates, in order.
func (r *GenerationResponse) FunctionCalls() []*FunctionCall {
	var calls []*FunctionCall
	for _, cand := range r.Candidates {
		for i := range cand.Content.Parts {
			if fc := cand.Content.Parts[i].FunctionCall; fc != nil {
				calls = append(calls, fc)
			}
		}
	}
	return calls
}

// Thoughts returns the text of thought parts from the first candidate.
// Empty unless the request asked to include thoughts.
func (r *GenerationResponse) Thoughts() []string {
	if len(r.Candidates) == 0 {
		return nil
	}
	var thoughts []string
	for _, p := range r.Candidates[0].Content.Parts {
		if p.IsThought() && p.Text != "" {
			thoughts = append(thoughts, p.Text)
		}
	}
	return thoughts
}

// ThoughtSignatures returns the opaque thought signatures from the first
// candidate, for verbatim replay on follow-up turns.
func (r *GenerationResponse) ThoughtSignatures() []string {
	if len(r.Candidates) == 0 {
		return nil
	}
	var sigs []string
	for _, p := range r.Candidates[0].Content.Parts {
		if p.ThoughtSignature != "" {
			sigs = append(sigs, p.ThoughtSignature)
		}
	}
	return sigs
}

// ExecutableCode returns the code the model generated for execution, from
// the first candidate. Empty unless the code execution tool was enabled.
func (r *GenerationResponse) ExecutableCode() []*ExecutableCode {
	if len(r.Candidates) == 0 {
		return nil
	}
	var code []*ExecutableCode
	for i := range r.Candidates[0].Content.Parts {
		if ec := r.Candidates[0].Content.Parts[i].ExecutableCode; ec != nil {
			code = append(code, ec)
		}
	}
	return code
}

// CodeExecutionResults returns code execution outcomes from the first
// candidate.
func (r *GenerationResponse) CodeExecutionResults() []*CodeExecutionResult {
	if len(r.Candidates) == 0 {
		return nil
	}
	var results []*CodeExecutionResult
	for i := range r.Candidates[0].Content.Parts {
		if cr := r.Candidates[0].Content.Parts[i].CodeExecutionResult; cr != nil {
			results = append(results, cr)
		}
	}
	return results
}

// InlineData returns inline media blobs (audio, images) from the first
// candidate.
func (r *GenerationResponse) InlineData() []*Blob {
	if len(r.Candidates) == 0 {
		return nil
	}
	var blobs []*Blob
	for i := range r.Candidates[0].Content.Parts {
		if b := r.Candidates[0].Content.Parts[i].InlineData; b != nil {
			blobs = append(blobs, b)
		}
	}
	return blobs
}
