package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
)

// GenerationConfig tunes model sampling and output shape.
type GenerationConfig struct {
	Temperature        *float32        `json:"temperature,omitempty"`
	TopP               *float32        `json:"topP,omitempty"`
	TopK               *int32          `json:"topK,omitempty"`
	CandidateCount     *int32          `json:"candidateCount,omitempty"`
	MaxOutputTokens    *int32          `json:"maxOutputTokens,omitempty"`
	StopSequences      []string        `json:"stopSequences,omitempty"`
	ResponseMimeType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     json.RawMessage `json:"responseSchema,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	ThinkingConfig     *ThinkingConfig `json:"thinkingConfig,omitempty"`
	SpeechConfig       *SpeechConfig   `json:"speechConfig,omitempty"`
}

// ThinkingConfig controls the model's internal reasoning budget.
// A ThinkingBudget of -1 requests dynamic thinking; 0 disables it.
type ThinkingConfig struct {
	ThinkingBudget  *int32 `json:"thinkingBudget,omitempty"`
	IncludeThoughts bool   `json:"includeThoughts,omitempty"`
}

// SpeechConfig selects voices for audio output.
type SpeechConfig struct {
	VoiceConfig             *VoiceConfig             `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *MultiSpeakerVoiceConfig `json:"multiSpeakerVoiceConfig,omitempty"`
}

// VoiceConfig selects a single prebuilt voice.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names a vendor-provided voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// MultiSpeakerVoiceConfig assigns voices to named speakers for dialogue audio.
type MultiSpeakerVoiceConfig struct {
	SpeakerVoiceConfigs []SpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

// SpeakerVoiceConfig binds one speaker name to a voice.
type SpeakerVoiceConfig struct {
	Speaker     string      `json:"speaker"`
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

// GenerateContentRequest is the wire request for generateContent and for each
// entry of a batch.
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
	CachedContent     string            `json:"cachedContent,omitempty"`
}

// countTokensResponse is the wire response for countTokens.
type countTokensResponse struct {
	TotalTokens             int32 `json:"totalTokens"`
	CachedContentTokenCount int32 `json:"cachedContentTokenCount,omitempty"`
}

// TokenCount reports the token footprint of a request before generation.
type TokenCount struct {
	TotalTokens             int32
	CachedContentTokenCount int32
}

// ContentBuilder assembles a generation request fluently. Obtain one with
// Client.GenerateContent, configure it, then call Generate, Stream or
// CountTokens.
type ContentBuilder struct {
	c        *Client
	model    string
	req      GenerateContentRequest
	buildErr error
}

// GenerateContent starts building a generation request against the client's
// default model.
func (c *Client) GenerateContent() *ContentBuilder {
	return &ContentBuilder{c: c, model: c.config.Model}
}

// Model overrides the model for this request.
func (b *ContentBuilder) Model(model string) *ContentBuilder {
	b.model = model
	return b
}

// System sets the system instruction.
func (b *ContentBuilder) System(text string) *ContentBuilder {
	sys := TextContent(text)
	b.req.SystemInstruction = &sys
	return b
}

// User appends a user text message.
func (b *ContentBuilder) User(text string) *ContentBuilder {
	b.req.Contents = append(b.req.Contents, TextContent(text).WithRole(RoleUser))
	return b
}

// ModelMessage appends a model text message, for replaying prior turns.
func (b *ContentBuilder) ModelMessage(text string) *ContentBuilder {
	b.req.Contents = append(b.req.Contents, TextContent(text).WithRole(RoleModel))
	return b
}

// Content appends an arbitrary content.
func (b *ContentBuilder) Content(content Content) *ContentBuilder {
	b.req.Contents = append(b.req.Contents, content)
	return b
}

// InlineData appends user content carrying raw media (base64-encoded).
func (b *ContentBuilder) InlineData(mimeType, data string) *ContentBuilder {
	b.req.Contents = append(b.req.Contents, InlineDataContent(mimeType, data).WithRole(RoleUser))
	return b
}

// FileData appends user content referencing an uploaded file by URI.
func (b *ContentBuilder) FileData(mimeType, fileURI string) *ContentBuilder {
	b.req.Contents = append(b.req.Contents, Content{
		Parts: []Part{{FileData: &FileData{MimeType: mimeType, FileURI: fileURI}}},
		Role:  RoleUser,
	})
	return b
}

// FunctionResponse appends the result of a function call the model requested.
// The response payload must marshal to a JSON object.
func (b *ContentBuilder) FunctionResponse(name string, response any) *ContentBuilder {
	content, err := FunctionResponseContent(name, response)
	if err != nil {
		// Surface at Build time rather than panicking mid-chain.
		b.buildErr = err
		return b
	}
	b.req.Contents = append(b.req.Contents, content.WithRole(RoleUser))
	return b
}

// Temperature sets the sampling temperature.
func (b *ContentBuilder) Temperature(t float32) *ContentBuilder {
	b.generationConfig().Temperature = &t
	return b
}

// TopP sets the nucleus sampling threshold.
func (b *ContentBuilder) TopP(p float32) *ContentBuilder {
	b.generationConfig().TopP = &p
	return b
}

// TopK sets the top-k sampling cutoff.
func (b *ContentBuilder) TopK(k int32) *ContentBuilder {
	b.generationConfig().TopK = &k
	return b
}

// MaxOutputTokens caps the response length.
func (b *ContentBuilder) MaxOutputTokens(n int32) *ContentBuilder {
	b.generationConfig().MaxOutputTokens = &n
	return b
}

// CandidateCount requests multiple response candidates.
func (b *ContentBuilder) CandidateCount(n int32) *ContentBuilder {
	b.generationConfig().CandidateCount = &n
	return b
}

// StopSequences sets sequences that terminate generation.
func (b *ContentBuilder) StopSequences(seqs ...string) *ContentBuilder {
	b.generationConfig().StopSequences = seqs
	return b
}

// ResponseMIMEType requests a specific output format, e.g. "application/json".
func (b *ContentBuilder) ResponseMIMEType(mimeType string) *ContentBuilder {
	b.generationConfig().ResponseMimeType = mimeType
	return b
}

// ResponseSchema constrains JSON output to the given schema. Implies
// ResponseMIMEType("application/json") when none is set.
func (b *ContentBuilder) ResponseSchema(schema json.RawMessage) *ContentBuilder {
	cfg := b.generationConfig()
	cfg.ResponseSchema = schema
	if cfg.ResponseMimeType == "" {
		cfg.ResponseMimeType = "application/json"
	}
	return b
}

// ThinkingBudget sets an explicit reasoning token budget. Zero disables
// thinking.
func (b *ContentBuilder) ThinkingBudget(tokens int32) *ContentBuilder {
	b.thinkingConfig().ThinkingBudget = &tokens
	return b
}

// DynamicThinking lets the model choose its own reasoning budget.
func (b *ContentBuilder) DynamicThinking() *ContentBuilder {
	budget := int32(-1)
	b.thinkingConfig().ThinkingBudget = &budget
	return b
}

// IncludeThoughts requests thought summaries in the response.
func (b *ContentBuilder) IncludeThoughts() *ContentBuilder {
	b.thinkingConfig().IncludeThoughts = true
	return b
}

// AudioOutput switches the response modality to audio.
func (b *ContentBuilder) AudioOutput() *ContentBuilder {
	b.generationConfig().ResponseModalities = []string{"AUDIO"}
	return b
}

// Voice selects a prebuilt voice for audio output.
func (b *ContentBuilder) Voice(name string) *ContentBuilder {
	b.speechConfig().VoiceConfig = &VoiceConfig{
		PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: name},
	}
	return b
}

// MultiSpeaker assigns voices to named speakers for dialogue audio. Speakers
// are sent sorted by name so the request encodes deterministically.
func (b *ContentBuilder) MultiSpeaker(speakers map[string]string) *ContentBuilder {
	names := make([]string, 0, len(speakers))
	for speaker := range speakers {
		names = append(names, speaker)
	}
	sort.Strings(names)

	cfg := &MultiSpeakerVoiceConfig{}
	for _, speaker := range names {
		cfg.SpeakerVoiceConfigs = append(cfg.SpeakerVoiceConfigs, SpeakerVoiceConfig{
			Speaker: speaker,
			VoiceConfig: VoiceConfig{
				PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: speakers[speaker]},
			},
		})
	}
	b.speechConfig().MultiSpeakerVoiceConfig = cfg
	return b
}

// SafetySetting adds a safety threshold for one harm category.
func (b *ContentBuilder) SafetySetting(category HarmCategory, threshold HarmBlockThreshold) *ContentBuilder {
	b.req.SafetySettings = append(b.req.SafetySettings, SafetySetting{
		Category:  category,
		Threshold: threshold,
	})
	return b
}

// Tool adds a tool the model may use.
func (b *ContentBuilder) Tool(tool Tool) *ContentBuilder {
	b.req.Tools = append(b.req.Tools, tool)
	return b
}

// CodeExecution enables the built-in code execution tool.
func (b *ContentBuilder) CodeExecution() *ContentBuilder {
	return b.Tool(CodeExecutionTool())
}

// FileSearch enables retrieval from the named file search stores.
func (b *ContentBuilder) FileSearch(storeNames ...string) *ContentBuilder {
	return b.Tool(FileSearchTool(storeNames...))
}

// Function declares a single callable function as its own tool. params is
// reflected into a JSON Schema (see SchemaFor); pass nil for no arguments.
func (b *ContentBuilder) Function(name, description string, params any) *ContentBuilder {
	decl, err := NewFunctionDeclaration(name, description, params)
	if err != nil {
		b.buildErr = err
		return b
	}
	b.req.Tools = append(b.req.Tools, NewTool(decl))
	return b
}

// FunctionCallingMode constrains how the model may call functions.
func (b *ContentBuilder) FunctionCallingMode(mode FunctionCallingMode, allowed ...string) *ContentBuilder {
	b.req.ToolConfig = &ToolConfig{
		FunctionCallingConfig: &FunctionCallingConfig{
			Mode:                 mode,
			AllowedFunctionNames: allowed,
		},
	}
	return b
}

// CachedContent attaches previously cached content by resource name.
func (b *ContentBuilder) CachedContent(name string) *ContentBuilder {
	b.req.CachedContent = name
	return b
}

// Build validates the accumulated request and returns it. Most callers use
// Generate or Stream instead; Build exists for batch assembly.
func (b *ContentBuilder) Build() (*GenerateContentRequest, error) {
	if b.buildErr != nil {
		return nil, b.buildErr
	}
	if len(b.req.Contents) == 0 {
		return nil, ErrNoContents
	}
	req := b.req
	return &req, nil
}

// Generate executes the request and returns the full response.
func (b *ContentBuilder) Generate(ctx context.Context) (*GenerationResponse, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	var resp GenerationResponse
	err = b.c.instrument(ctx, "generateContent", b.model, func() (*UsageMetadata, error) {
		resp = GenerationResponse{}
		url := b.c.modelURL(b.model, "generateContent")
		if err := b.c.do(ctx, http.MethodPost, url, req, &resp); err != nil {
			return nil, err
		}
		return resp.UsageMetadata, nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountTokens reports the token footprint of the request without generating.
func (b *ContentBuilder) CountTokens(ctx context.Context) (*TokenCount, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	var resp countTokensResponse
	err = b.c.instrument(ctx, "countTokens", b.model, func() (*UsageMetadata, error) {
		resp = countTokensResponse{}
		url := b.c.modelURL(b.model, "countTokens")
		// countTokens rejects systemInstruction and generation config at the
		// top level; only contents participate.
		body := GenerateContentRequest{Contents: req.Contents, Tools: req.Tools}
		if err := b.c.do(ctx, http.MethodPost, url, body, &resp); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &TokenCount{
		TotalTokens:             resp.TotalTokens,
		CachedContentTokenCount: resp.CachedContentTokenCount,
	}, nil
}

func (b *ContentBuilder) generationConfig() *GenerationConfig {
	if b.req.GenerationConfig == nil {
		b.req.GenerationConfig = &GenerationConfig{}
	}
	return b.req.GenerationConfig
}

func (b *ContentBuilder) thinkingConfig() *ThinkingConfig {
	cfg := b.generationConfig()
	if cfg.ThinkingConfig == nil {
		cfg.ThinkingConfig = &ThinkingConfig{}
	}
	return cfg.ThinkingConfig
}

func (b *ContentBuilder) speechConfig() *SpeechConfig {
	cfg := b.generationConfig()
	if cfg.SpeechConfig == nil {
		cfg.SpeechConfig = &SpeechConfig{}
	}
	return cfg.SpeechConfig
}
