package gemini

// Model constants for Google Gemini models.
const (
	// Gemini 3 series (preview)
	ModelGemini3Pro   = "gemini-3-pro-preview"
	ModelGemini3Flash = "gemini-3-flash-preview"

	// Gemini 2.5 series
	ModelGemini25Flash     = "gemini-2.5-flash"
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"
	ModelGemini25Pro       = "gemini-2.5-pro"

	// Embedding models
	ModelTextEmbedding004  = "text-embedding-004"
	ModelGeminiEmbedding01 = "gemini-embedding-001"
)

// DefaultModel is used by generation builders when no model is configured.
const DefaultModel = ModelGemini25Flash

// DefaultEmbeddingModel is used by embedding builders when no model is set.
const DefaultEmbeddingModel = ModelTextEmbedding004
