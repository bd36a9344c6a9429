package gemini

import (
	"context"
	"net/http"
)

// TaskType tells the embedding model how the vector will be used, letting it
// specialize the embedding space.
type TaskType string

const (
	TaskTypeUnspecified        TaskType = "TASK_TYPE_UNSPECIFIED"
	TaskTypeRetrievalQuery     TaskType = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument  TaskType = "RETRIEVAL_DOCUMENT"
	TaskTypeSemanticSimilarity TaskType = "SEMANTIC_SIMILARITY"
	TaskTypeClassification     TaskType = "CLASSIFICATION"
	TaskTypeClustering         TaskType = "CLUSTERING"
	TaskTypeQuestionAnswering  TaskType = "QUESTION_ANSWERING"
	TaskTypeFactVerification   TaskType = "FACT_VERIFICATION"
)

// ContentEmbedding is a single embedding vector.
type ContentEmbedding struct {
	Values []float32 `json:"values"`
}

// embedContentRequest is the wire request for embedContent. Model is the
// fully qualified "models/{id}" form, required inside batch entries.
type embedContentRequest struct {
	Model                string   `json:"model,omitempty"`
	Content              Content  `json:"content"`
	TaskType             TaskType `json:"taskType,omitempty"`
	Title                string   `json:"title,omitempty"`
	OutputDimensionality *int32   `json:"outputDimensionality,omitempty"`
}

type embedContentResponse struct {
	Embedding ContentEmbedding `json:"embedding"`
}

type batchEmbedContentsRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedContentsResponse struct {
	Embeddings []ContentEmbedding `json:"embeddings"`
}

// EmbedBuilder assembles an embedding request. Obtain one with
// Client.EmbedContent, configure it, then call Execute or ExecuteBatch.
type EmbedBuilder struct {
	c        *Client
	model    string
	contents []Content
	taskType TaskType
	title    string
	dims     *int32
}

// EmbedContent starts building an embedding request against the default
// embedding model.
func (c *Client) EmbedContent() *EmbedBuilder {
	return &EmbedBuilder{c: c, model: DefaultEmbeddingModel}
}

// Model overrides the embedding model.
func (b *EmbedBuilder) Model(model string) *EmbedBuilder {
	b.model = model
	return b
}

// Text adds a text to embed. Call once for Execute, repeatedly for
// ExecuteBatch.
func (b *EmbedBuilder) Text(text string) *EmbedBuilder {
	b.contents = append(b.contents, TextContent(text))
	return b
}

// TaskType declares the downstream use of the embedding.
func (b *EmbedBuilder) TaskType(t TaskType) *EmbedBuilder {
	b.taskType = t
	return b
}

// Title sets the document title, meaningful with TaskTypeRetrievalDocument.
func (b *EmbedBuilder) Title(title string) *EmbedBuilder {
	b.title = title
	return b
}

// OutputDimensionality truncates the embedding to the given dimension count.
func (b *EmbedBuilder) OutputDimensionality(dims int32) *EmbedBuilder {
	b.dims = &dims
	return b
}

// Execute embeds a single content.
func (b *EmbedBuilder) Execute(ctx context.Context) (*ContentEmbedding, error) {
	if len(b.contents) == 0 {
		return nil, ErrNoContents
	}

	req := embedContentRequest{
		Content:              b.contents[0],
		TaskType:             b.taskType,
		Title:                b.title,
		OutputDimensionality: b.dims,
	}

	var resp embedContentResponse
	err := b.c.instrument(ctx, "embedContent", b.model, func() (*UsageMetadata, error) {
		resp = embedContentResponse{}
		url := b.c.modelURL(b.model, "embedContent")
		return nil, b.c.do(ctx, http.MethodPost, url, req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp.Embedding, nil
}

// ExecuteBatch embeds every added content in one round-trip, returning
// embeddings in input order.
func (b *EmbedBuilder) ExecuteBatch(ctx context.Context) ([]ContentEmbedding, error) {
	if len(b.contents) == 0 {
		return nil, ErrNoContents
	}

	req := batchEmbedContentsRequest{}
	for _, content := range b.contents {
		req.Requests = append(req.Requests, embedContentRequest{
			Model:                "models/" + b.model,
			Content:              content,
			TaskType:             b.taskType,
			Title:                b.title,
			OutputDimensionality: b.dims,
		})
	}

	var resp batchEmbedContentsResponse
	err := b.c.instrument(ctx, "batchEmbedContents", b.model, func() (*UsageMetadata, error) {
		resp = batchEmbedContentsResponse{}
		url := b.c.modelURL(b.model, "batchEmbedContents")
		return nil, b.c.do(ctx, http.MethodPost, url, req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}
