package gemini

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// inlinedRequest pairs one generation request with its ordering key.
type inlinedRequest struct {
	Request  *GenerateContentRequest `json:"request"`
	Metadata requestMetadata         `json:"metadata"`
}

// createBatchRequest is the wire request for batchGenerateContent.
// The service nests the request list twice, mirroring the response shape.
type createBatchRequest struct {
	Batch struct {
		DisplayName string `json:"displayName"`
		InputConfig struct {
			Requests struct {
				Requests []inlinedRequest `json:"requests"`
			} `json:"requests"`
		} `json:"inputConfig"`
	} `json:"batch"`
}

// BatchBuilder assembles a batch generation job. Obtain one with
// Client.BatchGenerateContent, add requests, then call Execute.
type BatchBuilder struct {
	c           *Client
	model       string
	displayName string
	requests    []*GenerateContentRequest
}

// BatchGenerateContent starts building a batch job against the client's
// default model.
func (c *Client) BatchGenerateContent() *BatchBuilder {
	return &BatchBuilder{c: c, model: c.config.Model}
}

// Model overrides the model for the whole batch.
func (b *BatchBuilder) Model(model string) *BatchBuilder {
	b.model = model
	return b
}

// DisplayName sets a human-readable job name. Defaults to a generated
// unique name.
func (b *BatchBuilder) DisplayName(name string) *BatchBuilder {
	b.displayName = name
	return b
}

// Request adds one generation request to the batch.
func (b *BatchBuilder) Request(req *GenerateContentRequest) *BatchBuilder {
	b.requests = append(b.requests, req)
	return b
}

// Requests adds multiple generation requests to the batch.
func (b *BatchBuilder) Requests(reqs ...*GenerateContentRequest) *BatchBuilder {
	b.requests = append(b.requests, reqs...)
	return b
}

// Build validates the accumulated batch and returns the wire request.
// Requests are keyed by their zero-based position, which also orders the
// results of a succeeded batch.
func (b *BatchBuilder) Build() (*createBatchRequest, error) {
	if len(b.requests) == 0 {
		return nil, ErrNoRequests
	}

	req := &createBatchRequest{}
	req.Batch.DisplayName = b.displayName
	if req.Batch.DisplayName == "" {
		req.Batch.DisplayName = "batch-" + uuid.NewString()
	}
	for i, r := range b.requests {
		req.Batch.InputConfig.Requests.Requests = append(req.Batch.InputConfig.Requests.Requests, inlinedRequest{
			Request:  r,
			Metadata: requestMetadata{Key: strconv.Itoa(i)},
		})
	}
	return req, nil
}

// Execute submits the batch and returns a handle bound to the
// server-assigned operation name. Submission is a single network call and is
// never retried.
func (b *BatchBuilder) Execute(ctx context.Context) (*Batch, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	var op batchOperation
	url := b.c.modelURL(b.model, "batchGenerateContent")
	if err := b.c.do(ctx, http.MethodPost, url, req, &op); err != nil {
		return nil, err
	}
	return &Batch{name: op.Name, c: b.c}, nil
}
