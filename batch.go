package gemini

import (
	"context"
	"net/http"
	"time"
)

// Batch is a handle to a server-side batch generation job, identified by its
// opaque operation name.
//
// A Batch is single-owner and not safe for concurrent use. Destructive
// operations (Cancel, Delete, and WaitForCompletion reaching a terminal
// outcome) consume the handle on success: subsequent calls fail fast with
// ErrBatchConsumed. On failure the handle stays valid, so the caller can
// retry the same operation; every retry is a fresh network call.
type Batch struct {
	name     string
	c        *Client
	consumed bool
}

// GetBatch re-attaches to an existing batch by its operation name, e.g. from
// a previous process or a listing.
func (c *Client) GetBatch(name string) *Batch {
	return &Batch{name: name, c: c}
}

// Name returns the server-assigned operation name.
func (b *Batch) Name() string {
	return b.name
}

// Status fetches the current lifecycle snapshot. Status never consumes the
// handle and may be called repeatedly.
func (b *Batch) Status(ctx context.Context) (*BatchStatus, error) {
	if b.consumed {
		return nil, ErrBatchConsumed
	}

	var op batchOperation
	if err := b.c.do(ctx, http.MethodGet, b.c.resourceURL(b.name), nil, &op); err != nil {
		return nil, err
	}
	return statusFromOperation(&op)
}

// Cancel requests cancellation of the batch. On success the handle is
// consumed; on failure it remains valid for retry.
//
// Cancellation is asynchronous on the server: requests already in flight may
// still complete.
func (b *Batch) Cancel(ctx context.Context) error {
	if b.consumed {
		return ErrBatchConsumed
	}

	url := b.c.resourceURL(b.name + ":cancel")
	if err := b.c.do(ctx, http.MethodPost, url, struct{}{}, nil); err != nil {
		return err
	}
	b.consumed = true
	return nil
}

// Delete removes the batch job record from the server. On success the handle
// is consumed; on failure it remains valid for retry.
//
// Delete targets the job record, not in-flight work; cancel first if the
// batch may still be running.
func (b *Batch) Delete(ctx context.Context) error {
	if b.consumed {
		return ErrBatchConsumed
	}

	if err := b.c.do(ctx, http.MethodDelete, b.c.resourceURL(b.name), nil, nil); err != nil {
		return err
	}
	b.consumed = true
	return nil
}

// WaitForCompletion polls Status every pollInterval until the batch reaches a
// terminal state or ctx is canceled.
//
// Succeeded, Failed and Cancelled are returned as the final status with the
// handle consumed. Expired returns a *BatchExpiredError and leaves the handle
// valid for inspection. Transport errors surface immediately with the handle
// still valid, so the wait can simply be restarted.
//
// The loop itself is unbounded; bound it through ctx.
func (b *Batch) WaitForCompletion(ctx context.Context, pollInterval time.Duration) (*BatchStatus, error) {
	if b.consumed {
		return nil, ErrBatchConsumed
	}

	for {
		status, err := b.Status(ctx)
		if err != nil {
			return nil, err
		}

		switch status.Kind {
		case BatchSucceeded, BatchFailed, BatchCancelled:
			b.consumed = true
			return status, nil
		case BatchExpired:
			return nil, &BatchExpiredError{Name: b.name}
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// BatchSummary describes one batch job in a listing.
type BatchSummary struct {
	Name        string
	DisplayName string
	Model       string
	State       BatchState
	CreateTime  string
	UpdateTime  string
}

// BatchPage is one page of a batch listing.
type BatchPage struct {
	Batches       []BatchSummary
	NextPageToken string
}

type listOperationsResponse struct {
	Operations    []batchOperation `json:"operations"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

// ListBatches fetches one page of batch jobs. pageSize <= 0 uses the server
// default; pageToken "" starts from the beginning.
func (c *Client) ListBatches(ctx context.Context, pageSize int, pageToken string) (*BatchPage, error) {
	var resp listOperationsResponse
	if err := c.do(ctx, http.MethodGet, c.resourceURL("batches"+listQuery(pageSize, pageToken)), nil, &resp); err != nil {
		return nil, err
	}

	page := &BatchPage{NextPageToken: resp.NextPageToken}
	for _, op := range resp.Operations {
		summary := BatchSummary{Name: op.Name}
		if op.Metadata != nil {
			summary.DisplayName = op.Metadata.DisplayName
			summary.Model = op.Metadata.Model
			summary.State = op.Metadata.State
			summary.CreateTime = op.Metadata.CreateTime
			summary.UpdateTime = op.Metadata.UpdateTime
		}
		page.Batches = append(page.Batches, summary)
	}
	return page, nil
}

// ListAllBatches walks every page and returns all batch summaries.
func (c *Client) ListAllBatches(ctx context.Context) ([]BatchSummary, error) {
	var all []BatchSummary
	token := ""
	for {
		page, err := c.ListBatches(ctx, 0, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Batches...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}
