package gemini

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BatchState is the raw lifecycle state string reported by the service.
type BatchState string

const (
	BatchStateUnspecified BatchState = "BATCH_STATE_UNSPECIFIED"
	BatchStatePending     BatchState = "BATCH_STATE_PENDING"
	BatchStateRunning     BatchState = "BATCH_STATE_RUNNING"
	BatchStateSucceeded   BatchState = "BATCH_STATE_SUCCEEDED"
	BatchStateFailed      BatchState = "BATCH_STATE_FAILED"
	BatchStateCancelled   BatchState = "BATCH_STATE_CANCELLED"
	BatchStateExpired     BatchState = "BATCH_STATE_EXPIRED"
)

// OperationError is the error payload of a failed long-running operation or
// of a single failed request within a batch.
type OperationError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("gemini: operation error %d: %s", e.Code, e.Message)
}

// Int64String is an int64 that the API encodes as a decimal JSON string.
// Decoding also accepts a bare number.
type Int64String int64

// MarshalJSON encodes the value as a quoted decimal string.
func (i Int64String) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(i), 10))), nil
}

// UnmarshalJSON decodes a quoted or bare decimal value.
func (i *Int64String) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("gemini: invalid int64 string %q: %w", s, err)
	}
	*i = Int64String(v)
	return nil
}

// batchStats is the request-count block of batch operation metadata.
// Counts for states the service has not reached yet may be absent.
type batchStats struct {
	RequestCount          Int64String  `json:"requestCount"`
	PendingRequestCount   *Int64String `json:"pendingRequestCount,omitempty"`
	CompletedRequestCount *Int64String `json:"completedRequestCount,omitempty"`
	FailedRequestCount    *Int64String `json:"failedRequestCount,omitempty"`
}

// batchMetadata is the metadata block of a batch long-running operation.
type batchMetadata struct {
	State       BatchState  `json:"state,omitempty"`
	Model       string      `json:"model,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
	CreateTime  string      `json:"createTime,omitempty"`
	UpdateTime  string      `json:"updateTime,omitempty"`
	BatchStats  *batchStats `json:"batchStats,omitempty"`
}

// requestMetadata carries the caller-assigned key that pairs batch inputs
// with outputs.
type requestMetadata struct {
	Key string `json:"key"`
}

// inlinedResponse is one per-request outcome inside a succeeded batch.
type inlinedResponse struct {
	Metadata requestMetadata     `json:"metadata"`
	Response *GenerationResponse `json:"response,omitempty"`
	Error    *OperationError     `json:"error,omitempty"`
}

// batchOperationResponse is the response payload of a completed batch. The
// service nests the response list twice.
type batchOperationResponse struct {
	InlinedResponses struct {
		InlinedResponses []inlinedResponse `json:"inlinedResponses"`
	} `json:"inlinedResponses"`
}

// batchOperation is the long-running operation envelope for batch jobs.
type batchOperation struct {
	Name     string                  `json:"name"`
	Metadata *batchMetadata          `json:"metadata,omitempty"`
	Done     bool                    `json:"done,omitempty"`
	Error    *OperationError         `json:"error,omitempty"`
	Response *batchOperationResponse `json:"response,omitempty"`
}

// BatchResultItem is one per-request outcome of a succeeded batch. Exactly
// one of Response and Error is set.
type BatchResultItem struct {
	Key      string
	Response *GenerationResponse
	Error    *OperationError
}

// BatchProgress reports request counts for a running batch.
type BatchProgress struct {
	TotalCount     int64
	PendingCount   int64
	CompletedCount int64
	FailedCount    int64
}

// BatchStatusKind is the classified lifecycle state of a batch.
type BatchStatusKind string

const (
	BatchPending   BatchStatusKind = "pending"
	BatchRunning   BatchStatusKind = "running"
	BatchSucceeded BatchStatusKind = "succeeded"
	BatchFailed    BatchStatusKind = "failed"
	BatchCancelled BatchStatusKind = "cancelled"
	BatchExpired   BatchStatusKind = "expired"
)

// BatchStatus is a point-in-time snapshot of a batch's lifecycle.
//
// Progress is set for Running; Results for Succeeded; Error for Failed.
type BatchStatus struct {
	Kind     BatchStatusKind
	Progress *BatchProgress
	Results  []BatchResultItem
	Error    *OperationError
}

// Terminal reports whether the batch has reached a final state.
func (s *BatchStatus) Terminal() bool {
	switch s.Kind {
	case BatchSucceeded, BatchFailed, BatchCancelled, BatchExpired:
		return true
	}
	return false
}

// statusFromOperation classifies a raw operation envelope into a BatchStatus.
// Pure function of its input: equal envelopes always classify identically.
//
// An operation marked done with neither an error nor a response is a server
// contract violation and is reported as ErrInconsistentOperation rather than
// being guessed into a success or failure.
func statusFromOperation(op *batchOperation) (*BatchStatus, error) {
	if !op.Done {
		if op.Metadata == nil || op.Metadata.State != BatchStateRunning {
			return &BatchStatus{Kind: BatchPending}, nil
		}
		status := &BatchStatus{Kind: BatchRunning}
		// Stats are optional progress detail; a running batch without them is
		// still running. Counts the service has not populated yet default to:
		// all requests pending, none finished.
		if stats := op.Metadata.BatchStats; stats != nil {
			progress := &BatchProgress{
				TotalCount:   int64(stats.RequestCount),
				PendingCount: int64(stats.RequestCount),
			}
			if stats.PendingRequestCount != nil {
				progress.PendingCount = int64(*stats.PendingRequestCount)
			}
			if stats.CompletedRequestCount != nil {
				progress.CompletedCount = int64(*stats.CompletedRequestCount)
			}
			if stats.FailedRequestCount != nil {
				progress.FailedCount = int64(*stats.FailedRequestCount)
			}
			status.Progress = progress
		}
		return status, nil
	}

	if op.Error != nil {
		return &BatchStatus{Kind: BatchFailed, Error: op.Error}, nil
	}

	if op.Response == nil {
		return nil, fmt.Errorf("gemini: operation %s: %w", op.Name, ErrInconsistentOperation)
	}

	// Cancellation and expiry also deliver a response payload; the raw state
	// disambiguates them from success.
	if op.Metadata != nil {
		switch op.Metadata.State {
		case BatchStateCancelled:
			return &BatchStatus{Kind: BatchCancelled}, nil
		case BatchStateExpired:
			return &BatchStatus{Kind: BatchExpired}, nil
		}
	}

	return &BatchStatus{Kind: BatchSucceeded, Results: sortedResults(op.Response)}, nil
}

// sortedResults flattens the inlined responses and orders them by numeric
// key. Keys that fail to parse sort after all numeric keys.
func sortedResults(resp *batchOperationResponse) []BatchResultItem {
	inlined := resp.InlinedResponses.InlinedResponses
	items := make([]BatchResultItem, 0, len(inlined))
	for _, in := range inlined {
		items = append(items, BatchResultItem{
			Key:      in.Metadata.Key,
			Response: in.Response,
			Error:    in.Error,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, aerr := strconv.ParseInt(items[i].Key, 10, 64)
		b, berr := strconv.ParseInt(items[j].Key, 10, 64)
		if aerr != nil {
			return false
		}
		if berr != nil {
			return true
		}
		return a < b
	})
	return items
}
