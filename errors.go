package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by the Gemini API with full context.
type APIError struct {
	Status  int    // HTTP status code, 0 for network/decode failures
	Code    string // Vendor status string (e.g., "INVALID_ARGUMENT")
	Message string
	Err     error // Wrapped sentinel for errors.Is classification
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gemini: %s", e.Message)
	}
	return fmt.Sprintf("gemini: %s (status=%d, code=%s)", e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification via errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("decode error")
)

// Domain errors.
var (
	// ErrBatchConsumed indicates a call on a batch or cache handle whose
	// destructive operation already succeeded. This is a programming error:
	// a spent handle must not be reused.
	ErrBatchConsumed = errors.New("handle already consumed by a successful destructive operation")

	// ErrInconsistentOperation indicates the server reported a long-running
	// operation as done without either an error or a result payload.
	ErrInconsistentOperation = errors.New("operation done without error or response")

	// ErrCacheExpirationRequired indicates a cache create request with neither
	// a TTL nor an explicit expire time.
	ErrCacheExpirationRequired = errors.New("cached content requires a TTL or an explicit expire time")

	// ErrFileProcessing indicates the file is still being processed.
	ErrFileProcessing = errors.New("file is still processing")

	// ErrFileFailed indicates file processing failed.
	ErrFileFailed = errors.New("file processing failed")

	// ErrOperationFailed indicates a long-running operation finished with an
	// error payload.
	ErrOperationFailed = errors.New("operation failed")
)

// Validation errors with actionable guidance.
var (
	ErrNoContents = errors.New("no contents: add at least one message using .User(), .ModelMessage(), or .Content()")
	ErrNoRequests = errors.New("no requests: add at least one request using .Request() or .Requests()")
)

// BatchExpiredError indicates a batch reached the Expired terminal state while
// being waited on. The handle that produced it remains valid for inspection.
type BatchExpiredError struct {
	Name string // Server-assigned operation name
}

// Error implements the error interface.
func (e *BatchExpiredError) Error() string {
	return fmt.Sprintf("gemini: batch %s expired before completing", e.Name)
}

// errorResponse is the vendor error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// normalizeError converts an HTTP error response to an APIError with the
// appropriate sentinel.
func normalizeError(status int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	code := errResp.Error.Status
	if code == "" {
		code = "unknown_error"
	}

	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     sentinelForStatus(status),
	}
}

// sentinelForStatus maps an HTTP status code to a classification sentinel.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrBadRequest
	default:
		return ErrServer
	}
}

// newNetworkError creates an APIError for network-related failures.
func newNetworkError(err error) error {
	return &APIError{
		Message: fmt.Sprintf("network error: %v", err),
		Err:     errors.Join(ErrNetwork, err),
	}
}

// newDecodeError creates an APIError for JSON decode failures.
func newDecodeError(err error) error {
	return &APIError{
		Message: fmt.Sprintf("decode error: %v", err),
		Err:     errors.Join(ErrDecode, err),
	}
}
