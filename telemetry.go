package gemini

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// Event types are designed to NEVER include sensitive data: the API key is
// stored separately as a Secret, and neither prompt content nor response
// content is exposed. Only operational metadata (model, timing, token counts)
// is included, so telemetry can be logged or exported safely.
type TelemetryHook interface {
	// OnRequestStart is called when an API request begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when an API request completes.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Operation string    // API operation (e.g., "generateContent", "embedContent")
	Model     string    // Model being called, empty for resource operations
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
//
// Usage is nil for operations that do not report token counts.
type RequestEndEvent struct {
	Operation string
	Model     string
	Start     time.Time
	End       time.Time
	Usage     *UsageMetadata // Token consumption, nil when not reported
	Err       error          // Error if the request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Used as the default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
