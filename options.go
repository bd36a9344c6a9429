package gemini

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the default Gemini API base URL.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds client configuration.
type Config struct {
	// APIKey is the Gemini API key (required). Sent as the `key` query
	// parameter on every request.
	APIKey Secret

	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the default model for generation requests.
	// Defaults to ModelGemini25Flash.
	Model string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Retry is the retry policy for idempotent generation and embedding
	// requests. Nil disables retries. Batch, file and cache lifecycle
	// operations are never retried regardless of policy.
	Retry RetryPolicy

	// Telemetry receives request lifecycle events. Defaults to a no-op hook.
	Telemetry TelemetryHook

	// Timeout is the optional per-request timeout, applied on top of the
	// caller's context.
	Timeout time.Duration
}

// Option configures the client.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the default model for generation requests.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetryPolicy enables retries for idempotent generation and embedding
// requests. Use DefaultRetryPolicy() for sensible defaults.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Config) {
		c.Retry = p
	}
}

// WithTelemetry sets the telemetry hook for request lifecycle events.
func WithTelemetry(hook TelemetryHook) Option {
	return func(c *Config) {
		c.Telemetry = hook
	}
}
