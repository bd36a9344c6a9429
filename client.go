package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// apiVersion is the Gemini REST API version segment.
const apiVersion = "v1beta"

// Client is the entry point for the Gemini API.
//
// A Client is safe for concurrent use. Handles it produces (Batch,
// CachedContentHandle) are single-owner and are not.
type Client struct {
	config Config
}

// New creates a client authenticated with the given API key.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		Model:      DefaultModel,
		HTTPClient: http.DefaultClient,
		Telemetry:  NoopTelemetryHook{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = NoopTelemetryHook{}
	}
	return &Client{config: cfg}
}

// modelURL builds a model-scoped endpoint URL, e.g.
// {base}/v1beta/models/gemini-2.5-flash:generateContent?key=...
func (c *Client) modelURL(model, verb string) string {
	return c.withKey(fmt.Sprintf("%s/%s/models/%s:%s", c.config.BaseURL, apiVersion, model, verb))
}

// resourceURL builds a resource endpoint URL from a path relative to the
// version root, e.g. "batches/123" or "files?pageSize=10".
func (c *Client) resourceURL(path string) string {
	return c.withKey(fmt.Sprintf("%s/%s/%s", c.config.BaseURL, apiVersion, path))
}

// withKey appends the API key as the `key` query parameter. The key always
// travels in the query string, never in a header.
func (c *Client) withKey(rawURL string) string {
	sep := "?"
	if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return rawURL + sep + "key=" + url.QueryEscape(c.config.APIKey.Expose())
}

// listQuery encodes pagination parameters as a query-string suffix, or ""
// when both are unset. Page tokens are opaque server strings and must be
// escaped.
func listQuery(pageSize int, pageToken string) string {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// newRequest creates an HTTP request with the configured extra headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	for key, values := range c.config.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

// do performs one JSON round-trip: marshals in (when non-nil) as the request
// body, executes, normalizes error statuses, and unmarshals the response into
// out (when non-nil). One network call, no retries.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return newDecodeError(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		return normalizeError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return newDecodeError(err)
		}
	}
	return nil
}

// instrument wraps fn with telemetry start/end events and the configured
// retry policy. Only idempotent generation and embedding paths use it.
func (c *Client) instrument(ctx context.Context, operation, model string, fn func() (*UsageMetadata, error)) error {
	start := time.Now()
	c.config.Telemetry.OnRequestStart(RequestStartEvent{
		Operation: operation,
		Model:     model,
		Start:     start,
	})

	var usage *UsageMetadata
	err := executeWithRetry(ctx, c.config.Retry, func() error {
		var ferr error
		usage, ferr = fn()
		return ferr
	})

	c.config.Telemetry.OnRequestEnd(RequestEndEvent{
		Operation: operation,
		Model:     model,
		Start:     start,
		End:       time.Now(),
		Usage:     usage,
		Err:       err,
	})
	return err
}
