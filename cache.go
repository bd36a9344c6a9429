package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// CachedContent is the server record of cached context that generation
// requests can reference instead of resending it.
type CachedContent struct {
	Name              string         `json:"name,omitempty"`
	DisplayName       string         `json:"displayName,omitempty"`
	Model             string         `json:"model,omitempty"`
	SystemInstruction *Content       `json:"systemInstruction,omitempty"`
	Contents          []Content      `json:"contents,omitempty"`
	Tools             []Tool         `json:"tools,omitempty"`
	ToolConfig        *ToolConfig    `json:"toolConfig,omitempty"`
	TTL               string         `json:"ttl,omitempty"`
	CreateTime        string         `json:"createTime,omitempty"`
	UpdateTime        string         `json:"updateTime,omitempty"`
	ExpireTime        string         `json:"expireTime,omitempty"`
	UsageMetadata     *UsageMetadata `json:"usageMetadata,omitempty"`
}

// ttlString renders a duration in the protobuf Duration wire form, seconds
// with an "s" suffix.
func ttlString(d time.Duration) string {
	secs := d.Seconds()
	if secs == float64(int64(secs)) {
		return strconv.FormatInt(int64(secs), 10) + "s"
	}
	return strconv.FormatFloat(secs, 'f', -1, 64) + "s"
}

// CacheBuilder assembles a cached-content record. Obtain one with
// Client.CreateCache; an expiration (TTL or ExpireTime) is required.
type CacheBuilder struct {
	c     *Client
	model string
	cc    CachedContent
}

// CreateCache starts building cached content against the client's default
// model.
func (c *Client) CreateCache() *CacheBuilder {
	return &CacheBuilder{c: c, model: c.config.Model}
}

// Model overrides the model the cache is bound to.
func (b *CacheBuilder) Model(model string) *CacheBuilder {
	b.model = model
	return b
}

// DisplayName sets a human-readable cache name.
func (b *CacheBuilder) DisplayName(name string) *CacheBuilder {
	b.cc.DisplayName = name
	return b
}

// System sets the cached system instruction.
func (b *CacheBuilder) System(text string) *CacheBuilder {
	sys := TextContent(text)
	b.cc.SystemInstruction = &sys
	return b
}

// UserMessage appends a cached user message.
func (b *CacheBuilder) UserMessage(text string) *CacheBuilder {
	b.cc.Contents = append(b.cc.Contents, TextContent(text).WithRole(RoleUser))
	return b
}

// ModelMessage appends a cached model message.
func (b *CacheBuilder) ModelMessage(text string) *CacheBuilder {
	b.cc.Contents = append(b.cc.Contents, TextContent(text).WithRole(RoleModel))
	return b
}

// Content appends arbitrary cached content.
func (b *CacheBuilder) Content(content Content) *CacheBuilder {
	b.cc.Contents = append(b.cc.Contents, content)
	return b
}

// Tool adds a cached tool.
func (b *CacheBuilder) Tool(tool Tool) *CacheBuilder {
	b.cc.Tools = append(b.cc.Tools, tool)
	return b
}

// ToolConfig sets the cached tool configuration.
func (b *CacheBuilder) ToolConfig(cfg ToolConfig) *CacheBuilder {
	b.cc.ToolConfig = &cfg
	return b
}

// TTL sets the cache lifetime relative to creation. Mutually exclusive with
// ExpireTime; the last setter wins.
func (b *CacheBuilder) TTL(d time.Duration) *CacheBuilder {
	b.cc.TTL = ttlString(d)
	b.cc.ExpireTime = ""
	return b
}

// ExpireTime sets an absolute expiry timestamp. Mutually exclusive with TTL;
// the last setter wins.
func (b *CacheBuilder) ExpireTime(t time.Time) *CacheBuilder {
	b.cc.ExpireTime = t.UTC().Format(time.RFC3339Nano)
	b.cc.TTL = ""
	return b
}

// Execute creates the cached content and returns a handle to it.
func (b *CacheBuilder) Execute(ctx context.Context) (*CachedContentHandle, error) {
	if b.cc.TTL == "" && b.cc.ExpireTime == "" {
		return nil, ErrCacheExpirationRequired
	}

	body := b.cc
	body.Model = "models/" + b.model

	var created CachedContent
	if err := b.c.do(ctx, http.MethodPost, b.c.resourceURL("cachedContents"), body, &created); err != nil {
		return nil, err
	}
	return &CachedContentHandle{name: created.Name, cc: &created, c: b.c}, nil
}

// CachedContentHandle is a handle to server-side cached content, identified
// by its resource name (e.g. "cachedContents/abc123").
//
// Like Batch, the handle is single-owner: Delete consumes it on success and
// leaves it valid for retry on failure. Get and the update operations never
// consume it.
type CachedContentHandle struct {
	name     string
	cc       *CachedContent
	c        *Client
	consumed bool
}

// GetCachedContent re-attaches to existing cached content by resource name.
func (c *Client) GetCachedContent(name string) *CachedContentHandle {
	return &CachedContentHandle{name: name, c: c}
}

// Name returns the server-assigned resource name.
func (h *CachedContentHandle) Name() string {
	return h.name
}

// CachedContent returns the most recently fetched record, nil before the
// first Get on a re-attached handle.
func (h *CachedContentHandle) CachedContent() *CachedContent {
	return h.cc
}

// Get fetches the current cached-content record.
func (h *CachedContentHandle) Get(ctx context.Context) (*CachedContent, error) {
	if h.consumed {
		return nil, ErrBatchConsumed
	}

	var cc CachedContent
	if err := h.c.do(ctx, http.MethodGet, h.c.resourceURL(h.name), nil, &cc); err != nil {
		return nil, err
	}
	h.cc = &cc
	return &cc, nil
}

// UpdateTTL extends or shortens the cache lifetime relative to now. Only the
// expiration of a cache can be updated.
func (h *CachedContentHandle) UpdateTTL(ctx context.Context, ttl time.Duration) (*CachedContent, error) {
	return h.patchExpiration(ctx, CachedContent{TTL: ttlString(ttl)}, "ttl")
}

// UpdateExpireTime replaces the absolute expiry timestamp.
func (h *CachedContentHandle) UpdateExpireTime(ctx context.Context, t time.Time) (*CachedContent, error) {
	return h.patchExpiration(ctx, CachedContent{ExpireTime: t.UTC().Format(time.RFC3339Nano)}, "expire_time")
}

func (h *CachedContentHandle) patchExpiration(ctx context.Context, patch CachedContent, mask string) (*CachedContent, error) {
	if h.consumed {
		return nil, ErrBatchConsumed
	}

	url := h.c.resourceURL(fmt.Sprintf("%s?updateMask=%s", h.name, mask))
	var cc CachedContent
	if err := h.c.do(ctx, http.MethodPatch, url, patch, &cc); err != nil {
		return nil, err
	}
	h.cc = &cc
	return &cc, nil
}

// Delete removes the cached content. On success the handle is consumed; on
// failure it remains valid for retry.
func (h *CachedContentHandle) Delete(ctx context.Context) error {
	if h.consumed {
		return ErrBatchConsumed
	}

	if err := h.c.do(ctx, http.MethodDelete, h.c.resourceURL(h.name), nil, nil); err != nil {
		return err
	}
	h.consumed = true
	return nil
}

// CachePage is one page of a cached-content listing.
type CachePage struct {
	CachedContents []CachedContent
	NextPageToken  string
}

type listCachedContentsResponse struct {
	CachedContents []CachedContent `json:"cachedContents"`
	NextPageToken  string          `json:"nextPageToken,omitempty"`
}

// ListCachedContents fetches one page of cached-content records.
func (c *Client) ListCachedContents(ctx context.Context, pageSize int, pageToken string) (*CachePage, error) {
	var resp listCachedContentsResponse
	if err := c.do(ctx, http.MethodGet, c.resourceURL("cachedContents"+listQuery(pageSize, pageToken)), nil, &resp); err != nil {
		return nil, err
	}
	return &CachePage{CachedContents: resp.CachedContents, NextPageToken: resp.NextPageToken}, nil
}

// ListAllCachedContents walks every page and returns all records.
func (c *Client) ListAllCachedContents(ctx context.Context) ([]CachedContent, error) {
	var all []CachedContent
	token := ""
	for {
		page, err := c.ListCachedContents(ctx, 0, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.CachedContents...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}
