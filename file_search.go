package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FileSearchStoreBuilder assembles a store creation request. Obtain one with
// Client.CreateFileSearchStore.
type FileSearchStoreBuilder struct {
	c           *Client
	displayName string
}

// CreateFileSearchStore starts building a new file search store.
func (c *Client) CreateFileSearchStore() *FileSearchStoreBuilder {
	return &FileSearchStoreBuilder{c: c}
}

// DisplayName sets a human-readable store name.
func (b *FileSearchStoreBuilder) DisplayName(name string) *FileSearchStoreBuilder {
	b.displayName = name
	return b
}

// Execute creates the store and returns a handle to it.
func (b *FileSearchStoreBuilder) Execute(ctx context.Context) (*FileSearchStoreHandle, error) {
	body := struct {
		DisplayName string `json:"displayName,omitempty"`
	}{DisplayName: b.displayName}

	var store FileSearchStore
	if err := b.c.do(ctx, http.MethodPost, b.c.resourceURL("fileSearchStores"), body, &store); err != nil {
		return nil, err
	}
	return &FileSearchStoreHandle{name: store.Name, store: &store, c: b.c}, nil
}

// FileSearchStoreHandle is a handle to a file search store. Like FileHandle,
// store operations are plain calls with no consumption semantics.
type FileSearchStoreHandle struct {
	name  string
	store *FileSearchStore
	c     *Client
}

// GetFileSearchStore fetches a store by resource name
// ("fileSearchStores/abc") and returns a handle to it.
func (c *Client) GetFileSearchStore(ctx context.Context, name string) (*FileSearchStoreHandle, error) {
	var store FileSearchStore
	if err := c.do(ctx, http.MethodGet, c.resourceURL(name), nil, &store); err != nil {
		return nil, err
	}
	return &FileSearchStoreHandle{name: store.Name, store: &store, c: c}, nil
}

// Name returns the server-assigned resource name, e.g. "fileSearchStores/abc".
func (h *FileSearchStoreHandle) Name() string {
	return h.name
}

// Store returns the most recently fetched store record.
func (h *FileSearchStoreHandle) Store() *FileSearchStore {
	return h.store
}

// Refresh re-fetches the store record, updating the document counts.
func (h *FileSearchStoreHandle) Refresh(ctx context.Context) (*FileSearchStore, error) {
	var store FileSearchStore
	if err := h.c.do(ctx, http.MethodGet, h.c.resourceURL(h.name), nil, &store); err != nil {
		return nil, err
	}
	h.store = &store
	return &store, nil
}

// Delete removes the store. With force, documents still in the store are
// deleted along with it; without, deleting a non-empty store fails.
func (h *FileSearchStoreHandle) Delete(ctx context.Context, force bool) error {
	return h.c.DeleteFileSearchStore(ctx, h.name, force)
}

// Upload starts building an upload of raw bytes into the store.
func (h *FileSearchStoreHandle) Upload(data []byte) *StoreUploadBuilder {
	return &StoreUploadBuilder{c: h.c, storeName: h.name, data: data}
}

// ImportFile starts building an import of an already-uploaded File (by its
// "files/..." resource name) into the store.
func (h *FileSearchStoreHandle) ImportFile(fileName string) *StoreImportBuilder {
	return &StoreImportBuilder{c: h.c, storeName: h.name, fileName: fileName}
}

// documentPath resolves a document identifier against the store: a bare ID is
// expanded to the full resource name, a full name passes through.
func (h *FileSearchStoreHandle) documentPath(id string) string {
	if strings.HasPrefix(id, "fileSearchStores/") {
		return id
	}
	return h.name + "/documents/" + id
}

// GetDocument fetches a document by ID or full resource name.
func (h *FileSearchStoreHandle) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := h.c.do(ctx, http.MethodGet, h.c.resourceURL(h.documentPath(id)), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document by ID or full resource name.
func (h *FileSearchStoreHandle) DeleteDocument(ctx context.Context, id string, force bool) error {
	path := h.documentPath(id)
	if force {
		path += "?force=true"
	}
	return h.c.do(ctx, http.MethodDelete, h.c.resourceURL(path), nil, nil)
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	Documents     []Document
	NextPageToken string
}

type listDocumentsResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// ListDocuments fetches one page of the store's documents.
func (h *FileSearchStoreHandle) ListDocuments(ctx context.Context, pageSize int, pageToken string) (*DocumentPage, error) {
	var resp listDocumentsResponse
	url := h.c.resourceURL(h.name + "/documents" + listQuery(pageSize, pageToken))
	if err := h.c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return &DocumentPage{Documents: resp.Documents, NextPageToken: resp.NextPageToken}, nil
}

// ListAllDocuments walks every page and returns all documents in the store.
func (h *FileSearchStoreHandle) ListAllDocuments(ctx context.Context) ([]Document, error) {
	var all []Document
	token := ""
	for {
		page, err := h.ListDocuments(ctx, 100, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Documents...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// DeleteFileSearchStore removes a store by resource name. See
// FileSearchStoreHandle.Delete for the force semantics.
func (c *Client) DeleteFileSearchStore(ctx context.Context, name string, force bool) error {
	path := name
	if force {
		path += "?force=true"
	}
	return c.do(ctx, http.MethodDelete, c.resourceURL(path), nil, nil)
}

// FileSearchStorePage is one page of a store listing.
type FileSearchStorePage struct {
	Stores        []FileSearchStore
	NextPageToken string
}

type listFileSearchStoresResponse struct {
	FileSearchStores []FileSearchStore `json:"fileSearchStores"`
	NextPageToken    string            `json:"nextPageToken,omitempty"`
}

// ListFileSearchStores fetches one page of stores.
func (c *Client) ListFileSearchStores(ctx context.Context, pageSize int, pageToken string) (*FileSearchStorePage, error) {
	var resp listFileSearchStoresResponse
	if err := c.do(ctx, http.MethodGet, c.resourceURL("fileSearchStores"+listQuery(pageSize, pageToken)), nil, &resp); err != nil {
		return nil, err
	}
	return &FileSearchStorePage{Stores: resp.FileSearchStores, NextPageToken: resp.NextPageToken}, nil
}

// ListAllFileSearchStores walks every page and returns all store records.
func (c *Client) ListAllFileSearchStores(ctx context.Context) ([]FileSearchStore, error) {
	var all []FileSearchStore
	token := ""
	for {
		page, err := c.ListFileSearchStores(ctx, 0, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Stores...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// storeUploadMetadata is the body of the store-upload start request.
type storeUploadMetadata struct {
	DisplayName    string           `json:"displayName,omitempty"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
	ChunkingConfig *ChunkingConfig  `json:"chunkingConfig,omitempty"`
	MimeType       string           `json:"mimeType,omitempty"`
}

// StoreUploadBuilder assembles a direct byte upload into a file search store.
// Obtain one with FileSearchStoreHandle.Upload.
type StoreUploadBuilder struct {
	c         *Client
	storeName string
	data      []byte
	meta      storeUploadMetadata
}

// DisplayName sets a human-readable document name.
func (b *StoreUploadBuilder) DisplayName(name string) *StoreUploadBuilder {
	b.meta.DisplayName = name
	return b
}

// MIMEType declares the content type of the upload.
func (b *StoreUploadBuilder) MIMEType(mimeType string) *StoreUploadBuilder {
	b.meta.MimeType = mimeType
	return b
}

// CustomMetadata attaches metadata entries to the resulting document.
func (b *StoreUploadBuilder) CustomMetadata(entries ...CustomMetadata) *StoreUploadBuilder {
	b.meta.CustomMetadata = append(b.meta.CustomMetadata, entries...)
	return b
}

// Chunking overrides the service's default chunking.
func (b *StoreUploadBuilder) Chunking(cfg ChunkingConfig) *StoreUploadBuilder {
	b.meta.ChunkingConfig = &cfg
	return b
}

// Execute runs the two-step resumable upload protocol against the store and
// returns a handle to the indexing operation it starts.
func (b *StoreUploadBuilder) Execute(ctx context.Context) (*OperationHandle, error) {
	uploadURL, err := b.initiate(ctx)
	if err != nil {
		return nil, err
	}

	op, err := b.send(ctx, uploadURL)
	if err != nil {
		return nil, err
	}
	return &OperationHandle{name: op.Name, op: op, c: b.c}, nil
}

func (b *StoreUploadBuilder) initiate(ctx context.Context) (string, error) {
	url := b.c.withKey(b.c.config.BaseURL + "/upload/" + apiVersion + "/" + b.storeName + ":uploadToFileSearchStore")

	body, err := json.Marshal(b.meta)
	if err != nil {
		return "", newDecodeError(err)
	}

	req, err := b.c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(b.data)))
	if b.meta.MimeType != "" {
		req.Header.Set("X-Goog-Upload-Header-Content-Type", b.meta.MimeType)
	}

	resp, err := b.c.config.HTTPClient.Do(req)
	if err != nil {
		return "", newNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", normalizeError(resp.StatusCode, respBody)
	}

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", &APIError{
			Message: "resumable upload start returned no X-Goog-Upload-URL header",
			Err:     ErrDecode,
		}
	}
	return uploadURL, nil
}

func (b *StoreUploadBuilder) send(ctx context.Context, uploadURL string) (*Operation, error) {
	req, err := b.c.newRequest(ctx, http.MethodPost, uploadURL, bytes.NewReader(b.data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Length", strconv.Itoa(len(b.data)))
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := b.c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, normalizeError(resp.StatusCode, respBody)
	}

	var op Operation
	if err := json.Unmarshal(respBody, &op); err != nil {
		return nil, newDecodeError(err)
	}
	return &op, nil
}

// storeImportRequest is the body of an importFile request.
type storeImportRequest struct {
	FileName       string           `json:"fileName"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
	ChunkingConfig *ChunkingConfig  `json:"chunkingConfig,omitempty"`
}

// StoreImportBuilder assembles an import of an uploaded File into a file
// search store. Obtain one with FileSearchStoreHandle.ImportFile.
type StoreImportBuilder struct {
	c         *Client
	storeName string
	fileName  string
	meta      []CustomMetadata
	chunking  *ChunkingConfig
}

// CustomMetadata attaches metadata entries to the resulting document.
func (b *StoreImportBuilder) CustomMetadata(entries ...CustomMetadata) *StoreImportBuilder {
	b.meta = append(b.meta, entries...)
	return b
}

// Chunking overrides the service's default chunking.
func (b *StoreImportBuilder) Chunking(cfg ChunkingConfig) *StoreImportBuilder {
	b.chunking = &cfg
	return b
}

// Execute starts the import and returns a handle to the indexing operation.
func (b *StoreImportBuilder) Execute(ctx context.Context) (*OperationHandle, error) {
	body := storeImportRequest{
		FileName:       b.fileName,
		CustomMetadata: b.meta,
		ChunkingConfig: b.chunking,
	}

	var op Operation
	if err := b.c.do(ctx, http.MethodPost, b.c.resourceURL(b.storeName+":importFile"), body, &op); err != nil {
		return nil, err
	}
	return &OperationHandle{name: op.Name, op: &op, c: b.c}, nil
}

// OperationHandle tracks a long-running store operation (chunking, embedding,
// indexing). Plain calls, no consumption semantics.
type OperationHandle struct {
	name string
	op   *Operation
	c    *Client
}

// GetOperation re-attaches to a long-running operation by resource name.
func (c *Client) GetOperation(ctx context.Context, name string) (*OperationHandle, error) {
	var op Operation
	if err := c.do(ctx, http.MethodGet, c.resourceURL(name), nil, &op); err != nil {
		return nil, err
	}
	return &OperationHandle{name: op.Name, op: &op, c: c}, nil
}

// Name returns the operation's resource name.
func (h *OperationHandle) Name() string {
	return h.name
}

// Done reports whether the operation had finished as of the last fetch.
func (h *OperationHandle) Done() bool {
	return h.op != nil && h.op.Done
}

// Operation returns the most recently fetched operation envelope.
func (h *OperationHandle) Operation() *Operation {
	return h.op
}

// Refresh re-fetches the operation envelope.
func (h *OperationHandle) Refresh(ctx context.Context) (*Operation, error) {
	var op Operation
	if err := h.c.do(ctx, http.MethodGet, h.c.resourceURL(h.name), nil, &op); err != nil {
		return nil, err
	}
	h.op = &op
	return &op, nil
}

// WaitUntilDone polls every pollInterval until the operation finishes or ctx
// is canceled. A finished operation carrying an error is surfaced as an error
// wrapping ErrOperationFailed.
//
// The loop itself is unbounded; bound it through ctx.
func (h *OperationHandle) WaitUntilDone(ctx context.Context, pollInterval time.Duration) (*Operation, error) {
	for {
		if h.op != nil && h.op.Done {
			if h.op.Error != nil {
				return nil, &APIError{
					Code:    "operation_failed",
					Message: h.op.Error.Message,
					Err:     ErrOperationFailed,
				}
			}
			return h.op, nil
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if _, err := h.Refresh(ctx); err != nil {
			return nil, err
		}
	}
}
