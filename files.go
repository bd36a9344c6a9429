package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// FileState is the processing state of an uploaded file.
type FileState string

const (
	FileStateUnspecified FileState = "STATE_UNSPECIFIED"
	FileStateProcessing  FileState = "PROCESSING"
	FileStateActive      FileState = "ACTIVE"
	FileStateFailed      FileState = "FAILED"
)

// File is the metadata record of an uploaded file. Files are retained for 48
// hours before automatic deletion.
type File struct {
	Name           string          `json:"name"`
	DisplayName    string          `json:"displayName,omitempty"`
	MimeType       string          `json:"mimeType,omitempty"`
	SizeBytes      Int64String     `json:"sizeBytes,omitempty"`
	CreateTime     string          `json:"createTime,omitempty"`
	UpdateTime     string          `json:"updateTime,omitempty"`
	ExpirationTime string          `json:"expirationTime,omitempty"`
	SHA256Hash     string          `json:"sha256Hash,omitempty"`
	URI            string          `json:"uri,omitempty"`
	DownloadURI    string          `json:"downloadUri,omitempty"`
	State          FileState       `json:"state,omitempty"`
	Error          *OperationError `json:"error,omitempty"`
}

// fileUploadMetadata is the body of the resumable-upload start request.
type fileUploadMetadata struct {
	File struct {
		DisplayName string `json:"display_name,omitempty"`
	} `json:"file"`
}

// fileUploadResponse wraps the file record returned by the finalize step.
type fileUploadResponse struct {
	File File `json:"file"`
}

// FileBuilder assembles a file upload. Obtain one with Client.UploadFile.
type FileBuilder struct {
	c           *Client
	data        []byte
	displayName string
	mimeType    string
}

// UploadFile starts building an upload of the given bytes.
func (c *Client) UploadFile(data []byte) *FileBuilder {
	return &FileBuilder{c: c, data: data}
}

// DisplayName sets a human-readable file name.
func (b *FileBuilder) DisplayName(name string) *FileBuilder {
	b.displayName = name
	return b
}

// MIMEType declares the content type of the upload.
func (b *FileBuilder) MIMEType(mimeType string) *FileBuilder {
	b.mimeType = mimeType
	return b
}

// Upload runs the two-step resumable upload protocol: a start request that
// yields a session URL, then a single upload-and-finalize request carrying
// the bytes. Returns a handle to the uploaded file.
func (b *FileBuilder) Upload(ctx context.Context) (*FileHandle, error) {
	uploadURL, err := b.initiate(ctx)
	if err != nil {
		return nil, err
	}

	file, err := b.send(ctx, uploadURL)
	if err != nil {
		return nil, err
	}
	return &FileHandle{name: file.Name, file: file, c: b.c}, nil
}

func (b *FileBuilder) initiate(ctx context.Context) (string, error) {
	url := b.c.withKey(b.c.config.BaseURL + "/upload/" + apiVersion + "/files")

	metadata := fileUploadMetadata{}
	metadata.File.DisplayName = b.displayName

	body, err := json.Marshal(metadata)
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
	if b.mimeType != "" {
		req.Header.Set("X-Goog-Upload-Header-Content-Type", b.mimeType)
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

func (b *FileBuilder) send(ctx context.Context, uploadURL string) (*File, error) {
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

	var result fileUploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, newDecodeError(err)
	}
	return &result.File, nil
}

// FileHandle is a handle to an uploaded file. Unlike Batch, file operations
// are plain calls with no consumption semantics: the server keeps the record
// until deletion or expiry.
type FileHandle struct {
	name string
	file *File
	c    *Client
}

// Name returns the server-assigned resource name, e.g. "files/abc123".
func (h *FileHandle) Name() string {
	return h.name
}

// File returns the most recently fetched metadata record.
func (h *FileHandle) File() *File {
	return h.file
}

// Refresh re-fetches the metadata record.
func (h *FileHandle) Refresh(ctx context.Context) (*File, error) {
	file, err := h.c.GetFile(ctx, h.name)
	if err != nil {
		return nil, err
	}
	h.file = file
	return file, nil
}

// WaitForActive polls until the file leaves the PROCESSING state. Returns
// the active file record, or an error wrapping ErrFileFailed when processing
// failed.
func (h *FileHandle) WaitForActive(ctx context.Context, pollInterval time.Duration) (*File, error) {
	for {
		file, err := h.Refresh(ctx)
		if err != nil {
			return nil, err
		}

		switch file.State {
		case FileStateActive:
			return file, nil
		case FileStateFailed:
			msg := "file processing failed"
			if file.Error != nil {
				msg = file.Error.Message
			}
			return nil, &APIError{Code: "file_failed", Message: msg, Err: ErrFileFailed}
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

// Download fetches the raw file content. Only files the API marks
// downloadable (e.g. batch outputs) support this.
func (h *FileHandle) Download(ctx context.Context) ([]byte, error) {
	url := h.c.withKey(fmt.Sprintf("%s/download/%s/%s:download?alt=media", h.c.config.BaseURL, apiVersion, h.name))

	req, err := h.c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	if resp.StatusCode >= 400 {
		return nil, normalizeError(resp.StatusCode, body)
	}
	return body, nil
}

// Delete removes the file from the server.
func (h *FileHandle) Delete(ctx context.Context) error {
	return h.c.DeleteFile(ctx, h.name)
}

// GetFile retrieves metadata for a file by resource name.
func (c *Client) GetFile(ctx context.Context, name string) (*File, error) {
	var file File
	if err := c.do(ctx, http.MethodGet, c.resourceURL(name), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// GetFileHandle re-attaches to an uploaded file by resource name.
func (c *Client) GetFileHandle(name string) *FileHandle {
	return &FileHandle{name: name, c: c}
}

// DeleteFile removes a file by resource name.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.resourceURL(name), nil, nil)
}

// FilePage is one page of a file listing.
type FilePage struct {
	Files         []File
	NextPageToken string
}

type listFilesResponse struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// ListFiles fetches one page of uploaded files.
func (c *Client) ListFiles(ctx context.Context, pageSize int, pageToken string) (*FilePage, error) {
	var resp listFilesResponse
	if err := c.do(ctx, http.MethodGet, c.resourceURL("files"+listQuery(pageSize, pageToken)), nil, &resp); err != nil {
		return nil, err
	}
	return &FilePage{Files: resp.Files, NextPageToken: resp.NextPageToken}, nil
}

// ListAllFiles walks every page and returns all file records.
func (c *Client) ListAllFiles(ctx context.Context) ([]File, error) {
	var all []File
	token := ""
	for {
		page, err := c.ListFiles(ctx, 100, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}
