package gemini

import "encoding/json"

// FileSearchStore is a server-side document store for retrieval-augmented
// generation. Uploaded documents are chunked, embedded and indexed; the store
// is then referenced from generation requests through FileSearchTool.
type FileSearchStore struct {
	Name                  string       `json:"name"`
	DisplayName           string       `json:"displayName,omitempty"`
	CreateTime            string       `json:"createTime,omitempty"`
	UpdateTime            string       `json:"updateTime,omitempty"`
	ActiveDocumentsCount  *Int64String `json:"activeDocumentsCount,omitempty"`
	PendingDocumentsCount *Int64String `json:"pendingDocumentsCount,omitempty"`
	FailedDocumentsCount  *Int64String `json:"failedDocumentsCount,omitempty"`
	SizeBytes             *Int64String `json:"sizeBytes,omitempty"`
}

// DocumentState is the indexing state of a document within a store.
type DocumentState string

const (
	DocumentStateUnspecified DocumentState = "STATE_UNSPECIFIED"
	DocumentStatePending     DocumentState = "STATE_PENDING"
	DocumentStateActive      DocumentState = "STATE_ACTIVE"
	DocumentStateFailed      DocumentState = "STATE_FAILED"
)

// Document is one indexed document inside a file search store. Its resource
// name has the form "fileSearchStores/{store}/documents/{document}".
type Document struct {
	Name           string           `json:"name"`
	DisplayName    string           `json:"displayName,omitempty"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
	CreateTime     string           `json:"createTime,omitempty"`
	UpdateTime     string           `json:"updateTime,omitempty"`
	State          DocumentState    `json:"state,omitempty"`
	SizeBytes      Int64String      `json:"sizeBytes,omitempty"`
	MimeType       string           `json:"mimeType,omitempty"`
}

// CustomMetadata attaches one key with exactly one value kind to a document.
// Build entries with StringMetadata, StringListMetadata or NumericMetadata.
type CustomMetadata struct {
	Key             string      `json:"key"`
	StringValue     string      `json:"stringValue,omitempty"`
	StringListValue *StringList `json:"stringListValue,omitempty"`
	NumericValue    *float64    `json:"numericValue,omitempty"`
}

// StringList is the list-valued variant of a custom metadata value.
type StringList struct {
	Values []string `json:"values"`
}

// StringMetadata builds a string-valued metadata entry.
func StringMetadata(key, value string) CustomMetadata {
	return CustomMetadata{Key: key, StringValue: value}
}

// StringListMetadata builds a list-valued metadata entry.
func StringListMetadata(key string, values ...string) CustomMetadata {
	return CustomMetadata{Key: key, StringListValue: &StringList{Values: values}}
}

// NumericMetadata builds a numeric metadata entry.
func NumericMetadata(key string, value float64) CustomMetadata {
	return CustomMetadata{Key: key, NumericValue: &value}
}

// ChunkingConfig controls how a document is split before indexing. Absent, the
// service picks its own chunking.
type ChunkingConfig struct {
	WhiteSpaceConfig *WhiteSpaceConfig `json:"whiteSpaceConfig,omitempty"`
}

// WhiteSpaceConfig chunks on whitespace boundaries with token limits.
type WhiteSpaceConfig struct {
	MaxTokensPerChunk int `json:"maxTokensPerChunk,omitempty"`
	MaxOverlapTokens  int `json:"maxOverlapTokens,omitempty"`
}

// Operation is the generic long-running operation envelope returned by store
// uploads and imports. Metadata and Response payloads vary by operation and
// are left raw.
type Operation struct {
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}
