package gemini

import "encoding/json"

// Role identifies the producer of a piece of content.
type Role string

const (
	// RoleUser marks content authored by the caller.
	RoleUser Role = "user"
	// RoleModel marks content authored by the model.
	RoleModel Role = "model"
)

// Blob holds raw media bytes, base64-encoded on the wire.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData references a file previously uploaded through the Files API.
type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// Part is one datum within a Content. Exactly one of the payload fields is set.
//
// Thought marks internal reasoning parts; ThoughtSignature is an opaque
// server token passed back verbatim on follow-up turns, never interpreted.
type Part struct {
	Text                string               `json:"text,omitempty"`
	Thought             *bool                `json:"thought,omitempty"`
	ThoughtSignature    string               `json:"thoughtSignature,omitempty"`
	InlineData          *Blob                `json:"inlineData,omitempty"`
	FunctionCall        *FunctionCall        `json:"functionCall,omitempty"`
	FunctionResponse    *FunctionResponse    `json:"functionResponse,omitempty"`
	FileData            *FileData            `json:"fileData,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executableCode,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"codeExecutionResult,omitempty"`
}

// IsThought reports whether the part is internal model reasoning.
func (p Part) IsThought() bool {
	return p.Thought != nil && *p.Thought
}

// Content is an ordered set of parts with an optional role.
type Content struct {
	Parts []Part `json:"parts"`
	Role  Role   `json:"role,omitempty"`
}

// TextContent creates a content with a single text part and no role.
func TextContent(text string) Content {
	return Content{Parts: []Part{{Text: text}}}
}

// InlineDataContent creates a content with a single inline-data part.
func InlineDataContent(mimeType, data string) Content {
	return Content{Parts: []Part{{InlineData: &Blob{MimeType: mimeType, Data: data}}}}
}

// FunctionResponseContent creates a content carrying a function response.
// The response payload must marshal to a JSON object.
func FunctionResponseContent(name string, response any) (Content, error) {
	raw, err := json.Marshal(response)
	if err != nil {
		return Content{}, newDecodeError(err)
	}
	return Content{Parts: []Part{{FunctionResponse: &FunctionResponse{
		Name:     name,
		Response: raw,
	}}}}, nil
}

// WithRole returns a copy of the content with the role set.
func (c Content) WithRole(role Role) Content {
	c.Role = role
	return c
}

// Text concatenates the text of all non-thought parts.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if p.IsThought() {
			continue
		}
		out += p.Text
	}
	return out
}

// CitationSource attributes a span of the response to a source.
type CitationSource struct {
	StartIndex *int32 `json:"startIndex,omitempty"`
	EndIndex   *int32 `json:"endIndex,omitempty"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

// CitationMetadata collects citation attributions for a candidate.
type CitationMetadata struct {
	CitationSources []CitationSource `json:"citationSources"`
}
