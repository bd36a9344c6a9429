package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Tool gives the model access to external capabilities: a set of
// caller-implemented functions or one of the built-in tools (Google Search
// grounding, file search retrieval, code execution).
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *GoogleSearchConfig   `json:"google_search,omitempty"`
	FileSearch           *FileSearchConfig     `json:"file_search,omitempty"`
	CodeExecution        *CodeExecutionConfig  `json:"code_execution,omitempty"`
}

// GoogleSearchConfig enables the built-in Google Search tool. It carries no
// options.
type GoogleSearchConfig struct{}

// FileSearchConfig points the built-in file search tool at one or more
// stores. MetadataFilter optionally restricts retrieval to documents whose
// custom metadata matches the filter expression.
type FileSearchConfig struct {
	FileSearchStoreNames []string `json:"file_search_store_names"`
	MetadataFilter       string   `json:"metadata_filter,omitempty"`
}

// CodeExecutionConfig enables the built-in code execution tool. It carries no
// options.
type CodeExecutionConfig struct{}

// NewTool creates a tool exposing the given function declarations.
func NewTool(decls ...FunctionDeclaration) Tool {
	return Tool{FunctionDeclarations: decls}
}

// GoogleSearchTool creates the built-in Google Search grounding tool.
func GoogleSearchTool() Tool {
	return Tool{GoogleSearch: &GoogleSearchConfig{}}
}

// FileSearchTool creates the built-in file search retrieval tool over the
// named stores.
func FileSearchTool(storeNames ...string) Tool {
	return Tool{FileSearch: &FileSearchConfig{FileSearchStoreNames: storeNames}}
}

// CodeExecutionTool creates the built-in code execution tool: the model may
// write and run code to answer the prompt, returning executableCode and
// codeExecutionResult parts alongside text.
func CodeExecutionTool() Tool {
	return Tool{CodeExecution: &CodeExecutionConfig{}}
}

// ExecutableCode is code the model generated for execution.
type ExecutableCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// CodeExecutionOutcome classifies how a code execution run ended.
type CodeExecutionOutcome string

const (
	OutcomeOK               CodeExecutionOutcome = "OUTCOME_OK"
	OutcomeFailed           CodeExecutionOutcome = "OUTCOME_FAILED"
	OutcomeDeadlineExceeded CodeExecutionOutcome = "OUTCOME_DEADLINE_EXCEEDED"
)

// CodeExecutionResult is the outcome of running an ExecutableCode part.
type CodeExecutionResult struct {
	Outcome CodeExecutionOutcome `json:"outcome"`
	Output  string               `json:"output,omitempty"`
}

// FunctionDeclaration describes one callable function to the model.
// Parameters and Response hold JSON Schema objects; build them with SchemaFor
// or supply raw schema JSON.
type FunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Behavior    string          `json:"behavior,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// NewFunctionDeclaration creates a function declaration with a schema
// generated by reflection over params (see SchemaFor). Pass nil for a
// function that takes no arguments.
func NewFunctionDeclaration(name, description string, params any) (FunctionDeclaration, error) {
	decl := FunctionDeclaration{Name: name, Description: description}
	if params != nil {
		schema, err := SchemaFor(params)
		if err != nil {
			return FunctionDeclaration{}, err
		}
		decl.Parameters = schema
	}
	return decl, nil
}

// SchemaFor generates a JSON Schema for v by reflection. Subschemas are
// inlined and the $schema marker is omitted, producing the restricted schema
// dialect the API accepts. Struct tags (`json`, `jsonschema`) control field
// names, required-ness and descriptions.
func SchemaFor(v any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := r.Reflect(v)
	schema.Version = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, newDecodeError(err)
	}
	return raw, nil
}

// FunctionCall is the model's request to invoke a declared function.
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Arg extracts a single named argument into v.
func (fc *FunctionCall) Arg(key string, v any) error {
	var args map[string]json.RawMessage
	if err := json.Unmarshal(fc.Args, &args); err != nil {
		return newDecodeError(err)
	}
	raw, ok := args[key]
	if !ok {
		return fmt.Errorf("gemini: function call %q has no argument %q", fc.Name, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newDecodeError(err)
	}
	return nil
}

// DecodeArgs unmarshals the full argument object into v, typically a struct
// mirroring the declared parameter schema.
func (fc *FunctionCall) DecodeArgs(v any) error {
	if err := json.Unmarshal(fc.Args, v); err != nil {
		return newDecodeError(err)
	}
	return nil
}

// FunctionResponse returns a function's result to the model.
// Response must be a JSON object.
type FunctionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

// FunctionCallingMode controls whether and how the model may call functions.
type FunctionCallingMode string

const (
	// FunctionCallingAuto lets the model decide between replying and calling.
	FunctionCallingAuto FunctionCallingMode = "AUTO"
	// FunctionCallingAny forces a function call, optionally restricted to
	// AllowedFunctionNames.
	FunctionCallingAny FunctionCallingMode = "ANY"
	// FunctionCallingNone disables function calling.
	FunctionCallingNone FunctionCallingMode = "NONE"
)

// FunctionCallingConfig constrains the model's function-calling behavior.
type FunctionCallingConfig struct {
	Mode                 FunctionCallingMode `json:"mode,omitempty"`
	AllowedFunctionNames []string            `json:"allowedFunctionNames,omitempty"`
}

// ToolConfig carries request-level tool behavior settings.
type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}
