package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	schemagen "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is the compiled response contract for T. The JSON Schema document is
// reflected from T's struct tags: fields without omitempty are required and
// unknown properties are allowed.
type Schema[T any] struct {
	name     string
	document []byte
	compiled *jsonschema.Schema
}

// NewSchema reflects and compiles the schema for T.
func NewSchema[T any](name string) (*Schema[T], error) {
	reflector := &schemagen.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	var zero T
	document, err := json.Marshal(reflector.Reflect(&zero))
	if err != nil {
		return nil, fmt.Errorf("reflect %s schema: %w", name, err)
	}

	compiled, err := jsonschema.CompileString(name+".schema.json", string(document))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}

	return &Schema[T]{name: name, document: document, compiled: compiled}, nil
}

// MustSchema is like NewSchema but panics on error. Use it for package-level
// schemas built from fixed Go types.
func MustSchema[T any](name string) *Schema[T] {
	s, err := NewSchema[T](name)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name used in errors and logs.
func (s *Schema[T]) Name() string {
	return s.name
}

// JSON returns the schema document, indented for display.
func (s *Schema[T]) JSON() []byte {
	var out bytes.Buffer
	if err := json.Indent(&out, s.document, "", "  "); err != nil {
		return s.document
	}
	return out.Bytes()
}

// Parse validates text against the schema and decodes it into T. Every failure is a
// *ResponseFormatError and returns the zero T.
func (s *Schema[T]) Parse(text string) (T, error) {
	var zero T

	if strings.TrimSpace(text) == "" {
		return zero, newResponseFormatError(s.name, ReasonEmptyResponse, text, nil)
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return zero, newResponseFormatError(s.name, ReasonInvalidJSON, text, err)
	}

	if err := s.compiled.Validate(decoded); err != nil {
		return zero, newResponseFormatError(s.name, ReasonSchemaViolation, text, err)
	}

	var value T
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return zero, newResponseFormatError(s.name, ReasonDecodeFailed, text, err)
	}
	return value, nil
}
