// Package llmjson decodes JSON objects out of LLM responses and checks
// them against a declarative schema before they reach typed code.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Decoding errors.
var (
	ErrEmptyResponse  = errors.New("empty response")
	ErrInvalidJSON    = errors.New("response is not valid JSON")
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && isFenceLabel(s[:nl]) {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

func isFenceLabel(s string) bool {
	s = strings.TrimSpace(s)

	return s == "" || s == "json" || s == "JSON"
}

// Schema is a resolved JSON schema for one response type.
type Schema[T any] struct {
	resolved *jsonschema.Resolved
	name     string
}

// NewSchema resolves s. It panics on an invalid schema, which is a
// programming error.
func NewSchema[T any](name string, s *jsonschema.Schema) *Schema[T] {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("llmjson: invalid %s schema: %v", name, err))
	}

	return &Schema[T]{resolved: resolved, name: name}
}

// Decode strips fences, parses raw, validates the parsed value against
// the schema and only then decodes it into T. Nothing is clamped or
// defaulted: any mismatch is an error.
func (s *Schema[T]) Decode(raw string) (T, error) {
	var zero T

	clean := StripCodeFence(raw)
	if clean == "" {
		return zero, ErrEmptyResponse
	}

	var instance any
	if err := json.Unmarshal([]byte(clean), &instance); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	if err := s.resolved.Validate(instance); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSchemaMismatch, s.name, err)
	}

	var out T

	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSchemaMismatch, s.name, err)
	}

	return out, nil
}

// Float64 returns a pointer for schema bounds.
func Float64(f float64) *float64 {
	return &f
}
