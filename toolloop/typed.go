package toolloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// TypedTool adapts a strongly typed Go function into a Tool. The input
// schema is derived from the input struct's fields and json tags, so the
// function body never touches raw JSON.
type TypedTool[I any, O any] struct {
	def Definition
	fn  func(ctx context.Context, in I) (O, error)
}

// NewTyped builds a Tool from a typed function. Malformed input JSON and
// function errors are reported to the model as error results rather than
// failing the loop; replan requests propagate as errors.
//
// When O is Result the function's return value is passed through verbatim,
// letting typed tools emit error results or disclosures directly. Any other
// O is wrapped as a structured result.
func NewTyped[I any, O any](name, description string, fn func(ctx context.Context, in I) (O, error)) *TypedTool[I, O] {
	return &TypedTool[I, O]{
		def: Definition{
			Name:        name,
			Description: description,
			Schema:      SchemaFromMap(deriveSchema[I]()),
		},
		fn: fn,
	}
}

// WithMetadata returns a copy of the tool with the given metadata.
func (t *TypedTool[I, O]) WithMetadata(md Metadata) *TypedTool[I, O] {
	clone := *t
	clone.def.Metadata = md
	return &clone
}

// Definition implements Tool.
func (t *TypedTool[I, O]) Definition() Definition { return t.def }

// Call implements Tool.
func (t *TypedTool[I, O]) Call(ctx context.Context, input string) (Result, error) {
	var in I
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &in); err != nil {
			return ErrorResult("invalid arguments for %s: %v", t.def.Name, err), nil
		}
	}
	out, err := t.fn(ctx, in)
	if err != nil {
		if errors.Is(err, ErrReplanRequested) {
			return Result{}, err
		}
		return ErrorResult("%s failed: %v", t.def.Name, err), nil
	}
	if res, ok := any(out).(Result); ok {
		return res, nil
	}
	return StructuredResult(out), nil
}

// deriveSchema reflects a JSON-Schema document from the input type.
func deriveSchema[I any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	var zero I
	schema := reflector.Reflect(&zero)
	schema.Version = ""

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	delete(doc, "$schema")
	if _, ok := doc["type"]; !ok {
		doc["type"] = "object"
	}
	return doc
}

// MustMarshalArgs is a test and example helper that renders a typed
// argument value as the JSON string a model would send.
func MustMarshalArgs(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal args: %v", err))
	}
	return string(data)
}
