package toolloop

import (
	"encoding/json"
	"fmt"
)

// ResultKind discriminates the variants of a tool Result.
type ResultKind string

const (
	// ResultText is a plain textual result.
	ResultText ResultKind = "text"
	// ResultStructured carries a typed payload alongside its rendering.
	ResultStructured ResultKind = "structured"
	// ResultError is a failure the model is expected to read and react to.
	ResultError ResultKind = "error"
)

// Result is the outcome of a tool invocation. Failures a model can recover
// from are expressed as error-kinded results, not Go errors: they flow back
// into the conversation like any other tool output, prefixed so the model
// can tell them apart.
type Result struct {
	Kind ResultKind

	// Text is the rendering for text results and the error message for
	// error results.
	Text string

	// Value is the payload of a structured result. It is published to the
	// run's blackboard when one is attached.
	Value any

	// Disclosure, when non-nil, instructs the hosting loop to change the
	// active tool set before the next model call. Only container tools
	// (UnfoldingTool and friends) set this.
	Disclosure *Disclosure
}

// TextResult returns a plain text result.
func TextResult(text string) Result {
	return Result{Kind: ResultText, Text: text}
}

// Textf returns a plain text result from a format string.
func Textf(format string, args ...any) Result {
	return Result{Kind: ResultText, Text: fmt.Sprintf(format, args...)}
}

// StructuredResult returns a result carrying a typed payload. The rendering
// sent back to the model is the payload's JSON form.
func StructuredResult(value any) Result {
	return Result{Kind: ResultStructured, Value: value}
}

// ErrorResult returns an error-kinded result. The message should tell the
// model what went wrong and, where possible, how to correct the call.
func ErrorResult(format string, args ...any) Result {
	return Result{Kind: ResultError, Text: fmt.Sprintf(format, args...)}
}

// IsError reports whether the result is the error variant.
func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// Render produces the string fed back to the model as the tool result
// content. Structured values render as JSON; values that fail to marshal
// fall back to fmt formatting rather than losing the result.
func (r Result) Render() string {
	switch r.Kind {
	case ResultStructured:
		if r.Value == nil {
			return r.Text
		}
		data, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Sprintf("%+v", r.Value)
		}
		return string(data)
	case ResultError:
		return "Error: " + r.Text
	default:
		return r.Text
	}
}
