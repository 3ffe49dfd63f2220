package toolloop

import (
	"context"

	"github.com/martinemde/agentkit/unifiedllm"
)

// Metadata carries per-tool flags consulted by hosting loops.
type Metadata struct {
	// ReturnDirect marks a tool whose result should be surfaced to the
	// caller as the final answer instead of being folded back into the
	// conversation for another model turn.
	ReturnDirect bool
}

// Definition is the immutable identity of a tool: the name and schema the
// model sees, plus loop-facing metadata.
type Definition struct {
	Name        string
	Description string
	Schema      Schema
	Metadata    Metadata
}

// ToolDefinition exports the definition in the wire shape the LLM boundary
// expects.
func (d Definition) ToolDefinition() unifiedllm.ToolDefinition {
	return unifiedllm.ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Schema.JSONSchema(),
	}
}

// Tool is a named callable the model can invoke. Input arrives as the raw
// JSON argument string from the model.
//
// Call returns an error only for control-flow signals (ErrReplanRequested)
// or failures the loop itself must handle. Ordinary tool failures (bad
// arguments, missing resources, domain errors) are expressed as
// error-kinded Results so the model can read them and retry.
type Tool interface {
	Definition() Definition
	Call(ctx context.Context, input string) (Result, error)
}

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	def Definition
	fn  func(ctx context.Context, input string) (Result, error)
}

// NewFuncTool builds a Tool from a definition and a handler function.
func NewFuncTool(def Definition, fn func(ctx context.Context, input string) (Result, error)) *FuncTool {
	return &FuncTool{def: def, fn: fn}
}

// Definition implements Tool.
func (t *FuncTool) Definition() Definition { return t.def }

// Call implements Tool.
func (t *FuncTool) Call(ctx context.Context, input string) (Result, error) {
	return t.fn(ctx, input)
}
