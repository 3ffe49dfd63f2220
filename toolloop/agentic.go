package toolloop

import (
	"context"
	"reflect"

	"github.com/tidwall/gjson"

	"github.com/martinemde/agentkit/blackboard"
	"github.com/martinemde/agentkit/unifiedllm"
)

// PromptStrategy builds the opening user message of an agentic tool's
// private loop from the surrounding blackboard and the invocation input.
type PromptStrategy func(b *blackboard.Blackboard, input string) string

// TaskPrompt is the default strategy: it uses the "task" field of the
// input when present, the raw input otherwise.
func TaskPrompt(_ *blackboard.Blackboard, input string) string {
	if task := gjson.Get(input, "task"); task.Exists() && task.Type == gjson.String {
		return task.String()
	}
	return input
}

// ArtifactBinding activates extra tools in an agentic loop when an
// artifact of the bound type is present on the blackboard. Bindings are
// consulted at every iteration against the latest artifact of the type;
// when several bindings contribute a tool under the same name, the
// later-registered binding wins.
type ArtifactBinding struct {
	Type  reflect.Type
	Tools func(artifact any) []Tool
}

// BindArtifact builds a typed ArtifactBinding.
func BindArtifact[T any](fn func(artifact T) []Tool) ArtifactBinding {
	return ArtifactBinding{
		Type: blackboard.TypeOf[T](),
		Tools: func(artifact any) []Tool {
			v, ok := artifact.(T)
			if !ok {
				return nil
			}
			return fn(v)
		},
	}
}

// AgenticTool runs an entire private tool loop as a single tool call: the
// outer model sees one tool, the inner model works the task with its own
// tool set and budget, and only the final answer crosses back.
//
// AgenticTool values are immutable; the With methods return configured
// copies, so a base tool can be specialized per use without data races.
type AgenticTool struct {
	name          string
	description   string
	schema        Schema
	boundary      Boundary
	model         string
	provider      string
	capability    string
	systemPrompt  PromptStrategy
	maxIterations int
	prompt        PromptStrategy
	tools         []Tool
	bindings      []ArtifactBinding
}

// NewAgentic creates an agentic tool over the given LLM boundary.
func NewAgentic(name, description string, boundary Boundary) *AgenticTool {
	return &AgenticTool{
		name:        name,
		description: description,
		schema: NewSchema(Param{
			Name:        "task",
			Type:        ParamString,
			Description: "The task for the sub-agent to carry out.",
			Required:    true,
		}),
		boundary:      boundary,
		maxIterations: DefaultMaxIterations,
		prompt:        TaskPrompt,
	}
}

// WithModel pins the inner loop to a specific model.
func (a *AgenticTool) WithModel(provider, model string) *AgenticTool {
	clone := *a
	clone.provider = provider
	clone.model = model
	return &clone
}

// WithCapability selects the inner model from the catalog by capability
// (for example "tools" or "reasoning") instead of pinning one.
func (a *AgenticTool) WithCapability(capability string) *AgenticTool {
	clone := *a
	clone.capability = capability
	return &clone
}

// WithSystemPrompt sets a fixed system prompt for the inner loop.
func (a *AgenticTool) WithSystemPrompt(prompt string) *AgenticTool {
	return a.WithSystemPromptStrategy(func(*blackboard.Blackboard, string) string {
		return prompt
	})
}

// WithSystemPromptStrategy generates the inner loop's system prompt from
// the surrounding blackboard and the invocation input.
func (a *AgenticTool) WithSystemPromptStrategy(strategy PromptStrategy) *AgenticTool {
	clone := *a
	clone.systemPrompt = strategy
	return &clone
}

// WithMaxIterations sets the inner loop's iteration budget.
func (a *AgenticTool) WithMaxIterations(n int) *AgenticTool {
	clone := *a
	if n >= 1 {
		clone.maxIterations = n
	}
	return &clone
}

// WithPromptStrategy replaces how the inner loop's opening message is
// built.
func (a *AgenticTool) WithPromptStrategy(strategy PromptStrategy) *AgenticTool {
	clone := *a
	clone.prompt = strategy
	return &clone
}

// WithSchema replaces the tool's input schema.
func (a *AgenticTool) WithSchema(schema Schema) *AgenticTool {
	clone := *a
	clone.schema = schema
	return &clone
}

// WithTools adds static tools to the inner loop.
func (a *AgenticTool) WithTools(tools ...Tool) *AgenticTool {
	clone := *a
	clone.tools = append(append([]Tool(nil), a.tools...), tools...)
	return &clone
}

// WithBindings adds artifact bindings to the inner loop.
func (a *AgenticTool) WithBindings(bindings ...ArtifactBinding) *AgenticTool {
	clone := *a
	clone.bindings = append(append([]ArtifactBinding(nil), a.bindings...), bindings...)
	return &clone
}

// Definition implements Tool.
func (a *AgenticTool) Definition() Definition {
	return Definition{
		Name:        a.name,
		Description: a.description,
		Schema:      a.schema,
	}
}

// Call implements Tool: one invocation is one full run of the private
// loop. The surrounding blackboard (when present in ctx) is shared with
// the inner loop, so structured results and bindings see the same
// artifacts. A replan signal from any inner tool unwinds both loops.
func (a *AgenticTool) Call(ctx context.Context, input string) (Result, error) {
	b := blackboard.FromContext(ctx)
	if b == nil {
		b = blackboard.New()
	}

	engine := NewEngine(a.boundary,
		WithMaxIterations(a.maxIterations),
		WithModel(a.resolveModel()),
		WithProvider(a.provider),
	)
	systemPrompt := ""
	if a.systemPrompt != nil {
		systemPrompt = a.systemPrompt(b, input)
	}
	req := RunRequest{
		SystemPrompt: systemPrompt,
		History:      []unifiedllm.Message{unifiedllm.UserMessage(a.prompt(b, input))},
		Tools:        NewRegistry(a.tools...),
		Blackboard:   b,
	}
	if len(a.bindings) > 0 {
		req.DynamicTools = a.boundTools
	}

	result, err := engine.Run(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return TextResult(result.FinalText), nil
}

// boundTools resolves the currently active binding tools against the
// blackboard's latest artifacts.
func (a *AgenticTool) boundTools(b *blackboard.Blackboard) []Tool {
	if b == nil {
		return nil
	}
	var out []Tool
	for _, binding := range a.bindings {
		artifact := b.Latest(binding.Type)
		if artifact == nil {
			continue
		}
		out = append(out, binding.Tools(artifact)...)
	}
	return out
}

func (a *AgenticTool) resolveModel() string {
	if a.model != "" {
		return a.model
	}
	if info := unifiedllm.GetLatestModel(a.provider, a.capability); info != nil {
		return info.ID
	}
	return ""
}
