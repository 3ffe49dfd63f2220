package toolloop

import (
	"context"
	"errors"

	"github.com/martinemde/agentkit/blackboard"
	"github.com/martinemde/agentkit/unifiedllm"
)

// DefaultMaxIterations bounds a run when no explicit budget is configured.
const DefaultMaxIterations = 20

// Boundary is the LLM surface the engine drives. *unifiedllm.Client
// satisfies it.
type Boundary interface {
	Complete(ctx context.Context, req unifiedllm.Request) (*unifiedllm.Response, error)
}

// Engine drives the tool loop: call the model, dispatch every tool call it
// requested, fold the results back into history, repeat.
type Engine struct {
	boundary      Boundary
	inspectors    []Inspector
	transformers  []Transformer
	maxIterations int
	model         string
	provider      string
	temperature   *float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxIterations sets the iteration budget. Values below 1 keep the
// default.
func WithMaxIterations(n int) EngineOption {
	return func(e *Engine) {
		if n >= 1 {
			e.maxIterations = n
		}
	}
}

// WithModel sets the default model for runs that do not name one.
func WithModel(model string) EngineOption {
	return func(e *Engine) { e.model = model }
}

// WithProvider sets the default provider for runs that do not name one.
func WithProvider(provider string) EngineOption {
	return func(e *Engine) { e.provider = provider }
}

// WithTemperature sets the sampling temperature for all runs.
func WithTemperature(t float64) EngineOption {
	return func(e *Engine) { e.temperature = &t }
}

// WithInspectors appends inspectors. Registration order is invocation order.
func WithInspectors(inspectors ...Inspector) EngineOption {
	return func(e *Engine) { e.inspectors = append(e.inspectors, inspectors...) }
}

// WithTransformers appends transformers. Registration order is composition
// order: each transformer receives the previous one's output.
func WithTransformers(transformers ...Transformer) EngineOption {
	return func(e *Engine) { e.transformers = append(e.transformers, transformers...) }
}

// NewEngine creates an Engine over the given LLM boundary.
func NewEngine(boundary Boundary, opts ...EngineOption) *Engine {
	e := &Engine{
		boundary:      boundary,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunRequest describes one run of the loop.
type RunRequest struct {
	// SystemPrompt, when set, is prepended to the history on every call.
	SystemPrompt string

	// History is the starting conversation. The engine appends to a copy;
	// the caller's slice is never mutated.
	History []unifiedllm.Message

	// Tools is the initial tool set. Disclosure events from container
	// tools mutate it during the run, so callers wanting to reuse a
	// registry should pass a Clone.
	Tools *Registry

	// Blackboard, when set, receives every structured tool result and is
	// reachable from tools via blackboard.FromContext.
	Blackboard *blackboard.Blackboard

	// DynamicTools, when set, is consulted at the top of every iteration.
	// The returned tools are registered for that iteration (latest-wins
	// against static ones); tools from the previous consultation that are
	// no longer returned are removed.
	DynamicTools func(b *blackboard.Blackboard) []Tool

	// Model and Provider override the engine defaults for this run.
	Model    string
	Provider string

	MaxIterations int
}

// ToolInvocation records one tool call handled during a run.
type ToolInvocation struct {
	Iteration int
	Name      string
	CallID    string
	Input     string
	Rendering string
	IsError   bool
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	// History is the full conversation including everything the run
	// appended.
	History []unifiedllm.Message

	// FinalText is the text of the terminal assistant message.
	FinalText string

	Iterations  int
	Usage       unifiedllm.Usage
	Invocations []ToolInvocation
}

// Run executes the loop until the model answers without tool calls, the
// iteration budget runs out, or an error terminates the run.
//
// Error classes:
//   - LLM boundary failures return a *FatalError wrapping the cause.
//   - Budget exhaustion returns a *BudgetExhaustedError.
//   - A tool raising ErrReplanRequested unwinds the loop with that error
//     untouched.
//
// Cancellation is honored at iteration boundaries; an in-flight tool call
// observes it through its own context.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	tools := req.Tools
	if tools == nil {
		tools = NewRegistry()
	}
	maxIterations := e.maxIterations
	if req.MaxIterations >= 1 {
		maxIterations = req.MaxIterations
	}
	if req.Blackboard != nil {
		ctx = blackboard.NewContext(ctx, req.Blackboard)
	}

	history := make([]unifiedllm.Message, len(req.History))
	copy(history, req.History)

	result := &RunResult{}
	var dynamicNames []string
	lastTool := ""

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return result, &FatalError{Iteration: iteration, LastTool: lastTool, Err: err}
		}
		result.Iterations = iteration

		if req.DynamicTools != nil {
			dynamicNames = e.refreshDynamicTools(tools, req, dynamicNames)
		}

		// Pre-call phase.
		pc := PreCallContext{
			Iteration:       iteration,
			History:         history,
			ToolDefs:        tools.Definitions(),
			EstimatedTokens: estimateTokens(history),
		}
		for _, insp := range e.inspectors {
			insp.BeforeCall(pc)
		}
		callHistory := history
		for _, tf := range e.transformers {
			callHistory = tf.TransformBeforeCall(pc, callHistory)
		}

		resp, err := e.boundary.Complete(ctx, e.buildRequest(req, callHistory, pc.ToolDefs))
		if err != nil {
			result.History = history
			return result, &FatalError{Iteration: iteration, LastTool: lastTool, Err: err}
		}
		result.Usage = result.Usage.Add(resp.Usage)

		// Post-call phase.
		post := PostCallContext{Iteration: iteration, History: history, Response: resp}
		for _, insp := range e.inspectors {
			insp.AfterCall(post)
		}
		assistant := resp.Message
		for _, tf := range e.transformers {
			assistant = tf.TransformAfterCall(post, assistant)
		}
		history = append(history, assistant)

		iterationStart := len(result.Invocations)
		toolCalls := assistant.ToolCalls()
		if len(toolCalls) == 0 {
			result.History = history
			result.FinalText = assistant.TextContent()
			return result, nil
		}

		for _, call := range toolCalls {
			lastTool = call.Name
			input := string(call.Arguments)
			res := e.dispatch(ctx, tools, call.Name, input)
			if res.err != nil {
				result.History = history
				return result, res.err
			}
			if res.result.Disclosure != nil {
				applyDisclosure(tools, call.Name, res.result.Disclosure)
			}
			if req.Blackboard != nil && res.result.Kind == ResultStructured && res.result.Value != nil {
				req.Blackboard.Add(res.result.Value)
			}

			rendering := res.result.Render()
			trc := ToolResultContext{
				Iteration: iteration,
				History:   history,
				ToolName:  call.Name,
				CallID:    call.ID,
				Input:     input,
				Result:    res.result,
			}
			for _, insp := range e.inspectors {
				insp.AfterToolResult(trc)
			}
			for _, tf := range e.transformers {
				rendering = tf.TransformAfterToolResult(trc, rendering)
			}

			history = append(history, unifiedllm.ToolResultMessage(call.ID, rendering, res.result.IsError()))
			result.Invocations = append(result.Invocations, ToolInvocation{
				Iteration: iteration,
				Name:      call.Name,
				CallID:    call.ID,
				Input:     input,
				Rendering: rendering,
				IsError:   res.result.IsError(),
			})

			// A return-direct tool short-circuits the loop: its rendering is
			// the final answer, with no closing model turn.
			if t := tools.Get(call.Name); t != nil && t.Definition().Metadata.ReturnDirect && !res.result.IsError() {
				result.History = history
				result.FinalText = rendering
				return result, nil
			}
		}

		// Iteration phase.
		ic := IterationContext{
			Iteration:   iteration,
			History:     history,
			Invocations: result.Invocations[iterationStart:],
		}
		for _, insp := range e.inspectors {
			insp.AfterIteration(ic)
		}
		for _, tf := range e.transformers {
			history = tf.TransformAfterIteration(ic, history)
		}

		if iteration >= maxIterations {
			result.History = history
			return result, &BudgetExhaustedError{Iterations: iteration, LastTool: lastTool}
		}
	}
}

type dispatchOutcome struct {
	result Result
	err    error
}

// dispatch resolves and invokes one tool call. Unknown tools and ordinary
// tool failures become error results the model can react to; replan
// signals propagate as errors.
func (e *Engine) dispatch(ctx context.Context, tools *Registry, name, input string) dispatchOutcome {
	tool := tools.Get(name)
	if tool == nil {
		return dispatchOutcome{result: ErrorResult("unknown tool: %s (available: %v)", name, tools.Names())}
	}
	result, err := tool.Call(ctx, input)
	if err != nil {
		if errors.Is(err, ErrReplanRequested) {
			return dispatchOutcome{err: err}
		}
		return dispatchOutcome{result: ErrorResult("%s failed: %v", name, err)}
	}
	return dispatchOutcome{result: result}
}

func (e *Engine) buildRequest(req RunRequest, history []unifiedllm.Message, defs []unifiedllm.ToolDefinition) unifiedllm.Request {
	messages := history
	if req.SystemPrompt != "" {
		messages = make([]unifiedllm.Message, 0, len(history)+1)
		messages = append(messages, unifiedllm.SystemMessage(req.SystemPrompt))
		messages = append(messages, history...)
	}
	model := e.model
	if req.Model != "" {
		model = req.Model
	}
	provider := e.provider
	if req.Provider != "" {
		provider = req.Provider
	}
	return unifiedllm.Request{
		Model:       model,
		Provider:    provider,
		Messages:    messages,
		ToolDefs:    defs,
		Temperature: e.temperature,
	}
}

// refreshDynamicTools swaps the dynamic tool set for the current iteration:
// tools from the previous consultation are removed, the fresh set is
// registered latest-wins.
func (e *Engine) refreshDynamicTools(tools *Registry, req RunRequest, previous []string) []string {
	for _, name := range previous {
		tools.Unregister(name)
	}
	fresh := req.DynamicTools(req.Blackboard)
	names := make([]string, 0, len(fresh))
	for _, t := range fresh {
		tools.Register(t)
		names = append(names, t.Definition().Name)
	}
	return names
}

// applyDisclosure mutates the active registry per a container tool's
// instructions, effective for the remainder of the current iteration.
func applyDisclosure(tools *Registry, facadeName string, d *Disclosure) {
	for _, t := range d.Tools {
		tools.Register(t)
	}
	if d.RemoveFacade {
		tools.Unregister(facadeName)
	}
}
