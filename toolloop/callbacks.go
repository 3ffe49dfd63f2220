package toolloop

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/martinemde/agentkit/unifiedllm"
)

// PreCallContext is handed to callbacks immediately before an LLM call.
type PreCallContext struct {
	// Iteration is 1-based: the first model call of a run sees 1.
	Iteration int

	// History is the conversation about to be sent, before pre-call
	// transformers run. Callbacks must treat it as read-only.
	History []unifiedllm.Message

	// ToolDefs are the definitions of the currently active tool set.
	ToolDefs []unifiedllm.ToolDefinition

	// EstimatedTokens approximates the prompt size of History.
	EstimatedTokens int
}

// PostCallContext is handed to callbacks after a model response arrives.
type PostCallContext struct {
	Iteration int
	History   []unifiedllm.Message
	Response  *unifiedllm.Response
}

// ToolResultContext is handed to callbacks after each tool invocation.
type ToolResultContext struct {
	Iteration int
	History   []unifiedllm.Message
	ToolName  string
	CallID    string
	Input     string
	Result    Result
}

// IterationContext is handed to callbacks once all tool calls of an
// iteration have been handled.
type IterationContext struct {
	Iteration int
	History   []unifiedllm.Message

	// Invocations are the tool calls handled this iteration, in dispatch
	// order.
	Invocations []ToolInvocation
}

// Inspector observes the loop without modifying it. Implementations are
// invoked in registration order at each phase, before any transformers.
// Inspector methods cannot fail; a panicking inspector fails the run.
//
// Embed BaseInspector to implement a subset of the phases.
type Inspector interface {
	BeforeCall(pc PreCallContext)
	AfterCall(pc PostCallContext)
	AfterToolResult(tc ToolResultContext)
	AfterIteration(ic IterationContext)
}

// Transformer rewrites loop data at its phase. Transformers registered for
// the same phase compose left-to-right: each receives the previous one's
// output.
//
//   - TransformBeforeCall rewrites the history sent to the model.
//   - TransformAfterCall rewrites the assistant message appended to history.
//   - TransformAfterToolResult rewrites a tool result's rendering.
//   - TransformAfterIteration rewrites the persistent history between
//     iterations.
//
// Embed BaseTransformer to implement a subset of the phases.
type Transformer interface {
	TransformBeforeCall(pc PreCallContext, history []unifiedllm.Message) []unifiedllm.Message
	TransformAfterCall(pc PostCallContext, msg unifiedllm.Message) unifiedllm.Message
	TransformAfterToolResult(tc ToolResultContext, rendering string) string
	TransformAfterIteration(ic IterationContext, history []unifiedllm.Message) []unifiedllm.Message
}

// BaseInspector is a no-op Inspector for embedding.
type BaseInspector struct{}

func (BaseInspector) BeforeCall(PreCallContext)         {}
func (BaseInspector) AfterCall(PostCallContext)         {}
func (BaseInspector) AfterToolResult(ToolResultContext) {}
func (BaseInspector) AfterIteration(IterationContext)   {}

// BaseTransformer is an identity Transformer for embedding.
type BaseTransformer struct{}

func (BaseTransformer) TransformBeforeCall(_ PreCallContext, history []unifiedllm.Message) []unifiedllm.Message {
	return history
}

func (BaseTransformer) TransformAfterCall(_ PostCallContext, msg unifiedllm.Message) unifiedllm.Message {
	return msg
}

func (BaseTransformer) TransformAfterToolResult(_ ToolResultContext, rendering string) string {
	return rendering
}

func (BaseTransformer) TransformAfterIteration(_ IterationContext, history []unifiedllm.Message) []unifiedllm.Message {
	return history
}

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// estimateTokens approximates the token count of a history using the
// cl100k_base encoding. Tool-call payloads count via their argument JSON.
// Falls back to a bytes/4 heuristic if the encoding is unavailable.
func estimateTokens(history []unifiedllm.Message) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			tokenizer = enc
		}
	})
	total := 0
	for _, msg := range history {
		for _, part := range msg.Content {
			text := part.Text
			if part.ToolCall != nil {
				text = part.ToolCall.Name + string(part.ToolCall.Arguments)
			}
			if part.ToolResult != nil {
				text = string(part.ToolResult.Content)
			}
			if text == "" {
				continue
			}
			if tokenizer != nil {
				total += len(tokenizer.Encode(text, nil, nil))
			} else {
				total += len(text) / 4
			}
		}
	}
	return total
}
