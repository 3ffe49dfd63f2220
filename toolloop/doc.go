// Package toolloop implements the tool loop engine: the driver that
// alternates LLM calls with tool dispatch until the model produces a final
// answer, an iteration budget is exhausted, or a fatal error surfaces.
//
// The package is organized around these core concepts:
//
//   - Tool: a named, schema-described callable invoked with JSON input,
//     producing a Result (text, structured payload, or error).
//   - Registry: the active tool set for a run; disclosure events mutate it
//     mid-iteration.
//   - Engine: the loop driver. One iteration is one LLM call plus handling
//     of every tool call it requested.
//   - Inspector / Transformer: ordered callbacks around the four loop
//     phases. Inspectors observe; transformers rewrite history or result
//     renderings, composing left-to-right in registration order.
//   - UnfoldingTool, StateMachineTool, AgenticTool: container tools that
//     expose a dynamic subset of inner tools based on invocation input,
//     accumulated state, or blackboard artifacts.
//
// # Quick Start
//
//	client := unifiedllm.NewClient(unifiedllm.WithProvider("openai", adapter))
//	reg := toolloop.NewRegistry()
//	reg.Register(weatherTool)
//
//	engine := toolloop.NewEngine(client,
//	    toolloop.WithMaxIterations(10),
//	    toolloop.WithTransformers(toolloop.NewWindowTransformer(50)),
//	)
//	result, err := engine.Run(ctx, toolloop.RunRequest{
//	    SystemPrompt: "You are a helpful assistant.",
//	    History:      []unifiedllm.Message{unifiedllm.UserMessage("What's the weather?")},
//	    Tools:        reg,
//	})
package toolloop
