package toolloop

import (
	"context"
	"errors"
	"testing"

	"github.com/martinemde/agentkit/blackboard"
	"github.com/martinemde/agentkit/unifiedllm"
)

func TestAgenticTool(t *testing.T) {
	t.Run("runs a private loop and returns the final text", func(t *testing.T) {
		inner := &scriptedBoundary{responses: []*unifiedllm.Response{
			toolCallResponse(call("c1", "lookup", `{"q":"x"}`)),
			textResponse("the answer is 4"),
		}}
		sub := NewAgentic("researcher", "digs into questions", inner).
			WithTools(echoTool("lookup")).
			WithSystemPrompt("research carefully")

		res, err := sub.Call(context.Background(), `{"task":"what is 2+2"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Text != "the answer is 4" {
			t.Errorf("expected inner final text, got %q", res.Text)
		}
		if inner.calls != 2 {
			t.Errorf("expected 2 inner calls, got %d", inner.calls)
		}
		// Opening message is the task, not the raw JSON.
		opening := inner.requests[0].Messages
		if opening[len(opening)-1].TextContent() != "what is 2+2" {
			t.Errorf("expected task as opening message, got %q", opening[len(opening)-1].TextContent())
		}
	})

	t.Run("with methods configure copies", func(t *testing.T) {
		base := NewAgentic("worker", "does work", &scriptedBoundary{})
		tuned := base.WithMaxIterations(5).WithModel("test", "test-model")
		if base.maxIterations != DefaultMaxIterations {
			t.Error("expected base unchanged")
		}
		if tuned.maxIterations != 5 || tuned.model != "test-model" {
			t.Error("expected configured copy")
		}
	})

	t.Run("budget default is twenty", func(t *testing.T) {
		sub := NewAgentic("worker", "does work", &scriptedBoundary{})
		if sub.maxIterations != 20 {
			t.Errorf("expected default budget of 20, got %d", sub.maxIterations)
		}
	})

	t.Run("replan unwinds the outer loop too", func(t *testing.T) {
		pivot := NewFuncTool(Definition{Name: "pivot"}, func(_ context.Context, _ string) (Result, error) {
			return Result{}, ReplanRequested("inner gave up")
		})
		inner := &scriptedBoundary{responses: []*unifiedllm.Response{
			toolCallResponse(call("c1", "pivot", `{}`)),
		}}
		sub := NewAgentic("worker", "does work", inner).WithTools(pivot)

		outer := &scriptedBoundary{responses: []*unifiedllm.Response{
			toolCallResponse(call("o1", "worker", `{"task":"go"}`)),
		}}
		engine := NewEngine(outer)
		_, err := engine.Run(context.Background(), RunRequest{
			History: []unifiedllm.Message{unifiedllm.UserMessage("start")},
			Tools:   NewRegistry(sub),
		})
		if !errors.Is(err, ErrReplanRequested) {
			t.Fatalf("expected replan to cross both loops, got %v", err)
		}
	})

	t.Run("bindings activate tools from blackboard artifacts", func(t *testing.T) {
		type Credentials struct{ Token string }

		var sawToken string
		secureTool := func(c Credentials) []Tool {
			return []Tool{NewFuncTool(Definition{Name: "fetch_secure"}, func(_ context.Context, _ string) (Result, error) {
				sawToken = c.Token
				return TextResult("fetched"), nil
			})}
		}

		inner := &scriptedBoundary{responses: []*unifiedllm.Response{
			toolCallResponse(call("c1", "fetch_secure", `{}`)),
			textResponse("done"),
		}}
		sub := NewAgentic("worker", "does work", inner).
			WithBindings(BindArtifact(secureTool))

		board := blackboard.New()
		board.Add(Credentials{Token: "tok-9"})
		ctx := blackboard.NewContext(context.Background(), board)

		res, err := sub.Call(ctx, `{"task":"fetch"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError() {
			t.Fatalf("expected success, got %q", res.Text)
		}
		if sawToken != "tok-9" {
			t.Errorf("expected bound tool built from latest artifact, saw %q", sawToken)
		}
	})

	t.Run("bindings stay dormant without the artifact", func(t *testing.T) {
		type Credentials struct{ Token string }
		inner := &scriptedBoundary{responses: []*unifiedllm.Response{
			toolCallResponse(call("c1", "fetch_secure", `{}`)),
			textResponse("gave up"),
		}}
		sub := NewAgentic("worker", "does work", inner).
			WithBindings(BindArtifact(func(Credentials) []Tool {
				return []Tool{echoTool("fetch_secure")}
			}))

		res, err := sub.Call(context.Background(), `{"task":"fetch"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The inner loop saw an unknown tool, recovered, and finished.
		if res.Text != "gave up" {
			t.Errorf("expected inner loop to finish despite dormant binding, got %q", res.Text)
		}
	})
}
