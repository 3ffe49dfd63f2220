package toolloop

import (
	"strings"
	"testing"

	"github.com/martinemde/agentkit/unifiedllm"
)

func feedCalls(d *RepeatDetector, calls ...[2]string) {
	for _, c := range calls {
		d.TransformAfterToolResult(ToolResultContext{ToolName: c[0], Input: c[1]}, "")
	}
}

func TestRepeatDetector(t *testing.T) {
	history := []unifiedllm.Message{unifiedllm.UserMessage("go")}

	t.Run("identical calls trigger a warning", func(t *testing.T) {
		d := NewRepeatDetector(4)
		feedCalls(d,
			[2]string{"grep", `{"q":"foo"}`},
			[2]string{"grep", `{"q":"foo"}`},
			[2]string{"grep", `{"q":"foo"}`},
			[2]string{"grep", `{"q":"foo"}`},
		)
		got := d.TransformAfterIteration(IterationContext{Iteration: 4}, history)
		if len(got) != 2 {
			t.Fatalf("expected injected warning, history has %d messages", len(got))
		}
		if !got[1].IsSystem() || !strings.Contains(got[1].TextContent(), "repeating") {
			t.Errorf("expected system warning about repetition, got %+v", got[1])
		}
	})

	t.Run("alternating pair triggers", func(t *testing.T) {
		d := NewRepeatDetector(4)
		feedCalls(d,
			[2]string{"read", `{"f":"a"}`},
			[2]string{"read", `{"f":"b"}`},
			[2]string{"read", `{"f":"a"}`},
			[2]string{"read", `{"f":"b"}`},
		)
		got := d.TransformAfterIteration(IterationContext{}, history)
		if len(got) != 2 {
			t.Error("expected warning for a period-2 pattern")
		}
	})

	t.Run("varied calls do not trigger", func(t *testing.T) {
		d := NewRepeatDetector(4)
		feedCalls(d,
			[2]string{"grep", `{"q":"a"}`},
			[2]string{"grep", `{"q":"b"}`},
			[2]string{"grep", `{"q":"c"}`},
			[2]string{"grep", `{"q":"d"}`},
		)
		got := d.TransformAfterIteration(IterationContext{}, history)
		if len(got) != 1 {
			t.Error("expected no warning for varied calls")
		}
	})

	t.Run("warns only once", func(t *testing.T) {
		d := NewRepeatDetector(3)
		feedCalls(d,
			[2]string{"x", `{}`},
			[2]string{"x", `{}`},
			[2]string{"x", `{}`},
		)
		first := d.TransformAfterIteration(IterationContext{}, history)
		second := d.TransformAfterIteration(IterationContext{}, first)
		if len(second) != len(first) {
			t.Error("expected at most one injected warning per run")
		}
	})

	t.Run("emits an event when wired", func(t *testing.T) {
		emitter := NewEventEmitter("run-1", 8)
		d := NewRepeatDetector(3).WithEmitter(emitter)
		feedCalls(d,
			[2]string{"x", `{}`},
			[2]string{"x", `{}`},
			[2]string{"x", `{}`},
		)
		d.TransformAfterIteration(IterationContext{Iteration: 3}, history)
		select {
		case evt := <-emitter.Events():
			if evt.Kind != EventRepeatWarning {
				t.Errorf("expected repeat warning event, got %s", evt.Kind)
			}
		default:
			t.Error("expected an event on the channel")
		}
	})
}
