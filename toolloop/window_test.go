package toolloop

import (
	"testing"

	"github.com/martinemde/agentkit/unifiedllm"
)

func TestWindowTransformer(t *testing.T) {
	t.Run("under cap passes through", func(t *testing.T) {
		w := NewWindowTransformer(5)
		history := []unifiedllm.Message{
			unifiedllm.UserMessage("one"),
			unifiedllm.AssistantMessage("two"),
		}
		got := w.TransformBeforeCall(PreCallContext{}, history)
		if len(got) != 2 {
			t.Errorf("expected 2 messages, got %d", len(got))
		}
	})

	t.Run("over cap keeps most recent", func(t *testing.T) {
		w := NewWindowTransformer(2)
		history := []unifiedllm.Message{
			unifiedllm.UserMessage("one"),
			unifiedllm.AssistantMessage("two"),
			unifiedllm.UserMessage("three"),
			unifiedllm.AssistantMessage("four"),
		}
		got := w.TransformBeforeCall(PreCallContext{}, history)
		if len(got) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(got))
		}
		if got[0].TextContent() != "three" || got[1].TextContent() != "four" {
			t.Errorf("expected most recent two, got %q %q", got[0].TextContent(), got[1].TextContent())
		}
	})

	t.Run("system messages always survive", func(t *testing.T) {
		w := NewWindowTransformer(3)
		history := []unifiedllm.Message{
			unifiedllm.SystemMessage("rules"),
			unifiedllm.UserMessage("one"),
			unifiedllm.AssistantMessage("two"),
			unifiedllm.SystemMessage("more rules"),
			unifiedllm.UserMessage("three"),
		}
		got := w.TransformBeforeCall(PreCallContext{}, history)
		if len(got) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(got))
		}
		if !got[0].IsSystem() || !got[1].IsSystem() {
			t.Error("expected both system messages to survive")
		}
		if got[2].TextContent() != "three" {
			t.Errorf("expected most recent non-system message, got %q", got[2].TextContent())
		}
	})

	t.Run("system messages may exceed the cap", func(t *testing.T) {
		w := NewWindowTransformer(2)
		history := []unifiedllm.Message{
			unifiedllm.SystemMessage("a"),
			unifiedllm.SystemMessage("b"),
			unifiedllm.SystemMessage("c"),
			unifiedllm.UserMessage("one"),
		}
		got := w.TransformBeforeCall(PreCallContext{}, history)
		if len(got) != 3 {
			t.Fatalf("expected all 3 system messages despite cap of 2, got %d messages", len(got))
		}
		for _, msg := range got {
			if !msg.IsSystem() {
				t.Errorf("expected only system messages, got role %s", msg.Role)
			}
		}
	})

	t.Run("without system preservation", func(t *testing.T) {
		w := NewWindowTransformer(2, WithoutSystemPreservation())
		history := []unifiedllm.Message{
			unifiedllm.SystemMessage("rules"),
			unifiedllm.UserMessage("one"),
			unifiedllm.AssistantMessage("two"),
		}
		got := w.TransformBeforeCall(PreCallContext{}, history)
		if len(got) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(got))
		}
		if got[0].IsSystem() {
			t.Error("expected system message dropped")
		}
	})

	t.Run("applies after iteration too", func(t *testing.T) {
		w := NewWindowTransformer(1)
		history := []unifiedllm.Message{
			unifiedllm.UserMessage("one"),
			unifiedllm.UserMessage("two"),
		}
		got := w.TransformAfterIteration(IterationContext{}, history)
		if len(got) != 1 || got[0].TextContent() != "two" {
			t.Errorf("expected [two], got %d messages", len(got))
		}
	})
}
