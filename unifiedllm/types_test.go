package unifiedllm

import (
	"encoding/json"
	"testing"
)

func TestMessageHelpers(t *testing.T) {
	t.Run("text content concatenates text parts", func(t *testing.T) {
		msg := Message{
			Role: RoleAssistant,
			Content: []ContentPart{
				TextPart("Hello"),
				ToolCallPart("c1", "lookup", json.RawMessage(`{}`)),
				TextPart(" world"),
			},
		}
		if got := msg.TextContent(); got != "Hello world" {
			t.Errorf("expected %q, got %q", "Hello world", got)
		}
	})

	t.Run("tool calls extraction", func(t *testing.T) {
		msg := Message{
			Role: RoleAssistant,
			Content: []ContentPart{
				TextPart("calling"),
				ToolCallPart("c1", "alpha", json.RawMessage(`{"a":1}`)),
				ToolCallPart("c2", "beta", json.RawMessage(`{"b":2}`)),
			},
		}
		calls := msg.ToolCalls()
		if len(calls) != 2 {
			t.Fatalf("expected 2 tool calls, got %d", len(calls))
		}
		if calls[0].Name != "alpha" || calls[1].ID != "c2" {
			t.Errorf("unexpected calls: %+v", calls)
		}
	})

	t.Run("constructors set roles", func(t *testing.T) {
		if !SystemMessage("s").IsSystem() {
			t.Error("expected system role")
		}
		if UserMessage("u").Role != RoleUser {
			t.Error("expected user role")
		}
		if AssistantMessage("a").Role != RoleAssistant {
			t.Error("expected assistant role")
		}
	})

	t.Run("tool result message carries the call id", func(t *testing.T) {
		msg := ToolResultMessage("call_9", "output", true)
		if msg.Role != RoleTool || msg.ToolCallID != "call_9" {
			t.Errorf("unexpected message: %+v", msg)
		}
		if len(msg.Content) != 1 || msg.Content[0].ToolResult == nil {
			t.Fatal("expected one tool result part")
		}
		if !msg.Content[0].ToolResult.IsError {
			t.Error("expected error flag preserved")
		}
	})
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	b := Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}
	sum := a.Add(b)
	if sum.InputTokens != 11 || sum.OutputTokens != 7 || sum.TotalTokens != 18 {
		t.Errorf("unexpected sum: %+v", sum)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		Message: Message{
			Role: RoleAssistant,
			Content: []ContentPart{
				TextPart("answer"),
				ToolCallPart("c1", "lookup", json.RawMessage(`{}`)),
			},
		},
	}
	if resp.Text() != "answer" {
		t.Errorf("expected %q, got %q", "answer", resp.Text())
	}
	if len(resp.ToolCallsFromResponse()) != 1 {
		t.Error("expected one tool call")
	}
}
