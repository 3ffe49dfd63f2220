package unifiedllm

import (
	"strings"
	"testing"
)

func TestGollmAdapterToolCallParsing(t *testing.T) {
	a := &GollmAdapter{provider: "test", model: "test-model"}

	t.Run("bare array form", func(t *testing.T) {
		text := `[{"name":"get_weather","arguments":{"city":"Oslo"}}]`
		calls := a.parseToolCalls(text)
		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		if calls[0].Name != "get_weather" {
			t.Errorf("expected get_weather, got %q", calls[0].Name)
		}
		if !strings.Contains(string(calls[0].Arguments), "Oslo") {
			t.Errorf("expected arguments preserved, got %s", calls[0].Arguments)
		}
		if calls[0].ID == "" {
			t.Error("expected generated call id")
		}
	})

	t.Run("wrapped object form", func(t *testing.T) {
		text := `{"tool_calls":[{"name":"lookup","arguments":{"q":"x"}},{"name":"fetch","arguments":{}}]}`
		calls := a.parseToolCalls(text)
		if len(calls) != 2 {
			t.Fatalf("expected 2 calls, got %d", len(calls))
		}
		if calls[0].Name != "lookup" || calls[1].Name != "fetch" {
			t.Errorf("unexpected calls: %+v", calls)
		}
	})

	t.Run("plain text has no calls", func(t *testing.T) {
		if calls := a.parseToolCalls("just an answer"); calls != nil {
			t.Errorf("expected nil, got %+v", calls)
		}
	})

	t.Run("text preceding the calls is kept", func(t *testing.T) {
		text := `Let me check. [{"name":"lookup","arguments":{}}]`
		resp := a.buildResponse(Request{Model: "m"}, text)
		if resp.FinishReason.Reason != "tool_calls" {
			t.Errorf("expected tool_calls finish reason, got %q", resp.FinishReason.Reason)
		}
		if got := resp.Text(); got != "Let me check." {
			t.Errorf("expected surrounding text preserved, got %q", got)
		}
		if len(resp.ToolCallsFromResponse()) != 1 {
			t.Error("expected one tool call in response")
		}
	})

	t.Run("plain response finishes with stop", func(t *testing.T) {
		resp := a.buildResponse(Request{Model: "m"}, "final answer")
		if resp.FinishReason.Reason != "stop" {
			t.Errorf("expected stop, got %q", resp.FinishReason.Reason)
		}
		if resp.Text() != "final answer" {
			t.Errorf("unexpected text %q", resp.Text())
		}
	})
}

func TestGollmAdapterErrorTranslation(t *testing.T) {
	a := &GollmAdapter{provider: "test"}

	tests := []struct {
		msg       string
		retryable bool
	}{
		{"401 unauthorized", false},
		{"rate limit exceeded", true},
		{"500 internal server error", true},
		{"request timeout", true},
		{"context length exceeded", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := a.translateError(errStr(tt.msg))
			if err == nil {
				t.Fatal("expected error")
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("expected retryable=%v for %q", tt.retryable, tt.msg)
			}
		})
	}
}

type errStr string

func (e errStr) Error() string { return string(e) }
