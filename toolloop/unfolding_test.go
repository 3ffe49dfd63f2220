package toolloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/martinemde/agentkit/unifiedllm"
)

func namedTools(names ...string) []Tool {
	tools := make([]Tool, len(names))
	for i, name := range names {
		tools[i] = echoTool(name)
	}
	return tools
}

func disclosedNames(d *Disclosure) []string {
	names := make([]string, len(d.Tools))
	for i, tool := range d.Tools {
		names[i] = tool.Definition().Name
	}
	return names
}

func TestUnfoldingTool(t *testing.T) {
	t.Run("empty group fails at construction", func(t *testing.T) {
		_, err := NewUnfolding("empty", "nothing inside", nil)
		if !errors.Is(err, ErrEmptyUnfoldGroup) {
			t.Fatalf("expected ErrEmptyUnfoldGroup, got %v", err)
		}
		_, err = NewCategoryUnfolding("empty", "nothing inside", map[string][]Tool{"cat": {}})
		if !errors.Is(err, ErrEmptyUnfoldGroup) {
			t.Fatalf("expected ErrEmptyUnfoldGroup for empty categories, got %v", err)
		}
	})

	t.Run("discloses all inner tools and removes itself", func(t *testing.T) {
		u, err := NewUnfolding("toolbox", "opens the toolbox", namedTools("hammer", "saw"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := u.Call(context.Background(), "{}")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Disclosure == nil {
			t.Fatal("expected disclosure")
		}
		if !res.Disclosure.RemoveFacade {
			t.Error("expected facade removal by default")
		}
		if len(res.Disclosure.Tools) != 2 {
			t.Errorf("expected 2 disclosed tools, got %d", len(res.Disclosure.Tools))
		}
		if !strings.Contains(res.Text, "hammer") || !strings.Contains(res.Text, "saw") {
			t.Errorf("expected disclosed names in summary, got %q", res.Text)
		}
	})

	t.Run("facade can stay registered", func(t *testing.T) {
		u, err := NewUnfolding("toolbox", "opens the toolbox", namedTools("hammer"), WithRemoveOnInvoke(false))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, _ := u.Call(context.Background(), "{}")
		if res.Disclosure.RemoveFacade {
			t.Error("expected facade to stay")
		}
	})

	t.Run("repeat invocations are independent", func(t *testing.T) {
		u, err := NewUnfolding("toolbox", "opens the toolbox", namedTools("hammer", "saw"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first, _ := u.Call(context.Background(), "{}")
		second, _ := u.Call(context.Background(), "{}")
		if len(first.Disclosure.Tools) != len(second.Disclosure.Tools) {
			t.Error("expected identical disclosures on repeat invocation")
		}
	})

	t.Run("category selection", func(t *testing.T) {
		u, err := NewCategoryUnfolding("toolbox", "opens a category", map[string][]Tool{
			"wood":  namedTools("saw", "plane"),
			"metal": namedTools("file"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		res, _ := u.Call(context.Background(), `{"category":"metal"}`)
		names := disclosedNames(res.Disclosure)
		if len(names) != 1 || names[0] != "file" {
			t.Errorf("expected [file], got %v", names)
		}
	})

	t.Run("category schema advertises the enum", func(t *testing.T) {
		u, err := NewCategoryUnfolding("toolbox", "opens a category", map[string][]Tool{
			"wood": namedTools("saw"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		doc := u.Definition().Schema.JSONSchema()
		props, ok := doc["properties"].(map[string]interface{})
		if !ok {
			t.Fatal("expected properties in schema")
		}
		if _, ok := props["category"]; !ok {
			t.Error("expected category parameter")
		}
	})

	t.Run("malformed selector falls back to full set", func(t *testing.T) {
		u, err := NewCategoryUnfolding("toolbox", "opens a category", map[string][]Tool{
			"wood":  namedTools("saw"),
			"metal": namedTools("file"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, input := range []string{``, `not json`, `{"category":7}`, `{"other":"wood"}`} {
			res, _ := u.Call(context.Background(), input)
			if len(res.Disclosure.Tools) != 2 {
				t.Errorf("input %q: expected full set fallback, got %d tools", input, len(res.Disclosure.Tools))
			}
		}
	})

	t.Run("unknown category falls back to full set", func(t *testing.T) {
		u, err := NewCategoryUnfolding("toolbox", "opens a category", map[string][]Tool{
			"wood": namedTools("saw"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, _ := u.Call(context.Background(), `{"category":"plastic"}`)
		if len(res.Disclosure.Tools) != 1 {
			t.Errorf("expected fallback to all tools, got %d", len(res.Disclosure.Tools))
		}
	})

	t.Run("groups synthesize an all category", func(t *testing.T) {
		u, err := NewUnfoldingFromGroups("toolbox", "grouped tools",
			map[string][]Tool{"wood": namedTools("saw")},
			namedTools("tape"),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, _ := u.Call(context.Background(), `{"category":"all"}`)
		names := disclosedNames(res.Disclosure)
		if len(names) != 2 {
			t.Errorf("expected saw and tape under all, got %v", names)
		}
	})
}

// TestUnfoldingInLoop exercises disclosure through a full engine run: the
// model calls the facade with an unknown category, gets every inner tool,
// and uses one in the same iteration.
func TestUnfoldingInLoop(t *testing.T) {
	var inner []Tool
	for i := 0; i < 10; i++ {
		inner = append(inner, echoTool(fmt.Sprintf("tool_%d", i)))
	}
	u, err := NewCategoryUnfolding("toolbox", "opens a category", map[string][]Tool{
		"evens": inner[0:5],
		"odds":  inner[5:10],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boundary := &scriptedBoundary{responses: []*unifiedllm.Response{
		toolCallResponse(
			call("c1", "toolbox", `{"category":"no_such_category"}`),
			call("c2", "tool_7", `{}`),
		),
		textResponse("done"),
	}}
	engine := NewEngine(boundary)
	reg := NewRegistry(u)

	result, err := engine.Run(context.Background(), RunRequest{
		History: []unifiedllm.Message{unifiedllm.UserMessage("go")},
		Tools:   reg,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Invocations) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(result.Invocations))
	}
	// The unknown category fell back to the full set, so tool_7 resolved
	// mid-iteration.
	if result.Invocations[1].Name != "tool_7" || result.Invocations[1].IsError {
		t.Errorf("expected successful tool_7 call, got %+v", result.Invocations[1])
	}
	if reg.Get("toolbox") != nil {
		t.Error("expected facade removed after disclosure")
	}
	if reg.Count() != 10 {
		t.Errorf("expected all 10 inner tools registered, got %d", reg.Count())
	}
}
