package unifiedllm

import "testing"

func TestGetModelInfo(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		info := GetModelInfo("claude-sonnet-4-5")
		if info == nil {
			t.Fatal("expected catalog hit")
		}
		if info.Provider != "anthropic" {
			t.Errorf("expected anthropic, got %q", info.Provider)
		}
	})

	t.Run("by alias", func(t *testing.T) {
		info := GetModelInfo("sonnet")
		if info == nil || info.ID != "claude-sonnet-4-5" {
			t.Fatalf("expected alias resolution, got %+v", info)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		if info := GetModelInfo("no-such-model"); info != nil {
			t.Errorf("expected nil, got %+v", info)
		}
	})
}

func TestListModels(t *testing.T) {
	anthropic := ListModels("anthropic")
	if len(anthropic) == 0 {
		t.Fatal("expected anthropic models")
	}
	for _, m := range anthropic {
		if m.Provider != "anthropic" {
			t.Errorf("expected only anthropic models, got %q", m.ID)
		}
	}
	if all := ListModels(""); len(all) != len(Models) {
		t.Errorf("expected full catalog for empty provider, got %d", len(all))
	}
}

func TestGetLatestModel(t *testing.T) {
	t.Run("newest for provider", func(t *testing.T) {
		info := GetLatestModel("anthropic", "")
		if info == nil || info.Provider != "anthropic" {
			t.Fatalf("expected an anthropic model, got %+v", info)
		}
	})

	t.Run("capability filter", func(t *testing.T) {
		info := GetLatestModel("anthropic", "reasoning")
		if info == nil {
			t.Fatal("expected a reasoning model")
		}
		if !info.SupportsReasoning {
			t.Errorf("expected reasoning support, got %+v", info)
		}
	})

	t.Run("any provider", func(t *testing.T) {
		if info := GetLatestModel("", "tools"); info == nil || !info.SupportsTools {
			t.Fatalf("expected a tools-capable model, got %+v", info)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if info := GetLatestModel("no-such-provider", ""); info != nil {
			t.Errorf("expected nil, got %+v", info)
		}
	})
}
