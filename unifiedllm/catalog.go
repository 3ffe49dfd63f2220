package unifiedllm

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID                string   `json:"id"`
	Provider          string   `json:"provider"`
	DisplayName       string   `json:"display_name"`
	ContextWindow     int      `json:"context_window"`
	MaxOutput         int      `json:"max_output,omitempty"`
	SupportsTools     bool     `json:"supports_tools"`
	SupportsReasoning bool     `json:"supports_reasoning"`
	Aliases           []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog, ordered newest-first per provider.
// Agentic tool selection criteria resolve against this catalog.
var Models = []ModelInfo{
	// Anthropic
	{
		ID: "claude-opus-4-6", Provider: "anthropic", DisplayName: "Claude Opus 4.6",
		ContextWindow: 200000, MaxOutput: 32768,
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5",
		ContextWindow: 200000, MaxOutput: 16384,
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},
	{
		ID: "claude-haiku-4-5", Provider: "anthropic", DisplayName: "Claude Haiku 4.5",
		ContextWindow: 200000, MaxOutput: 8192,
		SupportsTools: true, SupportsReasoning: false,
		Aliases: []string{"haiku", "claude-haiku"},
	},

	// OpenAI
	{
		ID: "gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2",
		ContextWindow: 1047576, MaxOutput: 32768,
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: "openai", DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, MaxOutput: 16384,
		SupportsTools: true, SupportsReasoning: true,
		Aliases: []string{"gpt5-mini"},
	},
	{
		ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o Mini",
		ContextWindow: 128000, MaxOutput: 16384,
		SupportsTools: true, SupportsReasoning: false,
		Aliases: []string{"4o-mini"},
	},

	// Ollama (local)
	{
		ID: "llama3.3", Provider: "ollama", DisplayName: "Llama 3.3",
		ContextWindow: 128000, MaxOutput: 8192,
		SupportsTools: true, SupportsReasoning: false,
		Aliases: []string{"llama"},
	},
}

// GetModelInfo looks up a model by ID or alias.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// ListModels returns all catalog entries for a provider, or all entries when
// provider is empty.
func ListModels(provider string) []ModelInfo {
	if provider == "" {
		out := make([]ModelInfo, len(Models))
		copy(out, Models)
		return out
	}
	var out []ModelInfo
	for _, m := range Models {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// GetLatestModel returns the newest catalog model for a provider that has
// the requested capability ("", "tools", or "reasoning").
func GetLatestModel(provider string, capability string) *ModelInfo {
	for i := range Models {
		if provider != "" && Models[i].Provider != provider {
			continue
		}
		switch capability {
		case "":
			return &Models[i]
		case "tools":
			if Models[i].SupportsTools {
				return &Models[i]
			}
		case "reasoning":
			if Models[i].SupportsReasoning {
				return &Models[i]
			}
		}
	}
	return nil
}
