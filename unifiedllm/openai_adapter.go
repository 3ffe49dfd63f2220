package unifiedllm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIAdapter speaks the Chat Completions API directly through the
// official SDK. Unlike GollmAdapter's flattened-prompt translation, it
// preserves structured tool calls and tool results across turns, which the
// tool loop engine relies on for multi-iteration runs.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// OpenAIAdapterOption configures an OpenAIAdapter.
type OpenAIAdapterOption func(*openaiAdapterConfig)

type openaiAdapterConfig struct {
	apiKey  string
	baseURL string
	headers map[string]string
}

// WithOpenAIAPIKey sets the API key. When empty the SDK reads
// OPENAI_API_KEY from the environment.
func WithOpenAIAPIKey(key string) OpenAIAdapterOption {
	return func(c *openaiAdapterConfig) { c.apiKey = key }
}

// WithOpenAIBaseURL points the adapter at an OpenAI-compatible endpoint
// (LM Studio, vLLM, a proxy).
func WithOpenAIBaseURL(url string) OpenAIAdapterOption {
	return func(c *openaiAdapterConfig) { c.baseURL = url }
}

// WithOpenAIHeader adds a custom header to every request.
func WithOpenAIHeader(key, value string) OpenAIAdapterOption {
	return func(c *openaiAdapterConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// NewOpenAIAdapter creates an adapter with the given default model.
func NewOpenAIAdapter(model string, opts ...OpenAIAdapterOption) *OpenAIAdapter {
	cfg := openaiAdapterConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var clientOpts []option.RequestOption
	if cfg.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	for k, v := range cfg.headers {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}

	if model == "" {
		if info := GetLatestModel("openai", "tools"); info != nil {
			model = info.ID
		}
	}

	return &OpenAIAdapter{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string { return "openai" }

// Complete sends a blocking chat completion request.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	params := a.buildParams(req)

	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &ProviderError{
			SDKError:  SDKError{Message: "chat completion failed", Cause: err},
			Provider:  "openai",
			Retryable: true,
		}
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{
			SDKError: SDKError{Message: "chat completion returned no choices"},
			Provider: "openai",
		}
	}

	choice := completion.Choices[0]

	var parts []ContentPart
	if choice.Message.Content != "" {
		parts = append(parts, TextPart(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, ToolCallPart(tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments)))
	}

	reason := string(choice.FinishReason)
	mapped := "stop"
	switch reason {
	case "tool_calls", "function_call":
		mapped = "tool_calls"
	case "length":
		mapped = "length"
	case "content_filter":
		mapped = "content_filter"
	}

	return &Response{
		ID:       completion.ID,
		Model:    completion.Model,
		Provider: "openai",
		Message: Message{
			Role:    RoleAssistant,
			Content: parts,
		},
		FinishReason: FinishReason{Reason: mapped, Raw: reason},
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

// Stream completes the request and emits it as one text delta plus a finish
// event. Ordering for the single produced response matches Complete.
func (a *OpenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	ch := make(chan StreamEvent, 8)
	go func() {
		defer close(ch)
		ch <- StreamEvent{Type: StreamStart}

		resp, err := a.Complete(ctx, req)
		if err != nil {
			ch <- StreamEvent{Type: StreamError, Error: err}
			return
		}

		if text := resp.Text(); text != "" {
			textID := "text_0"
			ch <- StreamEvent{Type: TextStart, TextID: textID}
			ch <- StreamEvent{Type: TextDelta, Delta: text, TextID: textID}
			ch <- StreamEvent{Type: TextEnd, TextID: textID}
		}

		ch <- StreamEvent{
			Type:         StreamFinish,
			FinishReason: &resp.FinishReason,
			Usage:        &resp.Usage,
			Response:     resp,
		}
	}()
	return ch, nil
}

// buildParams converts a unified Request into chat completion params.
func (a *OpenAIAdapter) buildParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{}

	model := req.Model
	if model == "" {
		model = a.model
	}
	params.Model = model

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.TextContent()))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.TextContent()))
		case RoleAssistant:
			params.Messages = append(params.Messages, convertAssistantMessage(msg))
		case RoleTool:
			content, callID := toolResultText(msg)
			params.Messages = append(params.Messages, openai.ToolMessage(content, callID))
		}
	}

	for _, t := range req.ToolDefs {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}

	if len(params.Tools) > 0 {
		mode := "auto"
		if req.ToolChoice != nil && req.ToolChoice.Mode != "" && req.ToolChoice.Mode != "named" {
			mode = req.ToolChoice.Mode
		}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(mode),
		}
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	return params
}

func convertAssistantMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{
		Role: "assistant",
	}

	if text := msg.TextContent(); text != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(text),
		}
	}

	for _, tc := range msg.ToolCalls() {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			},
		})
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func toolResultText(msg Message) (content, callID string) {
	callID = msg.ToolCallID
	for _, part := range msg.Content {
		if part.Kind != ContentToolResult || part.ToolResult == nil {
			continue
		}
		if callID == "" {
			callID = part.ToolResult.ToolCallID
		}
		var s string
		if err := json.Unmarshal(part.ToolResult.Content, &s); err == nil {
			content += s
		} else {
			content += string(part.ToolResult.Content)
		}
	}
	if content == "" {
		content = "(no output)"
	}
	return content, callID
}
