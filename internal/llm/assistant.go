package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lexorch/agent/internal/piiguard"
	"github.com/lexorch/agent/internal/retry"
	"github.com/lexorch/agent/pkg/models"
)

// AssistantConfig configures the tool-calling Assistant client.
type AssistantConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int
}

// AssistantClient drives fact-gathering, planning, and drafting turns via
// the tool-calling model. It never forwards party PII in a prompt: every
// outgoing request is scanned by piiguard first.
type AssistantClient struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int
}

// NewAssistantClient constructs an Assistant client. It returns ErrNoAPIKey
// when no credential is configured.
func NewAssistantClient(cfg AssistantConfig) (*AssistantClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AssistantClient{
		client:       anthropic.NewClient(options...),
		defaultModel: model,
		maxTokens:    maxTokens,
	}, nil
}

// Name identifies this client for logging and escalation messages.
func (c *AssistantClient) Name() string { return "assistant" }

// Generate issues a single synchronous completion call. Unlike the agentic
// loop this is grounded on, it never streams: a node calls it once per
// orchestration step and interprets the result as either a reply or a set
// of tool calls to execute before looping back.
func (c *AssistantClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := piiguard.ScanOutgoingPrompt(req.System, req.AttachedPartyValues, promptTexts(req.Messages)...); err != nil {
		return nil, err
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("assistant: convert messages: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.defaultModel),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("assistant: convert tools: %w", err)
		}
		params.Tools = tools
	}

	resp, result := retry.DoWithValue(ctx, retry.TransientBackendConfig(), func() (*anthropic.Message, error) {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, classifyAnthropicErr(err)
		}
		return msg, nil
	})
	if result.Err != nil {
		return nil, fmt.Errorf("assistant: generate: %w", result.Err)
	}

	return messageToResponse(resp)
}

// classifyAnthropicErr marks errors that the Anthropic SDK reports as
// client-side (4xx other than 429) as permanent, so the retry loop does not
// waste attempts on requests that will never succeed.
func classifyAnthropicErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if ok := asAnthropicError(err, &apiErr); ok {
		switch apiErr.StatusCode {
		case 400, 401, 403, 404, 422:
			return retry.Permanent(err)
		}
	}
	return err
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	ae, ok := err.(*anthropic.Error)
	if ok {
		*target = ae
	}
	return ok
}

func messageToResponse(msg *anthropic.Message) (*GenerateResponse, error) {
	resp := &GenerateResponse{}
	var text strings.Builder

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			tu := block.AsToolUse()
			input, err := json.Marshal(tu.Input)
			if err != nil {
				return nil, fmt.Errorf("assistant: encode tool_use input: %w", err)
			}
			resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
				ID:    tu.ID,
				Name:  tu.Name,
				Input: input,
			})
		}
	}

	resp.Text = text.String()
	return resp, nil
}

// promptTexts flattens a message history into the plain-text fragments a
// piiguard scan should inspect: message content and any tool-result
// payloads, but not tool-call input (which is Assistant-authored, not
// derived from case data).
func promptTexts(messages []Message) []string {
	var texts []string
	for _, msg := range messages {
		if msg.Content != "" {
			texts = append(texts, msg.Content)
		}
		for _, tr := range msg.ToolResults {
			texts = append(texts, string(tr.Value))
		}
	}
	return texts
}

func convertMessages(messages []Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}

		for _, tr := range msg.ToolResults {
			content = append(content, anthropic.NewToolResultBlock(tr.ToolCallID, string(tr.Value), !tr.OK))
		}

		for _, tc := range msg.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(tc.Input, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call input for %q: %w", tc.Name, err)
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if msg.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}

	return result, nil
}

func convertTools(tools []models.ToolDescriptor) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam

	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.ParameterSchema, &schema); err != nil {
			return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", t.Name, err)
		}
		result = append(result, anthropic.ToolUnionParamOfTool(schema, t.Name))
	}

	return result, nil
}
