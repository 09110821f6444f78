package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lexorch/agent/internal/piiguard"
	"github.com/lexorch/agent/internal/retry"
)

// ReasonerConfig configures the text-only Reasoner client consulted by the
// handle-error node and by consult-reasoner when the Assistant gets stuck.
type ReasonerConfig struct {
	APIKey       string
	DefaultModel string
}

// ReasonerClient wraps the secondary reasoning model. It never calls tools:
// nodes pass it a narrowly scoped question and read back plain text.
type ReasonerClient struct {
	client       *genai.Client
	defaultModel string
}

// NewReasonerClient constructs a Reasoner client backed by Gemini.
func NewReasonerClient(ctx context.Context, cfg ReasonerConfig) (*ReasonerClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoner: create client: %w", err)
	}

	return &ReasonerClient{client: client, defaultModel: model}, nil
}

// Name identifies this client for logging and escalation messages.
func (c *ReasonerClient) Name() string { return "reasoner" }

// Generate asks the reasoning model a question and returns its plain-text
// answer. Tools on the request, if any, are ignored: the Reasoner is
// consulted for judgment calls, never for side effects.
func (c *ReasonerClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := piiguard.ScanOutgoingPrompt(req.System, req.AttachedPartyValues, promptTexts(req.Messages)...); err != nil {
		return nil, err
	}

	contents := reasonerContents(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens) // #nosec G115 -- bounded by node-level constants
	}

	resp, result := retry.DoWithValue(ctx, retry.TransientBackendConfig(), func() (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, c.defaultModel, contents, config)
	})
	if result.Err != nil {
		return nil, fmt.Errorf("reasoner: generate: %w", result.Err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
	}

	return &GenerateResponse{Text: text.String()}, nil
}

func reasonerContents(messages []Message) []*genai.Content {
	var result []*genai.Content
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return result
}
