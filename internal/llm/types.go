// Package llm implements the LLM Client Pair: a tool-calling Assistant model
// client and a text-only Reasoner model client, sharing a single Generate
// contract (SPEC_FULL.md §4.3).
package llm

import (
	"context"
	"errors"

	"github.com/lexorch/agent/pkg/models"
)

// ErrNoAPIKey is returned when a client is constructed without credentials.
var ErrNoAPIKey = errors.New("llm: API key is required")

// Message is one turn of conversation history fed to a model.
type Message struct {
	Role        string             // "user", "assistant", "tool"
	Content     string
	ToolCalls   []models.ToolCall
	ToolResults []models.ToolResult
}

// GenerateRequest carries a system prompt, running history, and — for
// tool-capable clients — the tool schema to offer the model.
type GenerateRequest struct {
	// SessionID is the provider-side conversation/session identifier to
	// reuse, persisted on models.Case rather than held in process memory.
	SessionID string

	System    string
	Messages  []Message
	Tools     []models.ToolDescriptor
	MaxTokens int

	// AttachedPartyValues is the flat bag of real PII values on file for
	// the case's attached parties (see tools.PartyValueReader). It is
	// never itself prompt content: Generate diffs it against System and
	// Messages via piiguard.ScanOutgoingPrompt and fails the call if any
	// value appears verbatim.
	AttachedPartyValues []string
}

// GenerateResponse is either a final text reply or a set of tool calls to
// execute; Reasoner responses never populate ToolCalls.
type GenerateResponse struct {
	Text      string
	ToolCalls []models.ToolCall
	SessionID string
}

// Client is the shared generate contract both the Assistant and Reasoner
// implement.
type Client interface {
	// Generate issues one completion call, after redacting the outgoing
	// request against internal/piiguard.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	Name() string
}
