package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lexorch/agent/internal/llm"
	"github.com/lexorch/agent/pkg/models"
)

// askAssistantJSON issues one Assistant completion constrained by systemPrompt
// and decodes its text response as JSON into target. The tier-decide and
// plan nodes go through this so the "respond with JSON only" contract and
// fence-stripping live in one place.
// partyValues is the case's attached-party PII bag, forwarded only for
// Generate's piiguard leak check — it is never part of userContent.
func askAssistantJSON(ctx context.Context, client llm.Client, systemPrompt, userContent string, partyValues []string, target any) error {
	resp, err := client.Generate(ctx, &llm.GenerateRequest{
		System:              systemPrompt,
		Messages:            []llm.Message{{Role: "user", Content: userContent}},
		MaxTokens:           2048,
		AttachedPartyValues: partyValues,
	})
	if err != nil {
		return fmt.Errorf("assistant call failed: %w", err)
	}
	text := stripJSONFence(resp.Text)
	if err := json.Unmarshal([]byte(text), target); err != nil {
		return fmt.Errorf("assistant returned non-JSON response: %w", err)
	}
	return nil
}

// stripJSONFence removes a leading/trailing ```json fence, a common model
// habit that would otherwise fail json.Unmarshal.
func stripJSONFence(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

// attachedPartyValues fetches the real PII values on file for every party
// attached to c, for piiguard's leak check only — never to be threaded
// into a prompt or draft. Returns (nil, nil) when no PartyValueReader is
// wired or the case has no attached parties, rather than treating either
// as an error: most cases never attach a party at all.
func attachedPartyValues(ctx context.Context, deps *Deps, c *models.Case) ([]string, error) {
	if deps.PartyValues == nil || len(c.AttachedParties) == 0 {
		return nil, nil
	}
	ids := make([]string, len(c.AttachedParties))
	for i, p := range c.AttachedParties {
		ids[i] = p.PartyID
	}
	return deps.PartyValues.ValuesForParties(ctx, ids)
}

// callTool marshals args and runs the named tool through the executor,
// returning the normalized tool result.
func callTool(ctx context.Context, deps *Deps, name string, args any) (models.ToolResult, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return models.ToolResult{}, fmt.Errorf("encode %s args: %w", name, err)
	}
	res := deps.Tools.Execute(ctx, models.ToolCall{ID: uuid.NewString(), Name: name, Input: payload})
	return res.Result, nil
}

// contextDigest renders a plain-text summary of the case's working memory,
// the "context digest" every LLM-driven node feeds the Assistant/Reasoner
// instead of the full case_details tree. It reports overflow=true rather
// than silently truncating when the rendered digest exceeds budgetBytes;
// callers that must honor the budget strictly surface a validation error
// instead of sending a digest that drops facts.
func contextDigest(details *models.CaseDetails, budgetBytes int) (digest string, overflow bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "Rezumat: %s\n", details.Summary.Current)

	if len(details.Objectives) > 0 {
		b.WriteString("Obiective:\n")
		for _, o := range details.Objectives {
			fmt.Fprintf(&b, "- [%s] %s\n", o.Status, o.Objective)
		}
	}
	if len(details.Facts) > 0 {
		b.WriteString("Fapte:\n")
		for _, f := range details.Facts {
			fmt.Fprintf(&b, "- (%s, %.2f) %s\n", f.Source, f.Confidence, f.Fact)
		}
	}
	if len(details.LegalResearch.Legislation) > 0 || len(details.LegalResearch.Jurisprudence) > 0 {
		b.WriteString("Cercetare juridică:\n")
		for _, r := range details.LegalResearch.Legislation {
			fmt.Fprintf(&b, "- [legislație/%s] %s: %s\n", r.Status, r.Title, r.Summary)
		}
		for _, r := range details.LegalResearch.Jurisprudence {
			fmt.Fprintf(&b, "- [jurisprudență/%s] %s: %s\n", r.Status, r.Title, r.Summary)
		}
	}
	if len(details.InternalNotes) > 0 {
		b.WriteString("Note interne recente:\n")
		start := 0
		if len(details.InternalNotes) > 5 {
			start = len(details.InternalNotes) - 5
		}
		for _, n := range details.InternalNotes[start:] {
			fmt.Fprintf(&b, "- [%s] %s\n", n.Author, n.Note)
		}
	}

	digest = b.String()
	if budgetBytes > 0 && len(digest) > budgetBytes {
		return digest, true
	}
	return digest, false
}
