package llm

import (
	"context"
	"fmt"
)

// Translate converts a Romanian-authored reply into the case owner's
// preferred language via the Assistant client. System-facing reasoning
// stays Romanian throughout; only the final user-facing text is ever
// translated.
func Translate(ctx context.Context, assistant *AssistantClient, text, targetLanguage string) (string, error) {
	if targetLanguage == "" || targetLanguage == "ro" {
		return text, nil
	}

	resp, err := assistant.Generate(ctx, &GenerateRequest{
		System: fmt.Sprintf(
			"Traduci textul primit, fără comentarii suplimentare, în limba cu codul %q. "+
				"Păstrează formatarea markdown și orice substituent de forma {{partyN.field}} neschimbat.",
			targetLanguage,
		),
		Messages:  []Message{{Role: "user", Content: text}},
		MaxTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("llm: translate: %w", err)
	}

	return resp.Text, nil
}
