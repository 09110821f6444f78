package llm

import "context"

// ReasonerConsultant adapts ReasonerClient to the narrow Ask shape the
// consult_reasoner and handle-error nodes depend on, keeping the richer
// GenerateRequest/GenerateResponse contract internal to this package.
type ReasonerConsultant struct {
	client *ReasonerClient
}

// NewReasonerConsultant wraps client for use as a tools.Reasoner.
func NewReasonerConsultant(client *ReasonerClient) *ReasonerConsultant {
	return &ReasonerConsultant{client: client}
}

// Ask sends the case context and a single question to the reasoning model
// and returns its plain-text answer. partyValues is passed through to
// Generate unchanged, for its piiguard leak check only.
func (r *ReasonerConsultant) Ask(ctx context.Context, caseContext string, partyValues []string, question string) (string, error) {
	req := &GenerateRequest{
		System: "Ești un consilier juridic auxiliar. Răspunde concis, în română, pe baza contextului dosarului furnizat. Nu inventa fapte care nu apar în context.",
		Messages: []Message{
			{Role: "user", Content: caseContext + "\n\nÎntrebare: " + question},
		},
		MaxTokens:           1024,
		AttachedPartyValues: partyValues,
	}
	resp, err := r.client.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
