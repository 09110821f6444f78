package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexorch/agent/pkg/models"
)

// ConsultReasonerTool is a thin wrapper over the Reasoner client, used both
// by the plan node's ordinary strategy questions and by the error ladder's
// second escalation step.
type ConsultReasonerTool struct {
	reasoner    Reasoner
	partyValues PartyValueReader
}

// NewConsultReasonerTool wires reasoner for the actual consult and, if
// partyValues is non-nil, resolves the case's attached parties' real field
// values fresh on every call so the underlying Generate can diff them
// against the outgoing prompt — the caller-supplied party_ids are never
// trusted for anything beyond "which parties to look up".
func NewConsultReasonerTool(reasoner Reasoner, partyValues PartyValueReader) *ConsultReasonerTool {
	return &ConsultReasonerTool{reasoner: reasoner, partyValues: partyValues}
}

func (t *ConsultReasonerTool) Name() string { return "consult_reasoner" }

func (t *ConsultReasonerTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "consult_reasoner",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string"},
				"context": {"type": "string", "description": "rezumat sintetizat al situației, fără date cu caracter personal"},
				"question": {"type": "string", "description": "întrebarea specifică adresată modelului de raționament"},
				"party_ids": {"type": "array", "items": {"type": "string"}, "description": "id-urile părților atașate cazului, pentru verificarea scurgerilor de date cu caracter personal"}
			},
			"required": ["case_id", "context", "question"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrTransientBackend, models.ErrPIIViolation},
		PIICapable:    false,
		Idempotent:    true,
	}
}

type consultReasonerInput struct {
	CaseID   string   `json:"case_id"`
	Context  string   `json:"context"`
	Question string   `json:"question"`
	PartyIDs []string `json:"party_ids"`
}

func (t *ConsultReasonerTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in consultReasonerInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid consult_reasoner input: "+err.Error(), false)
	}

	var partyValues []string
	if t.partyValues != nil && len(in.PartyIDs) > 0 {
		values, err := t.partyValues.ValuesForParties(ctx, in.PartyIDs)
		if err != nil {
			return models.Failure(models.ErrTransientBackend, fmt.Sprintf("resolve party values failed: %v", err), true)
		}
		partyValues = values
	}

	response, err := t.reasoner.Ask(ctx, in.Context, partyValues, in.Question)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("reasoner consult failed: %v", err), true)
	}

	return models.Success(struct {
		Response string `json:"response"`
	}{Response: response})
}
