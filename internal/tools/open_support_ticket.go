package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// OpenSupportTicketTool is the last rung of the error-escalation ladder: it
// opens a ticket with the ticketing collaborator and transitions the case
// to paused_support.
type OpenSupportTicketTool struct {
	ticketing TicketingClient
	adapter   *casestore.Adapter
}

func NewOpenSupportTicketTool(ticketing TicketingClient, adapter *casestore.Adapter) *OpenSupportTicketTool {
	return &OpenSupportTicketTool{ticketing: ticketing, adapter: adapter}
}

func (t *OpenSupportTicketTool) Name() string { return "open_support_ticket" }

func (t *OpenSupportTicketTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "open_support_ticket",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string"},
				"description": {"type": "string", "description": "descrierea problemei întâmpinate"},
				"state_snapshot": {"type": "string", "description": "opțional, un instantaneu al stării curente pentru echipa de suport"}
			},
			"required": ["case_id", "description"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrTransientBackend},
		PIICapable:    false,
		Idempotent:    false,
	}
}

type openSupportTicketInput struct {
	CaseID        string `json:"case_id"`
	Description   string `json:"description"`
	StateSnapshot string `json:"state_snapshot"`
}

func (t *OpenSupportTicketTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in openSupportTicketInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid open_support_ticket input: "+err.Error(), false)
	}

	ticketID, err := t.ticketing.OpenTicket(ctx, "case "+in.CaseID, in.Description+"\n\n"+in.StateSnapshot)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("open support ticket failed: %v", err), true)
	}

	snapshot, err := t.adapter.Load(ctx, in.CaseID)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("load case failed: %v", err), true)
	}
	if models.CanTransition(snapshot.Case.Status, models.StatusPausedSupport) {
		snapshot.Case.Status = models.StatusPausedSupport
		if err := t.adapter.SaveCase(ctx, snapshot.Case); err != nil {
			return models.Failure(models.ErrTransientBackend, fmt.Sprintf("transition to paused_support failed: %v", err), true)
		}
	}

	return models.Success(struct {
		TicketID string `json:"ticket_id"`
	}{TicketID: ticketID})
}
