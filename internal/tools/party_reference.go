package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/storage"
	"github.com/lexorch/agent/pkg/models"
)

// GetPartyIDByReferenceTool resolves a user-supplied free-text reference
// against the parties already attached to a case. It never searches
// outside attached_parties, so a reference cannot be used to enumerate
// other cases' parties.
type GetPartyIDByReferenceTool struct {
	adapter *casestore.Adapter
	finder  PartyFinder
}

func NewGetPartyIDByReferenceTool(adapter *casestore.Adapter, finder PartyFinder) *GetPartyIDByReferenceTool {
	return &GetPartyIDByReferenceTool{adapter: adapter, finder: finder}
}

func (t *GetPartyIDByReferenceTool) Name() string { return "get_party_id_by_reference" }

func (t *GetPartyIDByReferenceTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "get_party_id_by_reference",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string"},
				"reference": {"type": "string", "description": "cum a numit utilizatorul partea, de exemplu un nume sau un email"}
			},
			"required": ["case_id", "reference"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrNotFound, models.ErrTransientBackend},
		PIICapable:    false,
		Idempotent:    true,
	}
}

type getPartyIDInput struct {
	CaseID    string `json:"case_id"`
	Reference string `json:"reference"`
}

func (t *GetPartyIDByReferenceTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in getPartyIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid get_party_id_by_reference input: "+err.Error(), false)
	}

	snapshot, err := t.adapter.Load(ctx, in.CaseID)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("load case failed: %v", err), true)
	}

	ids := make([]string, 0, len(snapshot.Case.AttachedParties))
	for _, p := range snapshot.Case.AttachedParties {
		ids = append(ids, p.PartyID)
	}

	partyID, err := t.finder.FindByReference(ctx, ids, in.Reference)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Success(struct {
			NotFound bool `json:"not_found"`
		}{NotFound: true})
	}
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("resolve party reference failed: %v", err), true)
	}

	return models.Success(struct {
		PartyID string `json:"party_id"`
	}{PartyID: partyID})
}
