package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// GetCaseContextTool reads the current case_details snapshot.
type GetCaseContextTool struct {
	adapter *casestore.Adapter
}

func NewGetCaseContextTool(adapter *casestore.Adapter) *GetCaseContextTool {
	return &GetCaseContextTool{adapter: adapter}
}

func (t *GetCaseContextTool) Name() string { return "get_case_context" }

func (t *GetCaseContextTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "get_case_context",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string", "description": "identificatorul cazului"}
			},
			"required": ["case_id"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrNotFound, models.ErrTransientBackend},
		PIICapable:    false,
		Idempotent:    true,
	}
}

type caseIDInput struct {
	CaseID string `json:"case_id"`
}

func (t *GetCaseContextTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in caseIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid get_case_context input: "+err.Error(), false)
	}

	details, err := t.adapter.LoadDetailsOnly(ctx, in.CaseID)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("load case context failed: %v", err), true)
	}

	return models.Success(details)
}

// UpdateCaseContextTool applies dot-path mutations to case_details.
type UpdateCaseContextTool struct {
	adapter *casestore.Adapter
}

func NewUpdateCaseContextTool(adapter *casestore.Adapter) *UpdateCaseContextTool {
	return &UpdateCaseContextTool{adapter: adapter}
}

func (t *UpdateCaseContextTool) Name() string { return "update_case_context" }

func (t *UpdateCaseContextTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "update_case_context",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string"},
				"updates": {
					"type": "array",
					"description": "lista de modificări, fiecare cu o cale punctată, valoarea nouă și un indicator opțional de înlocuire",
					"items": {
						"type": "object",
						"properties": {
							"path": {"type": "string"},
							"value": {},
							"replace": {"type": "boolean"}
						},
						"required": ["path", "value"]
					}
				},
				"note": {"type": "string", "description": "scurtă explicație a modificării, pentru jurnal"}
			},
			"required": ["case_id", "updates"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrInvalidInput, models.ErrTransientBackend},
		PIICapable:    false,
		Idempotent:    false,
	}
}

type updateEntry struct {
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Replace bool   `json:"replace"`
}

type updateCaseContextInput struct {
	CaseID  string        `json:"case_id"`
	Updates []updateEntry `json:"updates"`
	Note    string        `json:"note"`
}

func (t *UpdateCaseContextTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in updateCaseContextInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid update_case_context input: "+err.Error(), false)
	}

	updates := make([]casestore.Update, 0, len(in.Updates))
	for _, u := range in.Updates {
		updates = append(updates, casestore.Update{Path: u.Path, Value: u.Value, Replace: u.Replace})
	}

	if err := t.adapter.ApplyUpdates(ctx, in.CaseID, updates, in.Note); err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("apply_updates failed: %v", err), true)
	}

	return models.Success(struct {
		OK bool `json:"ok"`
	}{OK: true})
}
