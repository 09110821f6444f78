package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/piiguard"
	"github.com/lexorch/agent/pkg/models"
)

// placeholderPattern matches {{partyN.field}} references, the only form of
// party data allowed inside draft markdown submitted by the Assistant.
var placeholderPattern = regexp.MustCompile(`\{\{party(\d+)\.([a-z_]+)\}\}`)

// GenerateDraftTool is the only tool permitted to read PII: it resolves
// {{partyN.field}} placeholders against the case's attached parties and
// substitutes them before persisting the rendered document.
type GenerateDraftTool struct {
	adapter  *casestore.Adapter
	resolver PartyResolver
	objects  ObjectStore
}

func NewGenerateDraftTool(adapter *casestore.Adapter, resolver PartyResolver, objects ObjectStore) *GenerateDraftTool {
	return &GenerateDraftTool{adapter: adapter, resolver: resolver, objects: objects}
}

func (t *GenerateDraftTool) Name() string { return "generate_draft" }

func (t *GenerateDraftTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "generate_draft",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"case_id": {"type": "string"},
				"draft_name": {"type": "string", "description": "numele documentului, de exemplu notificare_prealabila"},
				"markdown": {"type": "string", "description": "conținutul documentului, folosind doar substituenți {{partyN.camp}} pentru datele părților"}
			},
			"required": ["case_id", "draft_name", "markdown"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrInvalidInput, models.ErrPIIViolation, models.ErrTransientBackend},
		PIICapable:    true,
		Idempotent:    false,
	}
}

type generateDraftInput struct {
	CaseID    string `json:"case_id"`
	DraftName string `json:"draft_name"`
	Markdown  string `json:"markdown"`
}

func (t *GenerateDraftTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in generateDraftInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid generate_draft input: "+err.Error(), false)
	}

	if findings := piiguard.Scan(in.Markdown); len(findings) > 0 {
		return models.Failure(models.ErrPIIViolation, "draft markdown contains pii-shaped content outside of a placeholder", false)
	}

	snapshot, err := t.adapter.Load(ctx, in.CaseID)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("load case failed: %v", err), true)
	}

	rendered, err := t.renderPlaceholders(ctx, snapshot.Case, in.Markdown)
	if err != nil {
		return models.Failure(models.ErrInvalidInput, err.Error(), false)
	}

	revision := snapshot.Details.NextDraftRevision(in.DraftName)
	draftID := uuid.NewString()

	objectPath, err := t.objects.Put(in.CaseID, draftID, revision, []byte(rendered))
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("persist draft failed: %v", err), true)
	}

	return models.Success(struct {
		ObjectPath string `json:"object_path"`
		DraftID    string `json:"draft_id"`
		Revision   int    `json:"revision"`
		URL        string `json:"url"`
	}{
		ObjectPath: objectPath,
		DraftID:    draftID,
		Revision:   revision,
		URL:        t.objects.SignedURL(objectPath),
	})
}

// renderPlaceholders validates every {{partyN.field}} reference against
// attached_parties before resolving it, so a reference to an unattached
// index is a fatal invalid_input rather than a silent blank substitution.
func (t *GenerateDraftTool) renderPlaceholders(ctx context.Context, c *models.Case, markdown string) (string, error) {
	attachedIDs := make([]string, len(c.AttachedParties))
	for i, p := range c.AttachedParties {
		attachedIDs[i] = p.PartyID
	}

	var renderErr error
	result := placeholderPattern.ReplaceAllStringFunc(markdown, func(match string) string {
		if renderErr != nil {
			return match
		}
		sub := placeholderPattern.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(c.AttachedParties) {
			renderErr = fmt.Errorf("placeholder %q references a party not attached to this case", match)
			return match
		}
		field := sub[2]

		values, err := t.resolver.ResolveForDraft(ctx, attachedIDs, c.AttachedParties[idx].PartyID, []string{field})
		if err != nil {
			renderErr = fmt.Errorf("resolve placeholder %q: %w", match, err)
			return match
		}
		return strings.TrimSpace(values[field])
	})

	if renderErr != nil {
		return "", renderErr
	}
	return result, nil
}
