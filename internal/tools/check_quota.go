package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexorch/agent/pkg/models"
)

// CheckQuotaTool is a pure read from the billing collaborator: does the
// owner have quota or an active payment for this tier.
type CheckQuotaTool struct {
	billing BillingClient
}

func NewCheckQuotaTool(billing BillingClient) *CheckQuotaTool {
	return &CheckQuotaTool{billing: billing}
}

func (t *CheckQuotaTool) Name() string { return "check_quota" }

func (t *CheckQuotaTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "check_quota",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"owner_id": {"type": "string", "description": "id-ul titularului cazului"},
				"tier": {"type": "integer", "enum": [1, 2, 3], "description": "nivelul de complexitate al cazului"}
			},
			"required": ["owner_id", "tier"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrTransientBackend, models.ErrInvalidInput},
		PIICapable:    false,
		Idempotent:    true,
	}
}

type checkQuotaInput struct {
	OwnerID string `json:"owner_id"`
	Tier    int    `json:"tier"`
}

func (t *CheckQuotaTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	var in checkQuotaInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid check_quota input: "+err.Error(), false)
	}

	ok, err := t.billing.CheckQuota(ctx, in.OwnerID, models.Tier(in.Tier))
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("billing lookup failed: %v", err), true)
	}

	return models.Success(struct {
		HasQuota bool `json:"has_quota"`
	}{HasQuota: ok})
}
