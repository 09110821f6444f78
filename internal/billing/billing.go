// Package billing implements the check_quota collaborator as a pure read
// against a Postgres quota ledger. Stripe glue, checkout, and payment
// collection itself are out of scope (spec Non-goals); this package answers
// "does this owner have standing for this tier right now" and records
// webhook-confirmed credits (CreditPayment).
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexorch/agent/pkg/models"
)

// Client answers quota checks against the owner_quotas table, populated by
// the (out-of-scope) payment-processing surface and by the payment webhook
// handler's idempotent credit application.
type Client struct {
	db *sql.DB
}

func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// CheckQuota reports whether ownerID has an owner_quotas row whose max_tier
// covers tier and whose credits_remaining is positive.
func (c *Client) CheckQuota(ctx context.Context, ownerID string, tier models.Tier) (bool, error) {
	var hasQuota bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM owner_quotas
			WHERE owner_id = $1 AND max_tier >= $2 AND credits_remaining > 0
		)
	`, ownerID, int(tier)).Scan(&hasQuota)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("billing: check quota for %s: %w", ownerID, err)
	}
	return hasQuota, nil
}

// CreditPayment applies a webhook-confirmed payment: raises credits_remaining
// and the max covered tier for the owner. Called from the payment webhook
// handler, guarded by internal/storage's webhook-event idempotency table so
// a redelivered event never double-credits.
func (c *Client) CreditPayment(ctx context.Context, ownerID string, tier models.Tier, credits int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO owner_quotas (owner_id, max_tier, credits_remaining)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET
			max_tier = GREATEST(owner_quotas.max_tier, EXCLUDED.max_tier),
			credits_remaining = owner_quotas.credits_remaining + EXCLUDED.credits_remaining
	`, ownerID, int(tier), credits)
	if err != nil {
		return fmt.Errorf("billing: credit payment for %s: %w", ownerID, err)
	}
	return nil
}
