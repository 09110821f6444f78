package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// WebhookEventStore records processed billing-webhook event ids so a
// redelivered event is a no-op rather than double-crediting quota.
type WebhookEventStore struct {
	db *sql.DB
}

func NewWebhookEventStore(db *sql.DB) *WebhookEventStore {
	return &WebhookEventStore{db: db}
}

// MarkProcessed inserts eventID and reports whether this is the first time
// it has been seen. A unique constraint violation means a concurrent or
// redelivered call already claimed it.
func (s *WebhookEventStore) MarkProcessed(ctx context.Context, eventID string) (firstSeen bool, err error) {
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO processed_webhook_events (event_id, processed_at) VALUES ($1, now())`,
		eventID)
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, fmt.Errorf("mark webhook event %s processed: %w", eventID, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
