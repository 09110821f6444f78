package casestore

import (
	"context"
	"time"

	"github.com/lexorch/agent/pkg/models"
)

// Store is the persistence boundary casestore.Adapter sits on top of. A
// concrete implementation lives in internal/storage, backed by Postgres/
// CockroachDB JSONB columns with row-level locking under a transaction.
type Store interface {
	LoadCase(ctx context.Context, caseID string) (*models.Case, error)
	LoadDetails(ctx context.Context, caseID string) (*models.CaseDetails, error)
	SaveDetails(ctx context.Context, caseID string, details *models.CaseDetails) error
	LoadProcessingState(ctx context.Context, caseID string) (*models.ProcessingState, error)
	SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error
	ClearProcessingState(ctx context.Context, caseID string) error
	SaveCase(ctx context.Context, c *models.Case) error
}

// Update is a single dot-path mutation to apply to case_details. Replace
// forces a list-valued path to be overwritten rather than appended to.
type Update struct {
	Path    string
	Value   any
	Replace bool
}

// Adapter is the Case Context Store Adapter: load/apply_updates/
// save_processing_state/clear_processing_state over a single case
// document, transactional and journaled.
type Adapter struct {
	store Store
}

// NewAdapter wraps a Store with the dot-path update semantics and journaling
// every node mutation is required to go through.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Snapshot bundles everything a node needs to reason about a case.
type Snapshot struct {
	Case            *models.Case
	Details         *models.CaseDetails
	ProcessingState *models.ProcessingState
}

// Load returns the case, its case_details tree, and any pending processing
// state in a single read.
func (a *Adapter) Load(ctx context.Context, caseID string) (*Snapshot, error) {
	c, err := a.store.LoadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	details, err := a.store.LoadDetails(ctx, caseID)
	if err != nil {
		return nil, err
	}
	state, err := a.store.LoadProcessingState(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Case: c, Details: details, ProcessingState: state}, nil
}

// LoadDetailsOnly reads just the case_details tree, for tools that don't
// need the case envelope or processing state.
func (a *Adapter) LoadDetailsOnly(ctx context.Context, caseID string) (*models.CaseDetails, error) {
	return a.store.LoadDetails(ctx, caseID)
}

// ApplyUpdates applies every dot-path update to the case's details tree,
// stamps last_updated, and appends one agent_interactions.log entry per
// call that actually changes something. When updates is empty there is
// nothing to journal, so the append is skipped: two consecutive
// empty-update calls leave the persisted document byte-identical except for
// last_updated, instead of growing the log on every no-op call.
func (a *Adapter) ApplyUpdates(ctx context.Context, caseID string, updates []Update, journalDetail string) error {
	details, err := a.store.LoadDetails(ctx, caseID)
	if err != nil {
		return err
	}

	tree, err := detailsToTree(details)
	if err != nil {
		return err
	}

	for _, u := range updates {
		setDotPath(tree, u.Path, u.Value, u.Replace)
	}

	updated, err := treeToDetails(tree)
	if err != nil {
		return err
	}

	updated.LastUpdated = time.Now()
	if len(updates) > 0 {
		updated.AgentInteractions.Log = append(updated.AgentInteractions.Log, models.AgentInteractionEntry{
			Timestamp: updated.LastUpdated,
			Kind:      "update_case_context",
			Detail:    journalDetail,
		})
	}

	return a.store.SaveDetails(ctx, caseID, updated)
}

// SaveProcessingState checkpoints a suspended run.
func (a *Adapter) SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error {
	state.StateSavedAt = time.Now()
	return a.store.SaveProcessingState(ctx, caseID, state)
}

// ClearProcessingState removes the checkpoint after a successful terminal
// reply.
func (a *Adapter) ClearProcessingState(ctx context.Context, caseID string) error {
	return a.store.ClearProcessingState(ctx, caseID)
}

// SaveCase persists a case-level mutation (status transition, tier
// assignment, session id attach).
func (a *Adapter) SaveCase(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now()
	return a.store.SaveCase(ctx, c)
}
