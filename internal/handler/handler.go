// Package handler implements the Request Handler (SPEC_FULL.md §4.6): the
// single entry point for one end-user message or resume event. It wires
// authorization, the per-case single-writer lock, and the Orchestrator
// together, grounded on the teacher's gateway.Server.handleMessage
// request-path shape (internal/gateway/message_handler.go).
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/internal/observability"
	"github.com/lexorch/agent/internal/orchestrator"
	"github.com/lexorch/agent/pkg/models"
)

// ErrUnauthorized is returned when the end user lacks read access to the
// case; callers map it to HTTP 403.
var ErrUnauthorized = errors.New("handler: end user is not authorized for this case")

// ErrBusy is returned verbatim from casestore when the single-writer lock
// is already held; callers map it to {status: busy}.
var ErrBusy = casestore.ErrBusy

// Event mirrors orchestrator.RequestEvent at the handler boundary so
// callers (HTTP layer, webhook layer) don't need to import the
// orchestrator package directly.
type Event = orchestrator.RequestEvent

// Response is the Request Handler's structured outcome (spec.md §6's
// agent-messages response body).
type Response struct {
	Status    string         `json:"status"` // success | suspended | error
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MaxInvocationDuration bounds how long a single Request Handler call may
// run before the orchestrator must have suspended. The single-writer lock's
// lease grace is configured separately (casestore.DefaultLeaseGrace).
const MaxInvocationDuration = 55 * time.Second

// Handler drives one (case_id, end_user_id, event) call through
// authorization, locking, orchestration, and persistence.
type Handler struct {
	adapter      *casestore.Adapter
	lock         *casestore.Lock
	orchestrator *orchestrator.Orchestrator
	tickets      ticketOpener
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// ticketOpener is the narrow slice of internal/tools.Executor (or a direct
// ticketing.Client) the handler needs for step 7's escalation; kept as an
// interface so the handler package doesn't import internal/tools.
type ticketOpener interface {
	OpenTicket(ctx context.Context, summary, body string) (string, error)
}

func New(adapter *casestore.Adapter, lock *casestore.Lock, orch *orchestrator.Orchestrator, tickets ticketOpener, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{adapter: adapter, lock: lock, orchestrator: orch, tickets: tickets, logger: logger}
}

// SetMetrics attaches a Prometheus instrumentation surface; escalations are
// recorded on it when set. Optional — a Handler with no metrics attached
// behaves exactly as before.
func (h *Handler) SetMetrics(metrics *observability.Metrics) {
	h.metrics = metrics
}

// Handle implements spec.md §4.6's seven steps.
func (h *Handler) Handle(ctx context.Context, caseID, endUserID string, event Event) (*Response, error) {
	snapshot, err := h.adapter.Load(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("handler: load case %s: %w", caseID, err)
	}

	if !authorized(snapshot.Case, endUserID) {
		return nil, ErrUnauthorized
	}

	release, err := h.lock.TryAcquire(ctx, caseID, endUserID)
	if err != nil {
		return nil, err // ErrBusy or a wrapped lock error
	}
	defer release()

	deadline := time.Now().Add(MaxInvocationDuration)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	result, processingState, err := h.orchestrator.Run(runCtx, deadline, snapshot, event)
	if err != nil {
		h.logger.Error("orchestrator run failed", "case_id", caseID, "error", err)
		return h.escalate(ctx, caseID, err.Error()), nil
	}

	switch result.Kind {
	case nodes.KindReply:
		if err := h.adapter.ClearProcessingState(ctx, caseID); err != nil {
			h.logger.Warn("failed to clear processing state after reply", "case_id", caseID, "error", err)
		}
		return &Response{
			Status:    "success",
			Message:   result.Text,
			Timestamp: time.Now(),
			Metadata:  result.Metadata,
		}, nil

	case nodes.KindSuspend:
		if processingState != nil {
			if err := h.adapter.SaveProcessingState(ctx, caseID, processingState); err != nil {
				h.logger.Error("failed to persist processing state", "case_id", caseID, "error", err)
				return h.escalate(ctx, caseID, "failed to checkpoint: "+err.Error()), nil
			}
		}
		return &Response{
			Status:    "suspended",
			Message:   "Solicitarea dumneavoastră este încă în lucru; vom reveni cu un răspuns.",
			Timestamp: time.Now(),
			Metadata:  map[string]any{"reason": result.Reason},
		}, nil

	case nodes.KindError:
		// Run routes every Error result (including one from handle-error
		// itself) back to handle-error and returns only Reply or Suspend;
		// an Error reaching this point is escalated.
		return h.escalate(ctx, caseID, result.Detail), nil

	default:
		h.logger.Error("orchestrator returned an unexpected terminal kind", "case_id", caseID, "kind", result.Kind)
		return h.escalate(ctx, caseID, fmt.Sprintf("unexpected terminal result kind %q", result.Kind)), nil
	}
}

// authorized implements the read-access rule of step 1: the owner of the
// case, individual or organization, is the only end user with access.
// Delegated access (e.g. a paralegal acting on behalf of an organization
// owner) is out of scope (spec Non-goals exclude an auth subsystem); this
// is the narrow check the core itself is responsible for.
func authorized(c *models.Case, endUserID string) bool {
	return c != nil && c.Owner.ID == endUserID
}

// escalate implements step 7: open a support ticket and return a
// user-visible apology rather than surfacing the raw error.
func (h *Handler) escalate(ctx context.Context, caseID, detail string) *Response {
	if h.metrics != nil {
		h.metrics.RecordCaseEscalated()
	}
	metadata := map[string]any{}
	if h.tickets != nil {
		ticketID, err := h.tickets.OpenTicket(ctx,
			fmt.Sprintf("unhandled orchestrator error on case %s", caseID), detail)
		if err != nil {
			h.logger.Error("failed to open escalation ticket", "case_id", caseID, "error", err)
		} else {
			metadata["ticket_id"] = ticketID
		}
	}
	return &Response{
		Status:    "error",
		Message:   "Ne pare rău, a apărut o eroare neașteptată. Echipa noastră a fost notificată.",
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
