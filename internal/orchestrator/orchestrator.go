// Package orchestrator implements the Orchestrator / State Machine
// (SPEC_FULL.md §4.5): the macro case-status FSM and the micro plan/action
// loop that drives the Node Library, grounded on the teacher's
// AgenticLoop.Run main-loop structure (internal/agent/loop.go — iteration
// cap, deadline check before each step, phase transitions) and
// internal/multiagent/orchestrator.go's event-callback pattern for
// observability.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/internal/tools"
	"github.com/lexorch/agent/pkg/models"
)

// Config carries the orchestrator-level tunables of spec.md §6.
type Config struct {
	MaxNodesPerRequest    int
	DeadlineSlackSeconds  int
}

// DefaultConfig returns spec.md §6's defaults.
func DefaultConfig() Config {
	return Config{MaxNodesPerRequest: 20, DeadlineSlackSeconds: 20}
}

// maxLadderHopsAfterBudget bounds how many extra node executions the
// handle-error ladder gets once max_nodes_per_request is exceeded, so a
// misbehaving ladder can never turn a bounded loop into an unbounded one.
const maxLadderHopsAfterBudget = 6

// Orchestrator drives one case's plan/action loop to a terminal Reply or
// Suspend. It holds no per-case state between runs — everything it needs
// is either in the Snapshot passed to Run or re-derived from it.
type Orchestrator struct {
	nodes  *nodes.Registry
	config Config

	mu            sync.RWMutex
	eventCallback func(*Event)
}

// New constructs an Orchestrator over a wired Node Library registry.
func New(nodeRegistry *nodes.Registry, config Config) *Orchestrator {
	return &Orchestrator{nodes: nodeRegistry, config: config}
}

// SetEventCallback registers an observer for orchestration lifecycle
// events. Safe to call concurrently with Run.
func (o *Orchestrator) SetEventCallback(callback func(*Event)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.eventCallback = callback
}

func (o *Orchestrator) emit(event *Event) {
	o.mu.RLock()
	callback := o.eventCallback
	o.mu.RUnlock()
	if callback != nil {
		event.Timestamp = time.Now()
		callback(event)
	}
}

// Run drives the plan/action loop to completion, honoring the cooperative
// timeout contract of spec.md §5: before every node it checks the
// remaining time against deadline, checkpointing and suspending once that
// falls below DeadlineSlackSeconds. It returns the terminal NodeResult
// (always Reply or Suspend) and, for a Suspend, the ProcessingState to
// persist.
func (o *Orchestrator) Run(ctx context.Context, deadline time.Time, snapshot *casestore.Snapshot, event RequestEvent) (*nodes.NodeResult, *models.ProcessingState, error) {
	currentNode, in, immediate := o.route(snapshot, event)
	if immediate != nil {
		return immediate, nil, nil
	}
	ctx = tools.WithCaseID(ctx, snapshot.Case.CaseID)

	scratchpad := map[string]any{}
	nodeCount := 0
	budgetTriggered := false
	ladderHops := 0

	for {
		if time.Until(deadline) < time.Duration(o.config.DeadlineSlackSeconds)*time.Second {
			state := &models.ProcessingState{
				LastCompletedNode: currentNode,
				PendingAction:     models.PendingAction{Node: currentNode, Inputs: in},
			}
			o.emit(&Event{Type: EventSuspended, Node: currentNode, Detail: "deadline_slack"})
			return nodes.Suspend("deadline_slack", snapshot.Case.CaseID), state, nil
		}

		if budgetTriggered {
			ladderHops++
			if ladderHops > maxLadderHopsAfterBudget {
				return nodes.Reply(
					"Ne pare rău, solicitarea a necesitat prea mulți pași pentru a fi finalizată. Vă rugăm reformulați sau reveniți mai târziu.",
					nil,
				), nil, nil
			}
		} else {
			nodeCount++
			if nodeCount > o.config.MaxNodesPerRequest {
				budgetTriggered = true
				o.emit(&Event{Type: EventLoopBudgetExhausted, Node: currentNode})
				failedNode := currentNode
				currentNode = "handle-error"
				in = map[string]any{
					"failed_node":   failedNode,
					"err_kind":      string(models.ErrLoopBudgetExhausted),
					"detail":        "max_nodes_per_request exceeded",
					"failed_inputs": in,
				}
			}
		}

		o.emit(&Event{Type: EventNodeStarted, Node: currentNode})
		result, err := o.nodes.Run(ctx, currentNode, &nodes.Inputs{
			Case:       snapshot.Case,
			Details:    snapshot.Details,
			Scratchpad: scratchpad,
			In:         in,
		})
		if err != nil {
			result = nodes.Error(models.ErrPermanentBackend, err.Error())
		}

		switch result.Kind {
		case nodes.KindContinue:
			o.emit(&Event{Type: EventNodeCompleted, Node: currentNode})
			currentNode = result.NextNode
			in = result.Inputs

		case nodes.KindReply:
			o.emit(&Event{Type: EventReplied, Node: currentNode})
			return result, nil, nil

		case nodes.KindSuspend:
			o.emit(&Event{Type: EventSuspended, Node: currentNode, Detail: result.Reason})
			resumeNode := currentNode
			if result.ResumeNode != "" {
				resumeNode = result.ResumeNode
			}
			state := &models.ProcessingState{
				LastCompletedNode: currentNode,
				PendingAction:     models.PendingAction{Node: resumeNode, Inputs: in},
			}
			return result, state, nil

		case nodes.KindError:
			o.emit(&Event{Type: EventErrorEscalated, Node: currentNode, Detail: result.Detail})
			failedNode := currentNode
			currentNode = "handle-error"
			in = map[string]any{
				"failed_node":   failedNode,
				"err_kind":      string(result.ErrKind),
				"detail":        result.Detail,
				"failed_inputs": in,
			}
		}
	}
}
