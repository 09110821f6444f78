package orchestrator

import "time"

// EventType enumerates the orchestration lifecycle events a caller can
// observe via SetEventCallback, mirrored from the teacher's
// OrchestratorEvent/OrchestratorEventType pattern
// (internal/multiagent/orchestrator.go).
type EventType string

const (
	EventNodeStarted         EventType = "node_started"
	EventNodeCompleted       EventType = "node_completed"
	EventReplied             EventType = "replied"
	EventSuspended           EventType = "suspended"
	EventErrorEscalated      EventType = "error_escalated"
	EventLoopBudgetExhausted EventType = "loop_budget_exhausted"
)

// Event is one observable step of an orchestrator run.
type Event struct {
	Type      EventType `json:"type"`
	Node      string    `json:"node,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
