// Package nodes implements the Node Library: the deterministic-modulo-LLM
// functions the orchestrator drives through the plan/action loop, each one
// a pure function of (case, context, scratchpad, inputs) -> NodeResult.
// Generalized from the teacher's agentic-loop phase design
// (internal/agent/loop.go's PhaseInit/Stream/ExecuteTools/Continue/Complete)
// into the explicit Continue/Reply/Suspend/Error algebra below.
package nodes

import (
	"context"
	"fmt"
	"sync"

	"github.com/lexorch/agent/pkg/models"
)

// ResultKind discriminates the four NodeResult variants.
type ResultKind string

const (
	KindContinue ResultKind = "continue"
	KindReply    ResultKind = "reply"
	KindSuspend  ResultKind = "suspend"
	KindError    ResultKind = "error"
)

// NodeResult is the sealed sum type every node returns: exactly one of
// Continue/Reply/Suspend/Error, discriminated by Kind. The constructors
// below are the only supported way to build one, so the zero value is never
// mistaken for a valid result.
type NodeResult struct {
	Kind ResultKind

	// Continue fields.
	NextNode string
	Inputs   map[string]any

	// Reply fields.
	Text     string
	Metadata map[string]any

	// Suspend fields.
	Reason       string
	ResumeMarker string
	// ResumeNode overrides which node a later resume checkpoints at,
	// for suspends whose resume entry point differs from the node that
	// suspended (e.g. quota-check suspends but payment-wait resumes).
	// Empty means resume at the suspending node itself.
	ResumeNode string

	// Error fields.
	ErrKind models.ErrorKind
	Detail  string
}

// Continue builds a result that advances the orchestrator to nextNode with
// the given inputs.
func Continue(nextNode string, inputs map[string]any) *NodeResult {
	return &NodeResult{Kind: KindContinue, NextNode: nextNode, Inputs: inputs}
}

// Reply builds a terminal result returned to the end user.
func Reply(text string, metadata map[string]any) *NodeResult {
	return &NodeResult{Kind: KindReply, Text: text, Metadata: metadata}
}

// Suspend builds a checkpoint-and-exit result that resumes at the
// suspending node itself.
func Suspend(reason, resumeMarker string) *NodeResult {
	return &NodeResult{Kind: KindSuspend, Reason: reason, ResumeMarker: resumeMarker}
}

// SuspendAt builds a checkpoint-and-exit result that resumes at resumeNode
// instead of the suspending node, for suspends whose resume entry point is
// a different node (e.g. quota-check's awaiting_payment, resumed at
// payment-wait).
func SuspendAt(reason, resumeMarker, resumeNode string) *NodeResult {
	return &NodeResult{Kind: KindSuspend, Reason: reason, ResumeMarker: resumeMarker, ResumeNode: resumeNode}
}

// Error builds a result handed to the handle-error node.
func Error(kind models.ErrorKind, detail string) *NodeResult {
	return &NodeResult{Kind: KindError, ErrKind: kind, Detail: detail}
}

// Inputs bundles everything a node needs to act: the loaded case/context
// snapshot, a scratchpad carried across nodes for the duration of one
// orchestrator run (research digests, draft-in-progress markdown, the
// reasoner's last answer — never persisted, it dies with the run), and
// whatever the previous Continue or a resume event passed along.
type Inputs struct {
	Case    *models.Case
	Details *models.CaseDetails

	Scratchpad map[string]any

	In map[string]any
}

// StringIn returns In[key] as a string, or "" if absent/wrong type.
func (i *Inputs) StringIn(key string) string {
	if v, ok := i.In[key].(string); ok {
		return v
	}
	return ""
}

// Node is one deterministic (modulo LLM calls) step of the orchestration.
type Node func(ctx context.Context, in *Inputs) (*NodeResult, error)

// Registry holds named nodes behind a read-write mutex, the same shape as
// tools.Registry.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry creates an empty node registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Register adds or replaces the node under name.
func (r *Registry) Register(name string, n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[name] = n
}

// Get returns the node registered under name.
func (r *Registry) Get(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	return n, ok
}

// Run looks up name and invokes it, returning a permanent-backend error
// result if no such node is registered — this should only happen from a
// corrupted processing-state checkpoint.
func (r *Registry) Run(ctx context.Context, name string, in *Inputs) (*NodeResult, error) {
	n, ok := r.Get(name)
	if !ok {
		return Error(models.ErrPermanentBackend, fmt.Sprintf("no such node: %q", name)), nil
	}
	return n(ctx, in)
}
