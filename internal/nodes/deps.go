package nodes

import (
	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/llm"
	"github.com/lexorch/agent/internal/tools"
)

// Config carries the tunables of spec.md §6 that the Node Library itself
// consults (the rest — max_nodes_per_request, deadline_slack_seconds — are
// orchestrator-level and live in internal/orchestrator).
type Config struct {
	ResearchSummaryLimit        int
	ConsiderationPruneThreshold int
	AssistantContextBudgetBytes int
	RetryAttemptsTransient      int
}

// DefaultConfig returns spec.md §6's defaults.
func DefaultConfig() Config {
	return Config{
		ResearchSummaryLimit:        10,
		ConsiderationPruneThreshold: 20,
		AssistantContextBudgetBytes: 65_536,
		RetryAttemptsTransient:      3,
	}
}

// Deps bundles every collaborator a node may call. One Deps is shared by
// the whole Node Library; individual nodes only touch the fields they need.
type Deps struct {
	Assistant   llm.Client
	Reasoner    llm.Client
	Tools       *tools.Executor
	Adapter     *casestore.Adapter
	PartyValues tools.PartyValueReader
	Config      Config
}

// Wire constructs every node and registers it under its spec name, the
// single entry point orchestrator wiring calls.
func Wire(deps *Deps) *Registry {
	r := NewRegistry()
	r.Register("tier-decide", NewTierDecideNode(deps))
	r.Register("quota-check", NewQuotaCheckNode(deps))
	r.Register("payment-wait", NewPaymentWaitNode(deps))
	r.Register("plan", NewPlanNode(deps))
	r.Register("ask-user", NewAskUserNode(deps))
	r.Register("research", NewResearchNode(deps))
	r.Register("consult-reasoner", NewConsultReasonerNode(deps))
	r.Register("draft", NewDraftNode(deps))
	r.Register("update-context", NewUpdateContextNode(deps))
	r.Register("handle-error", NewHandleErrorNode(deps))
	r.Register("wait", NewWaitNode(deps))
	return r
}
