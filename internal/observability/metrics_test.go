package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// NewMetrics registers with the default Prometheus registry, so all
// assertions live in a single test to avoid double-registration panics
// across test functions.
func TestMetrics_RecordsAcrossDimensions(t *testing.T) {
	m := NewMetrics()

	m.RecordNodeExecution("tier-decide", "continue", 0.05)
	m.RecordNodeExecution("tier-decide", "continue", 0.07)
	m.RecordNodeExecution("wait", "suspend", 0.01)

	if got := testutil.ToFloat64(m.NodeExecutions.WithLabelValues("tier-decide", "continue")); got != 2 {
		t.Errorf("NodeExecutions[tier-decide,continue] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.NodeExecutions.WithLabelValues("wait", "suspend")); got != 1 {
		t.Errorf("NodeExecutions[wait,suspend] = %v, want 1", got)
	}

	m.RecordLLMRequest("assistant", "claude-sonnet", "success", 1.2)
	if got := testutil.ToFloat64(m.LLMRequestCounter.WithLabelValues("assistant", "claude-sonnet", "success")); got != 1 {
		t.Errorf("LLMRequestCounter = %v, want 1", got)
	}

	m.RecordToolExecution("check_quota", "success", 0.2)
	m.RecordToolExecution("check_quota", "error", 0.1)
	if got := testutil.ToFloat64(m.ToolExecutionCounter.WithLabelValues("check_quota", "error")); got != 1 {
		t.Errorf("ToolExecutionCounter[check_quota,error] = %v, want 1", got)
	}

	m.RecordError("tools", "transient_backend")
	if got := testutil.ToFloat64(m.ErrorCounter.WithLabelValues("tools", "transient_backend")); got != 1 {
		t.Errorf("ErrorCounter = %v, want 1", got)
	}

	m.RecordHTTPRequest("POST", "/v1/cases/{id}/messages", "200", 0.03)
	if got := testutil.ToFloat64(m.HTTPRequestCounter.WithLabelValues("POST", "/v1/cases/{id}/messages", "200")); got != 1 {
		t.Errorf("HTTPRequestCounter = %v, want 1", got)
	}

	m.RecordDatabaseQuery("select", "cases", "success", 0.01)
	if got := testutil.ToFloat64(m.DatabaseQueryCounter.WithLabelValues("select", "cases", "success")); got != 1 {
		t.Errorf("DatabaseQueryCounter = %v, want 1", got)
	}

	m.RecordLoopBudgetExhausted()
	m.RecordLoopBudgetExhausted()
	if got := testutil.ToFloat64(m.LoopBudgetExhausted); got != 2 {
		t.Errorf("LoopBudgetExhausted = %v, want 2", got)
	}

	m.RecordCaseEscalated()
	if got := testutil.ToFloat64(m.CasesEscalated); got != 1 {
		t.Errorf("CasesEscalated = %v, want 1", got)
	}
}
