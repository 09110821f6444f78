package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the service's Prometheus instrumentation surface, generalized
// from the teacher's channel/webhook-oriented Metrics type down to what a
// single-surface case-orchestration service actually emits: node execution,
// LLM calls, tool calls, HTTP requests, and database queries.
type Metrics struct {
	// NodeExecutions counts Node Library invocations by node name and
	// result kind (continue|reply|suspend|error).
	NodeExecutions *prometheus.CounterVec

	// NodeDuration measures Node Library invocation latency in seconds.
	NodeDuration *prometheus.HistogramVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: client (assistant|reasoner), model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by client, model, and status.
	LLMRequestCounter *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations by tool name and status.
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	ToolExecutionDuration *prometheus.HistogramVec

	// ErrorCounter tracks errors by component and error_kind (mirroring
	// models.ErrorKind's taxonomy).
	ErrorCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP API request latency.
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestCounter counts HTTP requests.
	HTTPRequestCounter *prometheus.CounterVec

	// DatabaseQueryDuration measures database query latency.
	DatabaseQueryDuration *prometheus.HistogramVec

	// DatabaseQueryCounter counts database queries.
	DatabaseQueryCounter *prometheus.CounterVec

	// LoopBudgetExhausted counts orchestrator runs that hit
	// max_nodes_per_request.
	LoopBudgetExhausted prometheus.Counter

	// CasesEscalated counts Request Handler runs that ended in a support
	// ticket escalation.
	CasesEscalated prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics with the default
// registry. Call once at application startup.
func NewMetrics() *Metrics {
	return &Metrics{
		NodeExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_node_executions_total",
				Help: "Total Node Library invocations by node and result kind",
			},
			[]string{"node", "kind"},
		),

		NodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lorch_node_duration_seconds",
				Help:    "Duration of a single Node Library invocation",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"node"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lorch_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"client", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_llm_requests_total",
				Help: "Total number of LLM requests by client, model, and status",
			},
			[]string{"client", "model", "status"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lorch_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_errors_total",
				Help: "Total number of errors by component and error kind",
			},
			[]string{"component", "error_kind"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lorch_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),

		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lorch_database_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation", "table"},
		),

		DatabaseQueryCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lorch_database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "table", "status"},
		),

		LoopBudgetExhausted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lorch_loop_budget_exhausted_total",
				Help: "Total orchestrator runs that exceeded max_nodes_per_request",
			},
		),

		CasesEscalated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lorch_cases_escalated_total",
				Help: "Total Request Handler runs that escalated to a support ticket",
			},
		),
	}
}

// RecordNodeExecution records one Node Library invocation.
func (m *Metrics) RecordNodeExecution(node, kind string, durationSeconds float64) {
	m.NodeExecutions.WithLabelValues(node, kind).Inc()
	m.NodeDuration.WithLabelValues(node).Observe(durationSeconds)
}

// RecordLLMRequest records metrics for an LLM API request.
func (m *Metrics) RecordLLMRequest(client, model, status string, durationSeconds float64) {
	m.LLMRequestCounter.WithLabelValues(client, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(client, model).Observe(durationSeconds)
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordError increments the error counter for a given component and error kind.
func (m *Metrics) RecordError(component, errorKind string) {
	m.ErrorCounter.WithLabelValues(component, errorKind).Inc()
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, durationSeconds float64) {
	m.HTTPRequestCounter.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
}

// RecordDatabaseQuery records metrics for a database query.
func (m *Metrics) RecordDatabaseQuery(operation, table, status string, durationSeconds float64) {
	m.DatabaseQueryCounter.WithLabelValues(operation, table, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(durationSeconds)
}

// RecordLoopBudgetExhausted records a run hitting max_nodes_per_request.
func (m *Metrics) RecordLoopBudgetExhausted() {
	m.LoopBudgetExhausted.Inc()
}

// RecordCaseEscalated records a Request Handler run ending in escalation.
func (m *Metrics) RecordCaseEscalated() {
	m.CasesEscalated.Inc()
}
