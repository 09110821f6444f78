package models

import "encoding/json"

// ErrorKind is the shared error taxonomy used by every tool result and by the
// orchestrator's error-escalation ladder (SPEC_FULL.md §7).
type ErrorKind string

const (
	ErrInvalidInput      ErrorKind = "invalid_input"
	ErrNotFound          ErrorKind = "not_found"
	ErrUnauthorized      ErrorKind = "unauthorized"
	ErrTransientBackend  ErrorKind = "transient_backend"
	ErrPermanentBackend  ErrorKind = "permanent_backend"
	ErrQuotaExceeded     ErrorKind = "quota_exceeded"
	ErrTimeout           ErrorKind = "timeout"
	ErrPIIViolation      ErrorKind = "pii_violation"
	ErrLoopBudgetExhausted ErrorKind = "loop_budget_exhausted"
)

// Retriable reports whether the escalation ladder should attempt a retry for
// this error kind before moving to reasoner consultation.
func (k ErrorKind) Retriable() bool {
	return k == ErrTransientBackend || k == ErrTimeout
}

// ToolDescriptor documents one callable tool's contract.
type ToolDescriptor struct {
	Name            string          `json:"name"`
	ParameterSchema json.RawMessage `json:"parameter_schema"`
	ResultSchema    json.RawMessage `json:"result_schema,omitempty"`
	ErrorTaxonomy   []ErrorKind     `json:"error_taxonomy"`
	PIICapable      bool            `json:"pii_capable"`
	Idempotent      bool            `json:"idempotent"`
}

// ToolCall is an Assistant-issued request to execute a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the normalized {ok, value} | {err, kind, message, retriable}
// shape every tool returns.
type ToolResult struct {
	ToolCallID string          `json:"tool_call_id,omitempty"`
	OK         bool            `json:"ok"`
	Value      json.RawMessage `json:"value,omitempty"`
	ErrKind    ErrorKind       `json:"err_kind,omitempty"`
	Message    string          `json:"message,omitempty"`
	Retriable  bool            `json:"retriable,omitempty"`
}

// Success builds a successful ToolResult carrying the given JSON-encodable
// value.
func Success(value any) ToolResult {
	data, err := json.Marshal(value)
	if err != nil {
		return Failure(ErrPermanentBackend, "failed to encode tool result: "+err.Error(), false)
	}
	return ToolResult{OK: true, Value: data}
}

// Failure builds an error ToolResult of the given kind.
func Failure(kind ErrorKind, message string, retriable bool) ToolResult {
	return ToolResult{OK: false, ErrKind: kind, Message: message, Retriable: retriable}
}

// Decode unmarshals a successful result's Value into dst.
func (r ToolResult) Decode(dst any) error {
	if !r.OK {
		return &ToolResultError{Kind: r.ErrKind, Message: r.Message}
	}
	if len(r.Value) == 0 {
		return nil
	}
	return json.Unmarshal(r.Value, dst)
}

// ToolResultError wraps a failed ToolResult as a Go error.
type ToolResultError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolResultError) Error() string {
	return string(e.Kind) + ": " + e.Message
}
