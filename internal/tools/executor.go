package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lexorch/agent/internal/audit"
	"github.com/lexorch/agent/pkg/models"
)

// ExecutorConfig bounds concurrency and per-call timeout/retry behavior for
// tool dispatch. Defaults are deliberately conservative: research_query and
// generate_draft both call out to slow collaborators.
type ExecutorConfig struct {
	MaxConcurrency  int
	DefaultTimeout  time.Duration
	DefaultRetries  int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultExecutorConfig returns the baseline policy; nodes override per-call
// via ToolConfig for tools with different latency profiles.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrency:  4,
		DefaultTimeout:  20 * time.Second,
		DefaultRetries:  2,
		RetryBackoff:    200 * time.Millisecond,
		MaxRetryBackoff: 5 * time.Second,
	}
}

// ToolConfig overrides the default policy for one named tool.
type ToolConfig struct {
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

// Executor runs tool calls with bounded concurrency, per-call timeout, and
// retry on transient_backend/timeout failures only — invalid_input and
// permanent_backend results are never retried.
type Executor struct {
	registry *Registry
	config   ExecutorConfig

	mu         sync.RWMutex
	toolConfig map[string]ToolConfig

	sem   chan struct{}
	audit *audit.Logger
}

// NewExecutor constructs an Executor bound to the given registry.
func NewExecutor(registry *Registry, config ExecutorConfig) *Executor {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	return &Executor{
		registry:   registry,
		config:     config,
		toolConfig: make(map[string]ToolConfig),
		sem:        make(chan struct{}, config.MaxConcurrency),
	}
}

// SetAuditLogger attaches operational telemetry for every tool dispatch,
// distinct from the domain-data journal casestore.Adapter.ApplyUpdates
// maintains in agent_interactions.log. A nil or disabled logger is a
// no-op, matching the teacher's audit.Logger(Config{Enabled: false})
// convention.
func (e *Executor) SetAuditLogger(logger *audit.Logger) {
	e.audit = logger
}

// ConfigureTool sets a per-tool override, e.g. a longer timeout for
// generate_draft's rendering call.
func (e *Executor) ConfigureTool(name string, cfg ToolConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toolConfig[name] = cfg
}

func (e *Executor) toolConfigFor(name string) ToolConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.toolConfig[name]
}

// ExecutionResult pairs a tool call's outcome with its execution telemetry.
type ExecutionResult struct {
	ToolCallID string
	ToolName   string
	Result     models.ToolResult
	Duration   time.Duration
	Attempts   int
}

// ExecuteAll runs every call concurrently, bounded by MaxConcurrency, and
// returns results in the same order as the input.
func (e *Executor) ExecuteAll(ctx context.Context, calls []models.ToolCall) []*ExecutionResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]*ExecutionResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, tc models.ToolCall) {
			defer wg.Done()
			results[idx] = e.Execute(ctx, tc)
		}(i, call)
	}
	wg.Wait()
	return results
}

// Execute runs one tool call with retry on retriable failures, honoring a
// per-call timeout and recovering from a tool panic as a permanent_backend
// failure rather than crashing the request handler.
func (e *Executor) Execute(ctx context.Context, call models.ToolCall) *ExecutionResult {
	start := time.Now()
	res := &ExecutionResult{ToolCallID: call.ID, ToolName: call.Name}

	sessionKey := ""
	if caseID, ok := CaseIDFromContext(ctx); ok {
		sessionKey = caseID
	}
	if e.audit != nil {
		e.audit.LogToolInvocation(ctx, call.Name, call.ID, call.Input, sessionKey)
	}
	defer func() {
		if e.audit != nil {
			e.audit.LogToolCompletion(ctx, call.Name, call.ID, res.Result.OK, res.Result.Message, res.Duration, sessionKey)
		}
	}()

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		res.Result = models.Failure(models.ErrTimeout, "context cancelled before tool dispatch", false)
		res.Duration = time.Since(start)
		return res
	}

	cfg := e.toolConfigFor(call.Name)
	timeout := e.config.DefaultTimeout
	maxRetries := e.config.DefaultRetries
	backoff := e.config.RetryBackoff
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	if cfg.Retries > 0 {
		maxRetries = cfg.Retries
	}
	if cfg.RetryBackoff > 0 {
		backoff = cfg.RetryBackoff
	}

	var last models.ToolResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		res.Attempts = attempt + 1
		last = e.executeWithTimeout(ctx, call, timeout)

		if last.OK || !last.Retriable {
			res.Result = last
			res.Duration = time.Since(start)
			return res
		}
		if ctx.Err() != nil || attempt >= maxRetries {
			break
		}

		sleep := backoff * time.Duration(1<<uint(attempt))
		if sleep > e.config.MaxRetryBackoff {
			sleep = e.config.MaxRetryBackoff
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
		}
	}

	res.Result = last
	res.Duration = time.Since(start)
	return res
}

func (e *Executor) executeWithTimeout(ctx context.Context, call models.ToolCall, timeout time.Duration) models.ToolResult {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan models.ToolResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- models.Failure(
					models.ErrPermanentBackend,
					fmt.Sprintf("tool %q panicked: %v\n%s", call.Name, r, debug.Stack()),
					false,
				)
			}
		}()
		resultCh <- e.registry.Execute(execCtx, call)
	}()

	select {
	case res := <-resultCh:
		return res
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return models.Failure(models.ErrTimeout, "context cancelled during tool execution", false)
		}
		return models.Failure(models.ErrTimeout, fmt.Sprintf("tool %q timed out after %s", call.Name, timeout), true)
	}
}
