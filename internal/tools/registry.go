// Package tools implements the Tool Registry: the set of eight callable
// capabilities the Assistant can invoke while working a case, each
// JSON-schema validated and wrapped with timeout/retry/concurrency policy.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lexorch/agent/pkg/models"
)

// Tool is the capability interface every registered tool implements.
type Tool interface {
	Name() string
	Descriptor() models.ToolDescriptor
	Execute(ctx context.Context, input json.RawMessage) models.ToolResult
}

// MaxToolNameLength and MaxToolParamsSize bound inputs before they ever
// reach a tool implementation or an LLM client.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20
)

// Registry holds the registered tools behind a read-write mutex, identical
// in shape to the agentic loop's tool registry this is generalized from.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	schemas  map[string]*jsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register compiles the tool's parameter schema and adds it to the
// registry. It panics on an invalid schema: this is a startup-time wiring
// error, not a runtime condition.
func (r *Registry) Register(tool Tool) {
	desc := tool.Descriptor()

	compiler := jsonschema.NewCompiler()
	schemaURL := "mem://tools/" + desc.Name + ".json"
	if err := compiler.AddResource(schemaURL, bytesReader(desc.ParameterSchema)); err != nil {
		panic(fmt.Sprintf("tools: invalid parameter schema for %q: %v", desc.Name, err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("tools: failed to compile parameter schema for %q: %v", desc.Name, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[desc.Name] = tool
	r.schemas[desc.Name] = schema
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Descriptors returns every registered tool's descriptor, for advertising
// to the Assistant client as its tool schema.
func (r *Registry) Descriptors() []models.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptors := make([]models.ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		descriptors = append(descriptors, t.Descriptor())
	}
	return descriptors
}

// Execute validates input against the tool's declared schema, then runs it.
// A schema violation is a fatal invalid_input, never dispatched to the
// tool body.
func (r *Registry) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	if len(call.Name) > MaxToolNameLength {
		return models.Failure(models.ErrInvalidInput, "tool name exceeds maximum length", false)
	}
	if len(call.Input) > MaxToolParamsSize {
		return models.Failure(models.ErrInvalidInput, "tool input exceeds maximum size", false)
	}

	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	r.mu.RUnlock()
	if !ok {
		return models.Failure(models.ErrNotFound, "tool not found: "+call.Name, false)
	}

	var decoded any
	if err := json.Unmarshal(call.Input, &decoded); err != nil {
		return models.Failure(models.ErrInvalidInput, "tool input is not valid JSON: "+err.Error(), false)
	}
	if err := schema.Validate(decoded); err != nil {
		return models.Failure(models.ErrInvalidInput, "tool input failed schema validation: "+err.Error(), false)
	}

	result := tool.Execute(ctx, call.Input)
	result.ToolCallID = call.ID
	return result
}
