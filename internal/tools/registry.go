package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/coursechat-go/internal/models"
)

// Result is one tool execution outcome: the text handed back to the model
// and the sources backing it. Sources are nil when nothing was retrieved.
type Result struct {
	Text    string
	Sources []models.Source
}

// Tool is one callable capability exposed to the chat model.
type Tool interface {
	// Definition describes the tool for the model's tool-choice step.
	Definition() llms.Tool

	// Execute runs the tool. User-facing failures (no match, empty result)
	// come back as result text so the model can work with them; only
	// infrastructure failures surface as errors.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// Registry dispatches tool calls by name. It holds no per-call state, so a
// single registry serves concurrent sessions; each call's sources travel
// in its Result.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry with the standard retrieval tools.
func NewRegistry(deps *Dependencies) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	r.register(NewSearchTool(deps))
	r.register(NewOutlineTool(deps))
	return r
}

func (r *Registry) register(t Tool) {
	name := t.Definition().Function.Name
	r.tools[name] = t
	r.order = append(r.order, name)
}

// Definitions returns all tool definitions in registration order.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches one tool call by name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return Result{}, fmt.Errorf("unknown tool %q", name)
	}
	return t.Execute(ctx, args)
}
