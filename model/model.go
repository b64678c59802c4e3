package model

import (
	"context"

	"github.com/fablecraft/storyagent/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// NewToolDefinition builds a function tool definition from a name,
// description and parameter schema.
func NewToolDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the orchestrator needs from a provider.
//
// Complete returns plain text for classification-free calls. GenerateWithTools
// may return an AI message carrying tool calls for the caller to dispatch.
// GenerateJSON constrains the output to a JSON schema and decodes it into out.
type Model interface {
	Complete(ctx context.Context, msgs []core.Message) (string, error)
	GenerateWithTools(ctx context.Context, msgs []core.Message, tools []ToolDefinition) (core.Message, error)
	GenerateJSON(ctx context.Context, msgs []core.Message, schema map[string]any, out any) error

	// Info returns information about the model implementation.
	Info() Info
}
