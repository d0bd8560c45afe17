// Package provider defines the model-capability boundary: given a model id,
// a prompt, and optionally a compiled output schema, produce text or a
// structured object plus usage stats.
package provider

import (
	"context"
	"strings"

	"github.com/inferpipe/inferpipe/internal/schema"
)

// Usage reports token consumption for a single model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TextRequest asks for a free-text completion.
type TextRequest struct {
	Model            string
	Prompt           string
	WebSearchOptions map[string]any
}

// TextResult is the raw completion text plus usage when the provider
// reports it.
type TextResult struct {
	Text  string
	Usage *Usage
}

// StructuredRequest asks for output conforming to a compiled schema.
type StructuredRequest struct {
	Model      string
	Prompt     string
	SchemaName string
	Validator  *schema.Validator
}

// StructuredResult is the parsed object plus usage.
type StructuredResult struct {
	Object any
	Usage  *Usage
}

// Provider is a model backend. GenerateStructured is only called for models
// that support native structured output; chat-only models are routed through
// GenerateText with explicit JSON instructions by the node executor.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error)
	GenerateStructured(ctx context.Context, req *StructuredRequest) (*StructuredResult, error)
}

// ParseModelID splits an optional "provider/model" id. Bare model ids
// (the builder's default) resolve to the default provider.
func ParseModelID(modelID string) (providerName, modelName string) {
	parts := strings.SplitN(modelID, "/", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1]
	}
	return "", modelID
}
