package nodes

import (
	"context"
	"time"

	"github.com/inferpipe/inferpipe/internal/llmutil"
	"github.com/inferpipe/inferpipe/internal/provider"
	"github.com/inferpipe/inferpipe/internal/schema"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// AINode renders the node's prompt with upstream context and calls the
// model capability, optionally coercing the response into the node's
// structured schema.
type AINode struct {
	providers *provider.Registry
}

func NewAINode(providers *provider.Registry) *AINode {
	return &AINode{providers: providers}
}

func (n *AINode) Execute(ctx context.Context, node *workflow.Node, input any) (*Result, error) {
	data := workflow.DecodeAIData(node)

	prov, model, err := n.providers.Resolve(data.Model)
	if err != nil {
		return nil, &workflow.ProviderError{Model: data.Model, Err: err}
	}

	prompt := renderPrompt(data.Prompt, input)
	started := time.Now()

	var output any
	var usage *provider.Usage

	switch data.OutputFormat {
	case "json":
		output, usage, err = n.generateJSON(ctx, prov, model, prompt, data)
	default:
		output, usage, err = n.generateText(ctx, prov, model, prompt, data)
	}
	if err != nil {
		return nil, &workflow.ProviderError{Model: data.Model, Err: err}
	}

	meta := &workflow.StepMetadata{
		Model:          data.Model,
		DurationMillis: time.Since(started).Milliseconds(),
	}
	if usage != nil {
		meta.Tokens = &workflow.TokenUsage{Input: usage.InputTokens, Output: usage.OutputTokens}
		meta.Cost = provider.EstimateCost(model, usage)
	}
	return &Result{Output: output, Metadata: meta}, nil
}

func (n *AINode) generateText(ctx context.Context, prov provider.Provider, model, prompt string, data workflow.AINodeData) (any, *provider.Usage, error) {
	res, err := prov.GenerateText(ctx, &provider.TextRequest{
		Model:            model,
		Prompt:           prompt,
		WebSearchOptions: data.WebSearchOptions,
	})
	if err != nil {
		return nil, nil, err
	}
	return res.Text, res.Usage, nil
}

// generateJSON requests structured output. Models with native structured
// output get the compiled JSON schema; chat-only models (search previews)
// get plain text with JSON-only instructions, parsed loosely. A response
// that defeats every parse strategy comes back as {"raw": text} so one
// malformed model reply doesn't abort the step.
func (n *AINode) generateJSON(ctx context.Context, prov provider.Provider, model, prompt string, data workflow.AINodeData) (any, *provider.Usage, error) {
	validator := schema.Compile(data.Schema)

	if !provider.RequiresChatCompletions(model) {
		res, err := prov.GenerateStructured(ctx, &provider.StructuredRequest{
			Model:      model,
			Prompt:     prompt,
			SchemaName: schemaName(data.Schema),
			Validator:  validator,
		})
		if err != nil {
			return nil, nil, err
		}
		return res.Object, res.Usage, nil
	}

	res, err := prov.GenerateText(ctx, &provider.TextRequest{
		Model:            model,
		Prompt:           prompt + jsonOnlyInstruction,
		WebSearchOptions: data.WebSearchOptions,
	})
	if err != nil {
		return nil, nil, err
	}

	parsed, ok := llmutil.ParseLoose(res.Text)
	if !ok {
		return map[string]any{"raw": res.Text}, res.Usage, nil
	}
	// Validation is advisory here: a draft schema must not discard an
	// otherwise usable response.
	_ = validator.Validate(parsed)
	return parsed, res.Usage, nil
}

func schemaName(s *schema.StructuredSchema) string {
	if s == nil {
		return ""
	}
	return s.Name
}
