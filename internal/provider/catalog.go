package provider

import "strings"

// ModelOption describes a selectable model in the builder.
type ModelOption struct {
	Value        string             `json:"value"`
	Label        string             `json:"label"`
	Description  string             `json:"description,omitempty"`
	Capabilities *ModelCapabilities `json:"capabilities,omitempty"`
}

type ModelCapabilities struct {
	WebSearch bool `json:"webSearch,omitempty"`
}

// ModelGroup is a labelled section in the model picker.
type ModelGroup struct {
	Label   string        `json:"label"`
	Options []ModelOption `json:"options"`
}

// Catalog lists the models offered in the builder UI.
func Catalog() []ModelGroup {
	return []ModelGroup{
		{
			Label: "Reasoning",
			Options: []ModelOption{
				{Value: "gpt-4.1", Label: "GPT-4.1", Description: "Latest flagship reasoning model"},
				{Value: "gpt-4.1-mini", Label: "GPT-4.1 Mini", Description: "Lightweight reasoning with lower cost"},
			},
		},
		{
			Label: "General Purpose",
			Options: []ModelOption{
				{Value: "gpt-4o", Label: "GPT-4o", Description: "Balanced quality for multimodal tasks"},
				{Value: "gpt-4o-mini", Label: "GPT-4o Mini", Description: "Fast, cost-effective general model"},
				{Value: "gpt-4-turbo", Label: "GPT-4 Turbo", Description: "High-quality GPT-4 generation"},
				{Value: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo", Description: "Legacy fast model"},
			},
		},
		{
			Label: "Web Search",
			Options: []ModelOption{
				{Value: "gpt-4o-search-preview", Label: "GPT-4o Search Preview", Description: "Web-enabled GPT-4o preview", Capabilities: &ModelCapabilities{WebSearch: true}},
				{Value: "gpt-4o-mini-search-preview", Label: "GPT-4o Mini Search Preview", Description: "Web-enabled GPT-4o mini preview", Capabilities: &ModelCapabilities{WebSearch: true}},
			},
		},
	}
}

// RequiresChatCompletions reports whether a model only supports unstructured
// chat responses. Structured requests to these models go through plain text
// generation with explicit JSON instructions and loose parsing.
func RequiresChatCompletions(model string) bool {
	return strings.Contains(strings.ToLower(model), "search")
}
