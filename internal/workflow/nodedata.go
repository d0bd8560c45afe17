package workflow

import (
	"encoding/json"

	"github.com/inferpipe/inferpipe/internal/schema"
)

// DefaultModel is used when an ai node has no model configured.
const DefaultModel = "gpt-4o-mini"

// InputNodeData is the configuration of an input node: the seed payload
// for a run.
type InputNodeData struct {
	TextInput  string `json:"textInput"`
	FileInput  string `json:"fileInput,omitempty"`
	WorkflowID string `json:"workflowId,omitempty"`
}

// AINodeData is the configuration of an ai node: a prompt template, a
// provider model id, and the desired output shape.
type AINodeData struct {
	Prompt           string                   `json:"prompt"`
	Model            string                   `json:"model"`
	OutputFormat     string                   `json:"outputFormat"`
	Schema           *schema.StructuredSchema `json:"schema,omitempty"`
	WebSearchOptions map[string]any           `json:"webSearchOptions,omitempty"`
}

// DecodeInputData decodes a node's opaque data blob as input-node
// configuration. Unknown fields are dropped; missing fields get zero values.
func DecodeInputData(n *Node) InputNodeData {
	var d InputNodeData
	remarshal(n.Data, &d)
	return d
}

// DecodeAIData decodes a node's opaque data blob as ai-node configuration,
// applying defaults for the model and output format.
func DecodeAIData(n *Node) AINodeData {
	var d AINodeData
	remarshal(n.Data, &d)
	if d.Model == "" {
		d.Model = DefaultModel
	}
	if d.OutputFormat == "" {
		d.OutputFormat = "text"
	}
	return d
}

// remarshal converts a decoded-JSON map into a typed struct. Errors are
// ignored: node data is user-authored and in-progress, so a malformed blob
// degrades to defaults rather than failing the decode.
func remarshal(src map[string]any, dst any) {
	if src == nil {
		return
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return
	}
	json.Unmarshal(raw, dst)
}
