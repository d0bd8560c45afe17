// Package nodes implements per-node-type execution: input passthrough and
// ai model calls.
package nodes

import (
	"context"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// Result is one node invocation's output plus optional model metadata.
type Result struct {
	Output   any
	Metadata *workflow.StepMetadata
}

// Executor performs one node's work given the accumulated upstream output.
type Executor interface {
	Execute(ctx context.Context, node *workflow.Node, input any) (*Result, error)
}
