package nodes

import (
	"context"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// InputNode passes the seed input through unchanged.
type InputNode struct{}

func (n *InputNode) Execute(_ context.Context, _ *workflow.Node, input any) (*Result, error) {
	return &Result{Output: input}, nil
}
