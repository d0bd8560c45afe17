package preview

import (
	"context"
	"errors"
	"testing"

	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/provider"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

type scriptedProvider struct {
	replies []string
	fail    map[int]bool // 1-based call number -> fail
	calls   int
}

func (p *scriptedProvider) Name() string { return "openai" }

func (p *scriptedProvider) GenerateText(_ context.Context, _ *provider.TextRequest) (*provider.TextResult, error) {
	p.calls++
	if p.fail[p.calls] {
		return nil, errors.New("model unavailable")
	}
	reply := "ok"
	if p.calls <= len(p.replies) {
		reply = p.replies[p.calls-1]
	}
	return &provider.TextResult{Text: reply}, nil
}

func (p *scriptedProvider) GenerateStructured(_ context.Context, _ *provider.StructuredRequest) (*provider.StructuredResult, error) {
	p.calls++
	return &provider.StructuredResult{Object: map[string]any{}}, nil
}

func previewWorkflow(aiCount int) *workflow.Workflow {
	wf := &workflow.Workflow{Nodes: []workflow.Node{{
		ID: "in", Type: workflow.NodeTypeInput,
		Data: map[string]any{"textInput": "seed text"},
	}}}
	for i := 0; i < aiCount; i++ {
		wf.Nodes = append(wf.Nodes, workflow.Node{
			ID: workflow.NewID("node"), Type: workflow.NodeTypeAI,
			Position: workflow.Position{X: float64((i + 1) * 100)},
			Data:     map[string]any{"prompt": "go", "model": "m", "outputFormat": "text"},
		})
	}
	return wf
}

func newPreviewSession(p provider.Provider) *Session {
	reg := provider.NewRegistry()
	reg.Register(p)
	return NewSession(engine.NewRunner(reg, 0))
}

func TestSessionRunRecordsAllSteps(t *testing.T) {
	session := newPreviewSession(&scriptedProvider{replies: []string{"one", "two"}})
	wf := previewWorkflow(2)

	result, err := session.Run(context.Background(), wf, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	steps, _ := result["steps"].([]StepRecord)
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want input + 2 ai", len(steps))
	}

	// Step 1 is the synthesized input step carrying the authored text.
	if steps[0].Step != 1 || steps[0].NodeID != "in" {
		t.Fatalf("step 1 = %+v", steps[0])
	}
	seed, _ := steps[0].Output.(map[string]any)
	if seed["text"] != "seed text" {
		t.Fatalf("input step output = %#v", steps[0].Output)
	}

	if steps[1].Step != 2 || steps[1].Output != "one" {
		t.Fatalf("step 2 = %+v", steps[1])
	}
	if steps[2].Step != 3 || steps[2].Output != "two" {
		t.Fatalf("step 3 = %+v", steps[2])
	}
	// Outputs thread forward.
	if steps[2].Input != "one" {
		t.Fatalf("step 3 input = %#v, want previous output", steps[2].Input)
	}
}

func TestSessionFailureKeepsEarlierSteps(t *testing.T) {
	session := newPreviewSession(&scriptedProvider{
		replies: []string{"one"},
		fail:    map[int]bool{2: true},
	})
	wf := previewWorkflow(3)

	result, err := session.Run(context.Background(), wf, nil)
	if err == nil {
		t.Fatal("expected failure from second ai node")
	}

	steps, _ := result["steps"].([]StepRecord)
	// Input step, completed first ai, failed second ai; third never starts.
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	if steps[1].Error != nil || steps[1].Output != "one" {
		t.Fatalf("first ai step = %+v", steps[1])
	}
	if steps[2].Error == nil {
		t.Fatalf("failing step must carry its error: %+v", steps[2])
	}
}

func TestSessionRunNode(t *testing.T) {
	session := newPreviewSession(&scriptedProvider{replies: []string{"solo"}})
	wf := previewWorkflow(2)

	out, err := session.RunNode(context.Background(), wf, wf.Nodes[2].ID, map[string]any{"text": "x"})
	if err != nil {
		t.Fatalf("run node: %v", err)
	}
	if out != "solo" {
		t.Fatalf("output = %v", out)
	}
	if steps := session.Steps(); len(steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(steps))
	}
}
