// Package dag builds a dependency graph from a workflow's declared edges.
// Execution currently follows the canvas-position order (see engine), so the
// graph is used to validate edge references and reject cycles; the
// topological order is computed for the planned edge-driven scheduler.
package dag

import (
	"sort"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

type DAG struct {
	nodes     map[string]*workflow.Node
	children  map[string][]string
	parents   map[string][]string
	topoOrder []string
}

// Build constructs the graph and validates it: node ids must be unique,
// every edge must reference existing nodes, and the graph must be acyclic.
// Violations are reported as *workflow.GraphError.
func Build(wf *workflow.Workflow) (*DAG, error) {
	d := &DAG{
		nodes:    make(map[string]*workflow.Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}

	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if _, exists := d.nodes[n.ID]; exists {
			return nil, &workflow.GraphError{Reason: "duplicate node id: " + n.ID}
		}
		d.nodes[n.ID] = n
	}

	for _, e := range wf.Edges {
		if _, ok := d.nodes[e.Source]; !ok {
			return nil, &workflow.GraphError{Reason: "edge references unknown node: " + e.Source}
		}
		if _, ok := d.nodes[e.Target]; !ok {
			return nil, &workflow.GraphError{Reason: "edge references unknown node: " + e.Target}
		}
		d.children[e.Source] = append(d.children[e.Source], e.Target)
		d.parents[e.Target] = append(d.parents[e.Target], e.Source)
	}

	order, err := d.topoSort()
	if err != nil {
		return nil, err
	}
	d.topoOrder = order
	return d, nil
}

// topoSort runs Kahn's algorithm with lexicographic tie-breaking so the
// order is deterministic.
func (d *DAG) topoSort() ([]string, error) {
	inDegree := make(map[string]int)
	for id := range d.nodes {
		inDegree[id] = 0
	}
	for _, children := range d.children {
		for _, c := range children {
			inDegree[c]++
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, c := range d.children[node] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
		sort.Strings(queue)
	}

	if len(order) != len(d.nodes) {
		return nil, &workflow.GraphError{Reason: "cycle detected in workflow graph"}
	}
	return order, nil
}

func (d *DAG) TopologicalOrder() []string      { return d.topoOrder }
func (d *DAG) Children(nodeID string) []string { return d.children[nodeID] }
func (d *DAG) Parents(nodeID string) []string  { return d.parents[nodeID] }
func (d *DAG) Node(id string) *workflow.Node   { return d.nodes[id] }
