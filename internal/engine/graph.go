package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/errors"
)

// DAG is the dependency graph over a descriptor set, used to gate
// creation order. Edges come from explicit DependsOn entries and from
// implicit ref:// references inside descriptor config.
type DAG struct {
	nodes map[string]*dagNode
	order []string // topological order (creation order)
}

type dagNode struct {
	id       string
	edges    []string // descriptors this node depends on
	revEdges []string // descriptors that depend on this node
}

// BuildDAG constructs the dependency graph. Unknown reference targets
// and cycles are configuration errors, reported before any remote call.
func BuildDAG(set *descriptor.Set) (*DAG, error) {
	dag := &DAG{nodes: make(map[string]*dagNode, len(set.Items))}

	for _, d := range set.Items {
		dag.nodes[d.ID] = &dagNode{id: d.ID}
	}

	for _, d := range set.Items {
		node := dag.nodes[d.ID]

		for _, dep := range d.DependsOn {
			if _, ok := dag.nodes[dep]; !ok {
				return nil, errors.ForDescriptor(errors.CodeConfiguration, d.ID,
					fmt.Sprintf("depends on unknown descriptor %q", dep))
			}
			node.edges = append(node.edges, dep)
		}

		for _, ref := range extractRefs(d.Config) {
			target := refTarget(ref)
			if target == "" {
				return nil, errors.ForDescriptor(errors.CodeConfiguration, d.ID,
					fmt.Sprintf("malformed reference %q", ref))
			}
			if _, ok := dag.nodes[target]; !ok {
				return nil, errors.ForDescriptor(errors.CodeConfiguration, d.ID,
					fmt.Sprintf("references unknown descriptor %q", target))
			}
			if target == d.ID {
				return nil, errors.ForDescriptor(errors.CodeConfiguration, d.ID, "references itself")
			}
			if !contains(node.edges, target) {
				node.edges = append(node.edges, target)
			}
		}
	}

	for id, node := range dag.nodes {
		for _, dep := range node.edges {
			dag.nodes[dep].revEdges = append(dag.nodes[dep].revEdges, id)
		}
	}

	order, err := dag.topoSort()
	if err != nil {
		return nil, err
	}
	dag.order = order

	return dag, nil
}

// Order returns descriptor ids in dependency-respecting creation order.
func (d *DAG) Order() []string {
	return d.order
}

// Dependencies returns the direct dependencies of a descriptor.
func (d *DAG) Dependencies(id string) []string {
	if node, ok := d.nodes[id]; ok {
		return node.edges
	}
	return nil
}

// topoSort performs Kahn's algorithm over the graph.
func (d *DAG) topoSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	for id, node := range d.nodes {
		inDegree[id] = len(node.edges)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	// Stable order across runs: ties break on descriptor id.
	var sorted []string
	for len(queue) > 0 {
		sort.Strings(queue)
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, dependent := range d.nodes[id].revEdges {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(d.nodes) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, errors.Newf(errors.CodeConfiguration,
			"dependency cycle involving %s", strings.Join(stuck, ", "))
	}

	return sorted, nil
}

// extractRefs collects all ref:// references from a config value.
func extractRefs(v any) []string {
	var refs []string
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "ref://") {
			refs = append(refs, val)
		}
	case map[string]any:
		for _, v := range val {
			refs = append(refs, extractRefs(v)...)
		}
	case []any:
		for _, v := range val {
			refs = append(refs, extractRefs(v)...)
		}
	}
	return refs
}

// refTarget extracts the descriptor id from a ref:// reference.
// ref://userpool/id -> userpool
func refTarget(ref string) string {
	path := strings.TrimPrefix(ref, "ref://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0]
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
