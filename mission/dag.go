package mission

import (
	"fmt"

	"github.com/fenwick-systems/missioncore/runtime"
)

// dagNode mirrors the teacher's DAGNode shape (id, dependencies,
// dependents computed from them) but carries no execution status —
// status belongs to the scheduler, not the static graph.
type dagNode struct {
	id           string
	dependencies []string
	dependents   []string
}

// DAG is the dependency graph computed from a Mission's steps. The
// scheduler builds one from a validated Mission and walks it to find
// ready sets and successors; mission.Validate uses the same structure
// purely to check acyclicity and dependency existence up front.
type DAG struct {
	nodes map[string]*dagNode
	order []string // declaration order, for deterministic iteration
}

// BuildDAG constructs a DAG from steps without validating it — callers
// that need validation should call Validate on the Mission first, which
// uses BuildDAG internally and also performs the cycle/existence checks.
func BuildDAG(steps []Step) *DAG {
	d := &DAG{nodes: make(map[string]*dagNode, len(steps))}
	for _, s := range steps {
		d.nodes[s.ID] = &dagNode{id: s.ID, dependencies: append([]string(nil), s.DependsOn...)}
		d.order = append(d.order, s.ID)
	}
	for _, id := range d.order {
		node := d.nodes[id]
		for _, dep := range node.dependencies {
			if depNode, ok := d.nodes[dep]; ok {
				depNode.dependents = append(depNode.dependents, node.id)
			}
		}
	}
	return d
}

// Dependents returns the direct successors of stepID, in declaration
// order for determinism.
func (d *DAG) Dependents(stepID string) []string {
	node, ok := d.nodes[stepID]
	if !ok {
		return nil
	}
	return append([]string(nil), node.dependents...)
}

// Dependencies returns the direct predecessors declared for stepID.
func (d *DAG) Dependencies(stepID string) []string {
	node, ok := d.nodes[stepID]
	if !ok {
		return nil
	}
	return append([]string(nil), node.dependencies...)
}

// Roots returns every step with no dependencies, in declaration order —
// the scheduler's initial ready set.
func (d *DAG) Roots() []string {
	var roots []string
	for _, id := range d.order {
		if len(d.nodes[id].dependencies) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// TransitiveDependents returns every step reachable forward from
// stepID (not including stepID itself), used by the scheduler's
// skip-cascade when a non-fail-fast failure propagates to successors.
func (d *DAG) TransitiveDependents(stepID string) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(string)
	walk = func(id string) {
		for _, dep := range d.Dependents(id) {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
				walk(dep)
			}
		}
	}
	walk(stepID)
	return out
}

// validateAcyclic runs DFS three-color cycle detection over the
// dependency edges (step -> its dependencies), the direction a
// dependency graph's cycle check needs to walk, adapted from the
// teacher's hasCycleDFS (which walks dependents using a visited/
// recursion-stack pair).
func (d *DAG) validateAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(d.nodes))
	var cycleNode string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, dep := range d.nodes[id].dependencies {
			depNode, ok := d.nodes[dep]
			if !ok {
				continue // missing dependency reported separately
			}
			switch color[depNode.id] {
			case white:
				if visit(depNode.id) {
					return true
				}
			case gray:
				cycleNode = depNode.id
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range d.order {
		if color[id] == white {
			if visit(id) {
				return runtime.NewMissionError("Mission.Validate", runtime.KindConfig, cycleNode,
					fmt.Errorf("%w: cycle includes step %q", runtime.ErrCycle, cycleNode))
			}
		}
	}
	return nil
}

// ExecutionLevels groups step ids by topological level (steps that can
// run in parallel once all earlier levels finished), mirroring the
// teacher's GetExecutionLevels. Only meaningful on an already-validated
// (acyclic, dependency-complete) DAG.
func (d *DAG) ExecutionLevels() [][]string {
	processed := make(map[string]bool, len(d.nodes))
	var levels [][]string
	for {
		var level []string
		for _, id := range d.order {
			if processed[id] {
				continue
			}
			ready := true
			for _, dep := range d.nodes[id].dependencies {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, id := range level {
			processed[id] = true
		}
		levels = append(levels, level)
	}
	return levels
}
