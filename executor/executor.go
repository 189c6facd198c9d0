// Package executor walks a planner.Circuit over a graph.Graph, running each
// transition in turn and rerouting around failures, ported from
// original_source/test_driver.py's TraverseGraph.
package executor

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/arkwright/stl/graph"
	"github.com/arkwright/stl/planner"
)

// Traverse plans and runs a full conformance pass over g: it computes a
// minimum edge-cover circuit from g's initial vertex, executes each
// transition in order, and whenever one fails, marks that edge exhausted
// and splices in a rerouted path from the failed transition's error vertex
// back to the original edge's target. The result is false if any transition
// failed. A failure does not end the run by itself: it continues through
// the reroute and the rest of the circuit, and stops early only when no
// reroute exists or when it reaches an edge that has already failed.
func Traverse(logger *log.Logger, g *graph.Graph) (bool, error) {
	w := planner.NewWeights(g)
	circuit, err := planner.Plan(g, w)
	if err != nil {
		return false, err
	}

	success := true
	queue := circuit

	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]

		if math.IsInf(w.Get(step.From, step.Index), 1) {
			// This edge already failed and was rerouted around once; running
			// into it again means the reroute itself is exhausted.
			return success, nil
		}

		name := step.Edge.Transition.Name
		logger.Info("RUNNING", "transition", name, "from", step.From, "to", step.To)

		ok, err := step.Edge.Transition.Run()
		if err != nil {
			return false, err
		}
		if ok {
			logger.Info("PASSED", "transition", name)
			continue
		}

		logger.Error("FAILED", "transition", name)
		success = false
		w.SetInfinite(step.From, step.Index)

		reroute, err := planner.ShortestPath(g, w, step.Edge.ErrorTarget.ID, step.To)
		if err != nil {
			// No way to recover from here; the rest of the planned circuit
			// is unreachable, so stop.
			return success, nil
		}
		queue = append(append(planner.Circuit{}, reroute...), queue...)
	}

	return success, nil
}
