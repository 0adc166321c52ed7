package dag

import (
	"context"
	"fmt"

	"github.com/gookit/color"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Executor runs a stage graph to completion, strictly one stage at a
// time. Each stage is a full barrier: no successor starts until its
// predecessors have succeeded. The first failure halts the run; there is
// no retry or partial-recovery path in-process.
type Executor struct {
	graph *Graph
}

// NewExecutor wraps a graph for execution.
func NewExecutor(g *Graph) *Executor {
	return &Executor{graph: g}
}

// Run executes every stage in topological order and returns the first
// stage error, wrapped with the stage ID. Stages downstream of a failure
// are marked skipped and never invoked.
func (e *Executor) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := e.graph.DetectCycles(); err != nil {
		return fmt.Errorf("invalid stage graph: %w", err)
	}

	order, err := e.topoOrder()
	if err != nil {
		return err
	}
	logger.Debug("Stage order resolved.", "stages", order)

	for _, id := range order {
		e.graph.mutex.RLock()
		n := e.graph.nodes[id]
		e.graph.mutex.RUnlock()

		color.Bold.Printf("==> %s\n", id)
		logger.Info("Stage starting.", "stage", id)

		if runErr := n.stage.Run(ctx, bctx); runErr != nil {
			e.graph.mutex.Lock()
			n.state = StateFailed
			e.graph.mutex.Unlock()
			e.skipDependents(ctx, n)

			color.Red.Printf("==> %s failed\n", id)
			logger.Error("Stage failed, halting pipeline.", "stage", id, "error", runErr)
			return fmt.Errorf("stage %s: %w", id, runErr)
		}

		e.graph.mutex.Lock()
		n.state = StateDone
		e.graph.mutex.Unlock()
		logger.Info("Stage complete.", "stage", id)
	}

	return nil
}

// skipDependents recursively marks all downstream stages as skipped so a
// later inspection can tell "never reached" apart from "ran".
func (e *Executor) skipDependents(ctx context.Context, n *node) {
	logger := ctxlog.FromContext(ctx)

	e.graph.mutex.Lock()
	dependents := make([]*node, 0, len(n.dependents))
	for _, d := range n.dependents {
		dependents = append(dependents, d)
	}
	e.graph.mutex.Unlock()

	for _, d := range dependents {
		e.graph.mutex.Lock()
		alreadySkipped := d.state == StateSkipped
		if !alreadySkipped {
			d.state = StateSkipped
		}
		e.graph.mutex.Unlock()

		if alreadySkipped {
			continue
		}
		logger.Warn("Skipping stage due to upstream failure.", "stage", d.id, "failed", n.id)
		e.skipDependents(ctx, d)
	}
}

// topoOrder returns a stable topological ordering of the graph,
// preferring insertion order among stages whose dependencies are all
// satisfied. A non-empty remainder means a cycle slipped past validation.
func (e *Executor) topoOrder() ([]string, error) {
	e.graph.mutex.RLock()
	defer e.graph.mutex.RUnlock()

	indegree := make(map[string]int, len(e.graph.nodes))
	for id, n := range e.graph.nodes {
		indegree[id] = len(n.deps)
	}

	order := make([]string, 0, len(e.graph.nodes))
	placed := make(map[string]bool, len(e.graph.nodes))

	for len(order) < len(e.graph.nodes) {
		progressed := false
		for _, id := range e.graph.order {
			if placed[id] || indegree[id] > 0 {
				continue
			}
			placed[id] = true
			order = append(order, id)
			for depID := range e.graph.nodes[id].dependents {
				indegree[depID]--
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("stage graph has no valid ordering")
		}
	}

	return order, nil
}
