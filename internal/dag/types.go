package dag

import (
	"context"
	"sync"

	"github.com/vk/faissbuild/internal/buildctx"
)

// Stage is a single pipeline step. Run must block until the step has
// fully completed; the executor treats every stage as a full barrier.
type Stage interface {
	// ID uniquely identifies the stage within a graph.
	ID() string
	// Run executes the stage against the resolved build context.
	Run(ctx context.Context, bctx *buildctx.Context) error
}

// State describes where a stage ended up after an executor run.
type State int

const (
	// StatePending means the stage was never reached.
	StatePending State = iota
	// StateDone means the stage ran and succeeded.
	StateDone
	// StateFailed means the stage ran and returned an error.
	StateFailed
	// StateSkipped means an upstream stage failed before this one started.
	StateSkipped
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Graph is a collection of stages and the ordering edges between them.
// All operations on the graph are concurrency-safe, though the executor
// itself runs stages strictly one at a time.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their stage ID.
	nodes map[string]*node
	// order remembers insertion order so topological runs are stable
	// across invocations with the same wiring.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using stage IDs),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id string
	// stage is the work this node performs.
	stage Stage
	// state records the outcome of the last executor run.
	state State
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}
