package stages

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// CompileCore builds the core library with full make parallelism. The
// binding build is a separate stage behind an explicit graph edge: it
// links against the core library's symbols, so the ordering is a checked
// dependency rather than incidental script order.
type CompileCore struct {
	runner Runner
}

// NewCompileCore creates the core library compile stage.
func NewCompileCore(runner Runner) *CompileCore {
	return &CompileCore{runner: runner}
}

// ID implements dag.Stage.
func (s *CompileCore) ID() string { return "compile-core" }

// Run implements dag.Stage.
func (s *CompileCore) Run(ctx context.Context, bctx *buildctx.Context) error {
	ctxlog.FromContext(ctx).Info("Compiling core library.", "jobs", bctx.Jobs)
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "make", "-j", strconv.Itoa(bctx.Jobs)); err != nil {
		return fmt.Errorf("%w: core library: %v", ErrBuild, err)
	}
	return nil
}

// CompileBindings builds the Python binding module against the compiled
// core library. Outputs stay in the build tree; nothing is installed at
// this stage.
type CompileBindings struct {
	runner Runner
}

// NewCompileBindings creates the binding compile stage.
func NewCompileBindings(runner Runner) *CompileBindings {
	return &CompileBindings{runner: runner}
}

// ID implements dag.Stage.
func (s *CompileBindings) ID() string { return "compile-bindings" }

// Run implements dag.Stage.
func (s *CompileBindings) Run(ctx context.Context, bctx *buildctx.Context) error {
	ctxlog.FromContext(ctx).Info("Compiling Python bindings.", "jobs", bctx.Jobs)
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "make", "-j", strconv.Itoa(bctx.Jobs), "-C", "python"); err != nil {
		return fmt.Errorf("%w: bindings: %v", ErrBuild, err)
	}
	return nil
}
