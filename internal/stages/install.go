package stages

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Install is an opt-in terminal stage: it copies the compiled library
// tree into the install prefix and registers the binding package into
// the interpreter's package path. Disabled unless the run was configured
// with install=true.
type Install struct {
	runner Runner
}

// NewInstall creates the install stage.
func NewInstall(runner Runner) *Install {
	return &Install{runner: runner}
}

// ID implements dag.Stage.
func (s *Install) ID() string { return "install" }

// Run implements dag.Stage.
func (s *Install) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)

	logger.Info("Installing library.", "prefix", bctx.Prefix)
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "make", "-j", strconv.Itoa(bctx.Jobs), "install"); err != nil {
		return fmt.Errorf("%w: make install: %v", ErrBuild, err)
	}

	logger.Info("Registering binding package.", "python", bctx.Python)
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "make", "-C", "python", "install"); err != nil {
		return fmt.Errorf("%w: binding install: %v", ErrBuild, err)
	}
	return nil
}

// TestRun is the second opt-in terminal stage: it executes the upstream
// test suite against the built tree. A slice of the upstream tests still
// assumes the older Python dialect and fails under the pinned
// interpreter; that is a known upstream gap, reported as-is rather than
// patched around.
type TestRun struct {
	runner Runner
}

// NewTestRun creates the upstream test suite stage.
func NewTestRun(runner Runner) *TestRun {
	return &TestRun{runner: runner}
}

// ID implements dag.Stage.
func (s *TestRun) ID() string { return "test" }

// Run implements dag.Stage.
func (s *TestRun) Run(ctx context.Context, bctx *buildctx.Context) error {
	ctxlog.FromContext(ctx).Info("Running upstream test suite; expect known interpreter-dialect failures.")
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "make", "test"); err != nil {
		return fmt.Errorf("%w: upstream tests: %v", ErrBuild, err)
	}
	return nil
}
