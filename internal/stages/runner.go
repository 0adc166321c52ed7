// Package stages implements the pipeline's build stages: environment
// preparation, source acquisition, patch overlay, configuration, the two
// compile passes, packaging, and the opt-in install and test extensions.
// Each stage wraps external tools (apt-get, git, configure, make, the
// Python interpreter) and never reinterprets their output.
package stages

import (
	"context"
	"os"
	"os/exec"

	"github.com/vk/faissbuild/internal/ctxlog"
)

// Runner executes an external command in a working directory. The single
// seam between stage logic and the host toolchain; tests substitute a
// recording fake here.
type Runner interface {
	// Run streams the command's stdout/stderr through unmodified and
	// returns the command's error on a non-zero exit. extraEnv entries
	// (KEY=VAL) are appended to the inherited environment.
	Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error
}

// ExecRunner is the real Runner backed by os/exec. Tool diagnostics go
// straight to the process's stdout/stderr; no stage swallows or
// summarizes them.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error {
	ctxlog.FromContext(ctx).Debug("Running command.", "dir", dir, "cmd", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	return cmd.Run()
}
