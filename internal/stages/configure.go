package stages

import (
	"context"
	"fmt"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Configure invokes the upstream configure script with the resolved
// prefix, GPU toolkit location, compute architectures and binding
// interpreter. Invalid parameter combinations (an unsupported arch
// string, a bad toolkit path) are rejected by the tool itself and
// surfaced verbatim, never reinterpreted here. After this stage starts,
// nothing mutates the source tree again.
type Configure struct {
	runner Runner
}

// NewConfigure creates the build configuration stage.
func NewConfigure(runner Runner) *Configure {
	return &Configure{runner: runner}
}

// ID implements dag.Stage.
func (s *Configure) ID() string { return "configure" }

// Run implements dag.Stage. Configuration is idempotent for identical
// inputs against an unchanged tree.
func (s *Configure) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)

	args := []string{
		fmt.Sprintf("--prefix=%s", bctx.Prefix),
		fmt.Sprintf("--with-cuda=%s", bctx.CUDARoot),
		fmt.Sprintf("--with-cuda-arch=%s", bctx.GencodeFlags()),
		fmt.Sprintf("--with-python=%s", bctx.Python),
	}

	logger.Info("Configuring build tree.", "prefix", bctx.Prefix, "archs", bctx.Archs)
	if err := s.runner.Run(ctx, bctx.WorkDir, nil, "./configure", args...); err != nil {
		return fmt.Errorf("%w: configure: %v", ErrConfiguration, err)
	}

	logger.Info("Build tree configured.")
	return nil
}
