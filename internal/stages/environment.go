package stages

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Environment seals the build environment: it verifies the GPU toolkit is
// where the build context says it is and installs the pinned system
// package set at exact versions. Pinning every version removes the last
// source of drift between runs of the same manifest.
type Environment struct {
	runner Runner
}

// NewEnvironment creates the environment preparation stage.
func NewEnvironment(runner Runner) *Environment {
	return &Environment{runner: runner}
}

// ID implements dag.Stage.
func (s *Environment) ID() string { return "environment" }

// Run implements dag.Stage.
func (s *Environment) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)

	// The deploy-time GPU runtime must match this tag; that contract is
	// external and unverifiable here, so it is at least made loud.
	logger.Info("Preparing environment.", "cuda_tag", bctx.CUDATag, "cuda_root", bctx.CUDARoot)

	if _, err := os.Stat(bctx.CUDARoot); err != nil {
		return fmt.Errorf("%w: GPU toolkit not found at %s: %v", ErrEnvironment, bctx.CUDARoot, err)
	}

	if len(bctx.Packages) == 0 {
		logger.Info("No system packages pinned, environment unchanged.")
		return nil
	}

	if err := s.runner.Run(ctx, "", aptEnv(), "apt-get", "update"); err != nil {
		return fmt.Errorf("%w: apt-get update: %v", ErrEnvironment, err)
	}

	// name=version pins, sorted so the install command is identical
	// across runs of the same manifest.
	names := make([]string, 0, len(bctx.Packages))
	for name := range bctx.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	args := []string{"install", "-y", "--no-install-recommends"}
	for _, name := range names {
		args = append(args, fmt.Sprintf("%s=%s", name, bctx.Packages[name]))
	}

	// apt-get fails the whole transaction if any pinned version is
	// unavailable, which is exactly the wanted behavior.
	if err := s.runner.Run(ctx, "", aptEnv(), "apt-get", args...); err != nil {
		return fmt.Errorf("%w: pinned package install: %v", ErrEnvironment, err)
	}

	logger.Info("Environment sealed.", "packages", len(names))
	return nil
}

func aptEnv() []string {
	return []string{"DEBIAN_FRONTEND=noninteractive"}
}
