package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
	"github.com/vk/faissbuild/internal/fsutil"
)

// bindingModule is the compiled SWIG extension the wheel is built from.
// Its absence means the binding compile never ran to completion.
const bindingModule = "_swigfaiss.so"

// Package wraps the binding language's packaging tool to produce the
// distributable wheel. It refuses to run against an incomplete build
// tree: packaging without compiled inputs would "succeed" with a broken
// archive, which is strictly worse than failing here.
type Package struct {
	runner Runner

	// archivePath is set after a successful run, for callers that report
	// the export contract.
	archivePath string
}

// NewPackage creates the packaging stage.
func NewPackage(runner Runner) *Package {
	return &Package{runner: runner}
}

// ID implements dag.Stage.
func (s *Package) ID() string { return "package" }

// ArchivePath returns the located wheel after a successful run.
func (s *Package) ArchivePath() string { return s.archivePath }

// Run implements dag.Stage.
func (s *Package) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)

	module := filepath.Join(bctx.BindingDir(), bindingModule)
	if _, err := os.Stat(module); err != nil {
		return fmt.Errorf("%w: compiled binding %s absent, binding build did not complete", ErrPackaging, module)
	}

	logger.Info("Building binding package.", "python", bctx.Python)
	if err := s.runner.Run(ctx, bctx.BindingDir(), nil, bctx.Python, "setup.py", "bdist_wheel"); err != nil {
		return fmt.Errorf("%w: bdist_wheel: %v", ErrPackaging, err)
	}

	// The wheel name is deterministic for a fixed version and
	// interpreter: faiss-<version>-<platform tag>.whl.
	wheels, err := fsutil.FindArchives(bctx.DistDir(), bctx.ArchivePrefix(), ".whl")
	if err != nil {
		return fmt.Errorf("%w: scanning %s: %v", ErrPackaging, bctx.DistDir(), err)
	}
	if len(wheels) == 0 {
		return fmt.Errorf("%w: no %s*.whl produced under %s", ErrPackaging, bctx.ArchivePrefix(), bctx.DistDir())
	}

	s.archivePath = wheels[0]
	logger.Info("Binding package ready.", "archive", s.archivePath)
	return nil
}
