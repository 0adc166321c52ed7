package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Source fetches the exact tagged upstream snapshot into the work
// directory. The clone is shallow and single-branch: one revision is all
// a reproducible build needs, and it bounds both time and storage.
type Source struct {
	runner Runner
}

// NewSource creates the source acquisition stage.
func NewSource(runner Runner) *Source {
	return &Source{runner: runner}
}

// ID implements dag.Stage.
func (s *Source) ID() string { return "source" }

// Run implements dag.Stage.
func (s *Source) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)
	tag := bctx.Tag()

	// A stale tree from an aborted run would break the byte-identical
	// guarantee, so the work dir is always recreated from scratch.
	if _, err := os.Stat(bctx.WorkDir); err == nil {
		logger.Warn("Removing stale source tree.", "dir", bctx.WorkDir)
		if err := os.RemoveAll(bctx.WorkDir); err != nil {
			return fmt.Errorf("%w: removing stale tree: %v", ErrSourceNotFound, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(bctx.WorkDir), 0o755); err != nil {
		return fmt.Errorf("%w: creating work dir parent: %v", ErrSourceNotFound, err)
	}

	logger.Info("Fetching source snapshot.", "repo", bctx.RepoURL, "tag", tag)
	err := s.runner.Run(ctx, "", nil,
		"git", "clone", "--depth", "1", "--branch", tag, bctx.RepoURL, bctx.WorkDir)
	if err != nil {
		return fmt.Errorf("%w: tag %s from %s: %v", ErrSourceNotFound, tag, bctx.RepoURL, err)
	}

	logger.Info("Source tree ready.", "dir", bctx.WorkDir)
	return nil
}
