package stages

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

// Patch overlays the version's patch directory onto the source tree at
// matching relative paths, overwriting what is there. Every version must
// have a patch directory: an explicitly empty one means "verified
// patch-free", while an absent one is indistinguishable from a
// misconfiguration and halts the run.
type Patch struct{}

// NewPatch creates the patch overlay stage.
func NewPatch() *Patch {
	return &Patch{}
}

// ID implements dag.Stage.
func (s *Patch) ID() string { return "patch" }

// Run implements dag.Stage. The overlay is idempotent: re-running with
// the same inputs yields the same tree.
func (s *Patch) Run(ctx context.Context, bctx *buildctx.Context) error {
	logger := ctxlog.FromContext(ctx)
	patchDir := bctx.PatchDir()

	info, err := os.Stat(patchDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: no patch directory for version %s at %s", ErrPatchSetMissing, bctx.Version, patchDir)
	}

	count := 0
	err = filepath.WalkDir(patchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(patchDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(bctx.WorkDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := copyFile(path, dst, info.Mode().Perm()); err != nil {
			return err
		}
		count++
		logger.Debug("Overlaid file.", "path", rel)
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying patch set for version %s: %w", bctx.Version, err)
	}

	logger.Info("Patch set applied.", "version", bctx.Version, "files", count)
	return nil
}

// copyFile copies src over dst, creating parent directories as needed.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}
