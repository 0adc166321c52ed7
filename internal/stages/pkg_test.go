package stages

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/faissbuild/internal/buildctx"
)

func packageContext(t *testing.T) *buildctx.Context {
	t.Helper()
	return &buildctx.Context{
		Version: "1.6.3",
		Python:  "/usr/bin/python3.6",
		WorkDir: filepath.Join(t.TempDir(), "faiss-src"),
	}
}

// withCompiledBinding fakes a completed binding build.
func withCompiledBinding(t *testing.T, bctx *buildctx.Context) {
	t.Helper()
	writeFile(t, filepath.Join(bctx.BindingDir(), bindingModule), "ELF")
}

func TestPackage_ProducesVersionedWheel(t *testing.T) {
	bctx := packageContext(t)
	withCompiledBinding(t, bctx)

	const wheelName = "faiss-1.6.3-cp36-cp36m-linux_x86_64.whl"
	runner := &fakeRunner{onRun: func(c call) error {
		// bdist_wheel drops the archive under dist/.
		writeFile(t, filepath.Join(bctx.DistDir(), wheelName), "zip")
		return nil
	}}

	pkg := NewPackage(runner)
	err := pkg.Run(testCtx(t), bctx)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, bctx.BindingDir(), runner.calls[0].dir)
	assert.Equal(t, "/usr/bin/python3.6 setup.py bdist_wheel", runner.calls[0].String())

	assert.Contains(t, pkg.ArchivePath(), "faiss-1.6.3")
	assert.Contains(t, pkg.ArchivePath(), "cp36-cp36m-linux_x86_64")
	assert.Equal(t, filepath.Join(bctx.DistDir(), wheelName), pkg.ArchivePath())
}

func TestPackage_MissingBindingIsInvariantViolation(t *testing.T) {
	bctx := packageContext(t)
	runner := &fakeRunner{}

	err := NewPackage(runner).Run(testCtx(t), bctx)
	assert.ErrorIs(t, err, ErrPackaging)
	assert.Empty(t, runner.calls, "packaging must never invoke the tool without compiled inputs")
}

func TestPackage_NoWheelProducedFails(t *testing.T) {
	bctx := packageContext(t)
	withCompiledBinding(t, bctx)

	// Tool exits zero but drops nothing into dist/.
	runner := &fakeRunner{}
	err := NewPackage(runner).Run(testCtx(t), bctx)
	assert.ErrorIs(t, err, ErrPackaging)
}

func TestPackage_ToolFailureIsPackagingError(t *testing.T) {
	bctx := packageContext(t)
	withCompiledBinding(t, bctx)

	runner := &fakeRunner{failOn: func(c call) error {
		return errors.New("error: invalid command 'bdist_wheel'")
	}}
	err := NewPackage(runner).Run(testCtx(t), bctx)
	assert.ErrorIs(t, err, ErrPackaging)
}

func TestPackage_DeterministicNamingAcrossRuns(t *testing.T) {
	bctx := packageContext(t)
	withCompiledBinding(t, bctx)

	const wheelName = "faiss-1.6.3-cp36-cp36m-linux_x86_64.whl"
	runner := &fakeRunner{onRun: func(c call) error {
		writeFile(t, filepath.Join(bctx.DistDir(), wheelName), "zip")
		return nil
	}}

	first := NewPackage(runner)
	require.NoError(t, first.Run(testCtx(t), bctx))

	// Wipe dist and package again: the located filename must not change.
	require.NoError(t, os.RemoveAll(bctx.DistDir()))
	second := NewPackage(runner)
	require.NoError(t, second.Run(testCtx(t), bctx))

	assert.Equal(t, first.ArchivePath(), second.ArchivePath())
}
