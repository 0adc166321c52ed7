package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"faiss-1.6.3-cp36-cp36m-linux_x86_64.whl",
		"faiss-1.6.3-cp38-cp38-linux_x86_64.whl",
		"faiss-1.7.0-cp36-cp36m-linux_x86_64.whl",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "faiss-1.6.3-subdir.whl"), 0o755))

	t.Run("matches prefix and extension, sorted", func(t *testing.T) {
		got, err := FindArchives(dir, "faiss-1.6.3-", ".whl")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "faiss-1.6.3-cp36-cp36m-linux_x86_64.whl"),
			filepath.Join(dir, "faiss-1.6.3-cp38-cp38-linux_x86_64.whl"),
		}, got)
	})

	t.Run("missing directory is empty, not an error", func(t *testing.T) {
		got, err := FindArchives(filepath.Join(dir, "dne"), "faiss-", ".whl")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty extension panics", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = FindArchives(dir, "faiss-", "") })
	})
}
