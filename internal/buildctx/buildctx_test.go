package buildctx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestContext() *Context {
	return &Context{
		Version:   "1.6.3",
		Archs:     []string{"sm_50", "sm_61"},
		WorkDir:   "/opt/faiss-src",
		PatchRoot: "patches",
	}
}

func TestTag(t *testing.T) {
	c := newTestContext()
	assert.Equal(t, "v1.6.3", c.Tag())
}

func TestPatchDir_KeyedByVersion(t *testing.T) {
	c := newTestContext()
	assert.Equal(t, filepath.Join("patches", "1.6.3"), c.PatchDir())
}

func TestDerivedDirs(t *testing.T) {
	c := newTestContext()
	assert.Equal(t, filepath.Join("/opt/faiss-src", "python"), c.BindingDir())
	assert.Equal(t, filepath.Join("/opt/faiss-src", "python", "dist"), c.DistDir())
}

func TestArchivePrefix_EncodesVersion(t *testing.T) {
	c := newTestContext()
	assert.Equal(t, "faiss-1.6.3-", c.ArchivePrefix())
}

func TestGencodeFlags(t *testing.T) {
	t.Run("sm targets expand to gencode pairs", func(t *testing.T) {
		c := newTestContext()
		assert.Equal(t,
			"-gencode=arch=compute_50,code=sm_50 -gencode=arch=compute_61,code=sm_61",
			c.GencodeFlags())
	})

	t.Run("unknown targets pass through for the tool to reject", func(t *testing.T) {
		c := newTestContext()
		c.Archs = []string{"sm_70", "bogus_99"}
		assert.Equal(t,
			"-gencode=arch=compute_70,code=sm_70 bogus_99",
			c.GencodeFlags())
	})
}
