// Package buildctx defines the resolved build context: every path and
// parameter a pipeline stage needs, computed once at startup and threaded
// through each stage explicitly. Nothing in the pipeline reads global
// state; two builds with separate contexts never touch the same tree.
package buildctx

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Context carries the fully resolved parameters for one pipeline run.
// It is immutable after construction; stages read from it only.
type Context struct {
	// Version selects both the upstream source tag (v<Version>) and the
	// patch set directory. The two always travel together.
	Version string

	// CUDATag names the GPU runtime the surrounding environment was built
	// from (e.g. "10.0-devel-ubuntu18.04"). The pipeline cannot verify the
	// deploy-time runtime matches; it records the contract in its logs.
	CUDATag string

	// CUDARoot is the toolkit location handed to configure (--with-cuda).
	CUDARoot string

	// Archs is the non-empty set of compute architecture targets, e.g.
	// ["sm_50", "sm_61", "sm_70"].
	Archs []string

	// Prefix is the install prefix for the compiled library tree.
	Prefix string

	// Python is the binding interpreter handed to configure and used to
	// build the wheel.
	Python string

	// RepoURL is the upstream git remote.
	RepoURL string

	// WorkDir is the source tree root, exclusively owned by the pipeline
	// for the duration of the run.
	WorkDir string

	// PatchRoot holds one subdirectory per version with file overlays.
	PatchRoot string

	// Packages is the pinned system package set, name -> exact version.
	Packages map[string]string

	// Jobs bounds make parallelism within a single compile stage.
	Jobs int

	Install  bool
	RunTests bool
}

// Tag returns the upstream git tag for this context's version.
func (c *Context) Tag() string {
	return "v" + c.Version
}

// PatchDir returns the overlay directory for this context's version.
func (c *Context) PatchDir() string {
	return filepath.Join(c.PatchRoot, c.Version)
}

// BindingDir is the Python binding subtree of the source tree.
func (c *Context) BindingDir() string {
	return filepath.Join(c.WorkDir, "python")
}

// DistDir is where the packaging tool drops the wheel.
func (c *Context) DistDir() string {
	return filepath.Join(c.BindingDir(), "dist")
}

// ArchivePrefix is the leading part of the wheel filename for this
// version. The full name also carries the interpreter/platform tag, which
// only the packaging tool knows; co-locating multiple versions is safe
// because the version is always encoded here.
func (c *Context) ArchivePrefix() string {
	return fmt.Sprintf("faiss-%s-", c.Version)
}

// GencodeFlags renders the arch set as nvcc -gencode flags, the form the
// upstream configure script expects in --with-cuda-arch. Targets that
// don't follow the sm_NN convention pass through untouched so the
// underlying tool gets to reject them with its own diagnostic.
func (c *Context) GencodeFlags() string {
	flags := make([]string, 0, len(c.Archs))
	for _, arch := range c.Archs {
		if num, ok := strings.CutPrefix(arch, "sm_"); ok {
			flags = append(flags, fmt.Sprintf("-gencode=arch=compute_%s,code=sm_%s", num, num))
		} else {
			flags = append(flags, arch)
		}
	}
	return strings.Join(flags, " ")
}
