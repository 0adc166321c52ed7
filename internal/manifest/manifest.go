// Package manifest loads the declarative build manifest: the pipeline's
// version identifier, GPU runtime contract, build parameters, source
// location, patch root, and the pinned system package set. The manifest
// is HCL; the `version` value is exposed as a variable to the rest of
// the file, so paths like "patches/${version}" stay in one place.
package manifest

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Model is the decoded, validated manifest.
type Model struct {
	Version  string
	Runtime  Runtime
	Build    Build
	Source   Source
	Patches  Patches
	Packages map[string]string
}

// Runtime pins the GPU runtime contract.
type Runtime struct {
	// CUDATag names the base environment's GPU runtime; any environment
	// this build deploys into must match it.
	CUDATag string `hcl:"cuda_tag"`
	// CUDARoot is the toolkit location, defaulted to /usr/local/cuda.
	CUDARoot string `hcl:"cuda_root,optional"`
}

// Build holds the configure-time parameters.
type Build struct {
	Prefix string   `hcl:"prefix"`
	Archs  []string `hcl:"archs"`
	Python string   `hcl:"python,optional"`
}

// Source names the upstream remote and the working directory.
type Source struct {
	Repo    string `hcl:"repo,optional"`
	WorkDir string `hcl:"workdir,optional"`
}

// Patches points at the root holding one overlay directory per version.
type Patches struct {
	Dir string `hcl:"dir,optional"`
}

// versionHeader is the first decode pass: it pulls the version literal
// out so it can be offered as a variable to the full decode.
type versionHeader struct {
	Version string   `hcl:"version"`
	Remain  hcl.Body `hcl:",remain"`
}

type fileModel struct {
	Version  string       `hcl:"version"`
	Runtime  *Runtime     `hcl:"runtime,block"`
	Build    *Build       `hcl:"build,block"`
	Source   *Source      `hcl:"source,block"`
	Patches  *Patches     `hcl:"patches,block"`
	Packages []packagePin `hcl:"package,block"`
}

type packagePin struct {
	Name    string `hcl:"name,label"`
	Version string `hcl:"version"`
}

// Load reads and decodes a manifest file.
func Load(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes manifest bytes. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest: %w", diags)
	}

	// First pass: the version literal. It must be a plain string, since
	// everything else may interpolate it.
	var header versionHeader
	if diags := gohcl.DecodeBody(file.Body, nil, &header); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest: %w", diags)
	}
	if header.Version == "" {
		return nil, fmt.Errorf("manifest %s: version must not be empty", filename)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"version": cty.StringVal(header.Version),
		},
	}

	var raw fileModel
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest: %w", diags)
	}

	model, err := resolve(&raw)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", filename, err)
	}
	return model, nil
}

// resolve applies defaults and validates the decoded file.
func resolve(raw *fileModel) (*Model, error) {
	if raw.Runtime == nil {
		return nil, fmt.Errorf("a runtime block is required")
	}
	if raw.Build == nil {
		return nil, fmt.Errorf("a build block is required")
	}
	if len(raw.Build.Archs) == 0 {
		return nil, fmt.Errorf("build.archs must name at least one compute architecture")
	}

	m := &Model{
		Version: raw.Version,
		Runtime: *raw.Runtime,
		Build:   *raw.Build,
		Patches: Patches{Dir: "patches"},
		Source: Source{
			Repo:    "https://github.com/facebookresearch/faiss.git",
			WorkDir: "/opt/faiss-src",
		},
		Packages: make(map[string]string, len(raw.Packages)),
	}

	if m.Runtime.CUDARoot == "" {
		m.Runtime.CUDARoot = "/usr/local/cuda"
	}
	if m.Build.Python == "" {
		m.Build.Python = "python3"
	}
	if raw.Source != nil {
		if raw.Source.Repo != "" {
			m.Source.Repo = raw.Source.Repo
		}
		if raw.Source.WorkDir != "" {
			m.Source.WorkDir = raw.Source.WorkDir
		}
	}
	if raw.Patches != nil && raw.Patches.Dir != "" {
		m.Patches.Dir = raw.Patches.Dir
	}

	for _, pin := range raw.Packages {
		if pin.Version == "" {
			return nil, fmt.Errorf("package %q: version pin must not be empty", pin.Name)
		}
		if _, dup := m.Packages[pin.Name]; dup {
			return nil, fmt.Errorf("package %q pinned twice", pin.Name)
		}
		m.Packages[pin.Name] = pin.Version
	}

	return m, nil
}
