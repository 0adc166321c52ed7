package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/manifest"
	"github.com/vk/faissbuild/internal/stages"
)

// App encapsulates the pipeline's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	bctx   *buildctx.Context
	runner stages.Runner
}

// NewApp is the constructor for the pipeline application. It returns a
// fully initialized App with its own isolated logger and a resolved
// build context. A manifest that cannot be loaded is a fatal startup
// error and panics; the entrypoint recovers it into a clean exit.
func NewApp(outW io.Writer, cfg *Config, runner stages.Runner) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	model, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		panic(fmt.Errorf("failed to load manifest: %w", err))
	}
	logger.Debug("Manifest loaded.", "path", cfg.ManifestPath, "version", model.Version)

	bctx, err := resolveContext(cfg, model)
	if err != nil {
		panic(fmt.Errorf("invalid build parameters: %w", err))
	}
	logger.Debug("Build context resolved.", "version", bctx.Version, "workdir", bctx.WorkDir)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		bctx:   bctx,
		runner: runner,
	}
}

// Context returns the resolved build context. This is primarily for testing.
func (a *App) Context() *buildctx.Context {
	return a.bctx
}

// resolveContext merges flag overrides over the manifest into the single
// immutable context every stage reads from.
func resolveContext(cfg *Config, model *manifest.Model) (*buildctx.Context, error) {
	bctx := &buildctx.Context{
		Version:   model.Version,
		CUDATag:   model.Runtime.CUDATag,
		CUDARoot:  model.Runtime.CUDARoot,
		Archs:     model.Build.Archs,
		Prefix:    model.Build.Prefix,
		Python:    model.Build.Python,
		RepoURL:   model.Source.Repo,
		WorkDir:   model.Source.WorkDir,
		PatchRoot: model.Patches.Dir,
		Packages:  model.Packages,
		Jobs:      cfg.Jobs,
		Install:   cfg.Install,
		RunTests:  cfg.RunTests,
	}

	if cfg.Version != "" {
		bctx.Version = cfg.Version
	}
	if len(cfg.Archs) > 0 {
		bctx.Archs = cfg.Archs
	}
	if cfg.Prefix != "" {
		bctx.Prefix = cfg.Prefix
	}

	// The manifest already enforces these, but overrides re-open the door.
	if bctx.Version == "" {
		return nil, fmt.Errorf("version must not be empty")
	}
	if len(bctx.Archs) == 0 {
		return nil, fmt.Errorf("at least one compute architecture target is required")
	}
	return bctx, nil
}
