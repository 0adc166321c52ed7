package app

import (
	"context"
	"fmt"

	"github.com/vk/faissbuild/internal/ctxlog"
	"github.com/vk/faissbuild/internal/dag"
	"github.com/vk/faissbuild/internal/stages"
)

// Run executes the full pipeline: stage graph assembly, validation, and
// sequential fail-fast execution.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	graph, pkg, err := a.buildGraph()
	if err != nil {
		return fmt.Errorf("failed to build stage graph: %w", err)
	}

	a.logger.Info("🚀 Starting build pipeline.",
		"version", a.bctx.Version,
		"cuda_tag", a.bctx.CUDATag,
		"archs", a.bctx.Archs,
		"install", a.bctx.Install,
		"run_tests", a.bctx.RunTests,
	)

	if err := dag.NewExecutor(graph).Run(ctx, a.bctx); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	a.logger.Info("🏁 Pipeline finished.", "archive", pkg.ArchivePath())
	fmt.Fprintf(a.outW, "binding package: %s\n", pkg.ArchivePath())
	return nil
}

// buildGraph wires the stage graph. Every ordering requirement is an
// explicit edge; in particular the binding compile depends on the core
// compile, not on script order. The optional install and test stages are
// only added when their flags opted in.
func (a *App) buildGraph() (*dag.Graph, *stages.Package, error) {
	g := dag.New()
	pkg := stages.NewPackage(a.runner)

	pipeline := []dag.Stage{
		stages.NewEnvironment(a.runner),
		stages.NewSource(a.runner),
		stages.NewPatch(),
		stages.NewConfigure(a.runner),
		stages.NewCompileCore(a.runner),
		stages.NewCompileBindings(a.runner),
		pkg,
	}

	for _, s := range pipeline {
		if err := g.AddStage(s); err != nil {
			return nil, nil, err
		}
	}
	for i := 1; i < len(pipeline); i++ {
		if err := g.AddEdge(pipeline[i-1].ID(), pipeline[i].ID()); err != nil {
			return nil, nil, err
		}
	}

	if a.bctx.Install {
		install := stages.NewInstall(a.runner)
		if err := g.AddStage(install); err != nil {
			return nil, nil, err
		}
		if err := g.AddEdge(pkg.ID(), install.ID()); err != nil {
			return nil, nil, err
		}
	}

	if a.bctx.RunTests {
		testRun := stages.NewTestRun(a.runner)
		if err := g.AddStage(testRun); err != nil {
			return nil, nil, err
		}
		if err := g.AddEdge("compile-bindings", testRun.ID()); err != nil {
			return nil, nil, err
		}
	}

	return g, pkg, nil
}
