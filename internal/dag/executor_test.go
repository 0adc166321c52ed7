package dag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/faissbuild/internal/buildctx"
	"github.com/vk/faissbuild/internal/ctxlog"
)

func testCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// recordingStage appends its ID to a shared slice when run.
func recordingStage(id string, ran *[]string, err error) *fakeStage {
	return &fakeStage{id: id, run: func(context.Context, *buildctx.Context) error {
		*ran = append(*ran, id)
		return err
	}}
}

func TestExecutorRun_SequentialOrder(t *testing.T) {
	var ran []string
	g := New()
	require.NoError(t, g.AddStage(recordingStage("source", &ran, nil)))
	require.NoError(t, g.AddStage(recordingStage("patch", &ran, nil)))
	require.NoError(t, g.AddStage(recordingStage("configure", &ran, nil)))
	require.NoError(t, g.AddEdge("source", "patch"))
	require.NoError(t, g.AddEdge("patch", "configure"))

	err := NewExecutor(g).Run(testCtx(), &buildctx.Context{})
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "patch", "configure"}, ran)

	for _, id := range []string{"source", "patch", "configure"} {
		st, ok := g.StageState(id)
		require.True(t, ok)
		assert.Equal(t, StateDone, st)
	}
}

func TestExecutorRun_FailFastSkipsDependents(t *testing.T) {
	var ran []string
	boom := errors.New("nvcc exploded")

	g := New()
	require.NoError(t, g.AddStage(recordingStage("compile-core", &ran, boom)))
	require.NoError(t, g.AddStage(recordingStage("compile-bindings", &ran, nil)))
	require.NoError(t, g.AddStage(recordingStage("package", &ran, nil)))
	require.NoError(t, g.AddEdge("compile-core", "compile-bindings"))
	require.NoError(t, g.AddEdge("compile-bindings", "package"))

	err := NewExecutor(g).Run(testCtx(), &buildctx.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stage compile-core")

	// The binding build must never have been invoked.
	assert.Equal(t, []string{"compile-core"}, ran)

	st, _ := g.StageState("compile-core")
	assert.Equal(t, StateFailed, st)
	st, _ = g.StageState("compile-bindings")
	assert.Equal(t, StateSkipped, st)
	st, _ = g.StageState("package")
	assert.Equal(t, StateSkipped, st)
}

func TestExecutorRun_StableOrderAmongIndependents(t *testing.T) {
	var ran []string
	g := New()
	require.NoError(t, g.AddStage(recordingStage("install", &ran, nil)))
	require.NoError(t, g.AddStage(recordingStage("test", &ran, nil)))

	err := NewExecutor(g).Run(testCtx(), &buildctx.Context{})
	require.NoError(t, err)
	// Insertion order, every run.
	assert.Equal(t, []string{"install", "test"}, ran)
}
