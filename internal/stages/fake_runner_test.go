package stages

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vk/faissbuild/internal/ctxlog"
)

// call records one command handed to the fake runner.
type call struct {
	dir  string
	env  []string
	name string
	args []string
}

func (c call) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// fakeRunner records every invocation and can fail or side-effect on
// selected commands.
type fakeRunner struct {
	calls []call
	// failOn returns a non-nil error for commands that should fail.
	failOn func(c call) error
	// onRun, when set, simulates the tool's side effects (e.g. a clone
	// materializing files, bdist_wheel dropping an archive).
	onRun func(c call) error
}

func (f *fakeRunner) Run(ctx context.Context, dir string, extraEnv []string, name string, args ...string) error {
	c := call{dir: dir, env: extraEnv, name: name, args: args}
	f.calls = append(f.calls, c)
	if f.failOn != nil {
		if err := f.failOn(c); err != nil {
			return err
		}
	}
	if f.onRun != nil {
		return f.onRun(c)
	}
	return nil
}

// commandLines flattens recorded calls for substring assertions.
func (f *fakeRunner) commandLines() []string {
	lines := make([]string, len(f.calls))
	for i, c := range f.calls {
		lines[i] = c.String()
	}
	return lines
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}
