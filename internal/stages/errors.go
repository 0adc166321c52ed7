package stages

import "errors"

// The pipeline's error taxonomy. Every stage failure wraps exactly one of
// these sentinels, so callers can classify with errors.Is without parsing
// message text. None of them is retryable: each signals a deterministic
// configuration or tooling problem, and re-invocation by the enclosing
// build system is the only recovery path.
var (
	// ErrEnvironment means a pinned system dependency could not be
	// installed at its exact version, or the GPU toolkit is absent.
	ErrEnvironment = errors.New("environment error")

	// ErrSourceNotFound means the version identifier does not resolve to
	// an upstream tag.
	ErrSourceNotFound = errors.New("source not found")

	// ErrPatchSetMissing means no patch directory exists for the requested
	// version. An unpatched tree compiles but misbehaves, so this is a
	// hard stop, never a silent skip.
	ErrPatchSetMissing = errors.New("patch set missing")

	// ErrConfiguration means the upstream configure step rejected the
	// build parameters. The tool's diagnostic is surfaced verbatim.
	ErrConfiguration = errors.New("configuration error")

	// ErrBuild means the compiler or linker exited non-zero.
	ErrBuild = errors.New("build error")

	// ErrPackaging means the packaging tool failed, or its compiled
	// inputs were absent - the latter is an invariant violation, since
	// packaging must never run without a completed binding build.
	ErrPackaging = errors.New("packaging error")
)
