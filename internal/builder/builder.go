// Package builder is the build collaborator: it runs the project's build
// command through the sandbox and distills the result into a BuildOutcome.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/1amageek/Wisdom/internal/agent"
	"github.com/1amageek/Wisdom/internal/sandbox"
	"github.com/1amageek/Wisdom/internal/workspace"
)

// Runner abstracts the sandbox so tests can script command results.
type Runner interface {
	RunCmd(ctx context.Context, projectDir, name string, args []string, timeout time.Duration) (sandbox.Result, error)
}

// Builder builds a project rooted at a fixed directory. Safe to invoke
// repeatedly; every call reflects the current on-disk state.
type Builder struct {
	root    string
	runner  Runner
	timeout time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner overrides the sandbox runner.
func WithRunner(r Runner) Option {
	return func(b *Builder) { b.runner = r }
}

// WithTimeout bounds each build command. Zero uses the sandbox default.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) { b.timeout = d }
}

// New creates a builder for the project at root.
func New(root string, opts ...Option) *Builder {
	b := &Builder{root: root}
	for _, opt := range opts {
		opt(b)
	}
	if b.runner == nil {
		b.runner = sandbox.NewDefaultRunner()
	}
	return b
}

// Build runs the project's build command and reports the outcome.
// Successful tracks the exit code while ErrorCount counts diagnostics in
// the output; the two may disagree (e.g. warnings promoted to errors by a
// wrapper that still exits zero) and the engine consumes them as given.
func (b *Builder) Build(ctx context.Context) (agent.BuildOutcome, error) {
	typ := workspace.Detect(b.root)
	if typ == workspace.ProjectTypeUnknown {
		return agent.BuildOutcome{}, fmt.Errorf("could not detect project type at %s", b.root)
	}

	name, args := workspace.BuildCommand(typ)
	if name == "" {
		// No build step for this project type; nothing to report against.
		return agent.BuildOutcome{Successful: true}, nil
	}

	res, runErr := b.runner.RunCmd(ctx, b.root, name, args, b.timeout)
	if res.TimedOut {
		return agent.BuildOutcome{}, fmt.Errorf("build command %s timed out", name)
	}
	if runErr != nil && res.Code == 0 {
		// The command could not run at all (not found, spawn failure).
		return agent.BuildOutcome{}, fmt.Errorf("failed to run %s: %w", name, runErr)
	}

	outcome := agent.BuildOutcome{
		ErrorCount: CountDiagnostics(typ, res.Stdout+"\n"+res.Stderr),
		Successful: res.Code == 0,
	}
	// A failed build with unparseable output still counts as at least one error.
	if !outcome.Successful && outcome.ErrorCount == 0 {
		outcome.ErrorCount = 1
	}
	return outcome, nil
}
