package agent

import (
	"context"
	"time"

	"github.com/1amageek/Wisdom/internal/proposal"
)

// BuildOutcome is the verdict of one build collaborator invocation.
// Successful and ErrorCount are consumed as given: a build may report
// success by exit code while still counting diagnostics as errors, and
// the engine must not assume the pair agrees.
type BuildOutcome struct {
	ErrorCount int
	Successful bool
}

// BuildFunc invokes the project build and reports its outcome.
type BuildFunc func(ctx context.Context) (BuildOutcome, error)

// GenerateFunc asks the generation service for a proposal, given the
// operator's goal and a human-readable build status summary. It must be
// cancellable through ctx: when the generate-phase timeout race abandons
// it, it must not leak resources or mutate shared state.
type GenerateFunc func(ctx context.Context, message, buildSummary string) (*proposal.Proposal, error)

// ApplyFunc applies a single file operation to the project tree. The
// collaborator is responsible for rejecting paths that escape the root.
type ApplyFunc func(ctx context.Context, op proposal.Operation) error

const (
	defaultMaxNoImprovement = 5
	defaultGenerateTimeout  = 60 * time.Second
)

// Options configures a run.
type Options struct {
	// MaxNoImprovement is the number of consecutive cycles that fail to
	// strictly reduce the error count before the loop halts. Minimum 1.
	MaxNoImprovement int

	// ContinueOnSuccess keeps the loop iterating after a clean build.
	// When false, the first successful build ends the run.
	ContinueOnSuccess bool

	// GenerateTimeout bounds the generate phase. Zero selects the default;
	// a negative value disables the timeout race entirely.
	GenerateTimeout time.Duration

	// AbortOnApplyFailure aborts the remaining operations of a proposal
	// when one fails. The default is to log the failure and continue, so
	// a single malformed edit doesn't waste an otherwise-valid proposal.
	AbortOnApplyFailure bool
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		MaxNoImprovement:  defaultMaxNoImprovement,
		ContinueOnSuccess: true,
		GenerateTimeout:   defaultGenerateTimeout,
	}
}

// withDefaults normalizes out-of-range fields.
func (o Options) withDefaults() Options {
	if o.MaxNoImprovement < 1 {
		o.MaxNoImprovement = defaultMaxNoImprovement
	}
	if o.GenerateTimeout == 0 {
		o.GenerateTimeout = defaultGenerateTimeout
	}
	return o
}
