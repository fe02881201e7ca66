package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/1amageek/Wisdom/internal/auditlog"
	"github.com/1amageek/Wisdom/internal/proposal"
)

// Task executes exactly one build→generate→apply cycle. It owns the
// per-cycle cancellation flag and the generate-phase timeout race. A task
// never mutates agent state: everything it learns flows back as return
// values, and everything it does is recorded in the audit log.
type Task struct {
	opts      Options
	log       *auditlog.Log
	cancelled atomic.Bool
}

// NewTask creates a task for one iteration. Entries the task produces go
// to log; the agent owns the log and relays it to the host.
func NewTask(opts Options, log *auditlog.Log) *Task {
	return &Task{opts: opts, log: log}
}

// Cancel requests cooperative cancellation. The task observes the flag at
// its next checkpoint (before each apply operation); an in-flight build or
// generate call is not preempted.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Run executes the cycle's three phases in order and returns the build
// phase's outcome. The cycle's verdict is decided by the build, not by
// whether generation or apply succeeded: a later phase failure surfaces
// as a typed error while the outcome of an earlier successful build is
// still reported through the error's context in the log.
func (t *Task) Run(ctx context.Context, message string, build BuildFunc, generate GenerateFunc, apply ApplyFunc) (BuildOutcome, error) {
	// Phase 1: build. May block on a subprocess for a long time; the
	// collaborator bounds its own execution.
	t.log.Info("Build phase started")
	outcome, err := build(ctx)
	if err != nil {
		return BuildOutcome{}, &BuildError{Reason: "build collaborator failed", Err: err}
	}
	t.log.Info(summarizeOutcome(outcome))

	// Phase 2: generate, raced against the timeout when one is set.
	t.log.Info("Generate phase started")
	prop, err := t.runGenerate(ctx, message, summarizeOutcome(outcome), generate)
	if err != nil {
		return outcome, err
	}
	if prop == nil || len(prop.Operations) == 0 {
		// An empty proposal after a failed build means the generator could
		// not make progress; treating it as success would stall the loop
		// without tripping the no-improvement policy.
		return outcome, &GenerateError{Kind: GenerateEmpty, Reason: "empty proposal"}
	}
	t.log.Info(fmt.Sprintf("Received proposal with %d operations", len(prop.Operations)),
		auditlog.WithProposal(prop.ID))

	// Phase 3: apply, in the order supplied.
	if err := t.applyProposal(ctx, prop, apply); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// runGenerate races the generate call against a timer. The first to
// complete wins and the loser is cancelled through the derived context,
// so an abandoned generate call is actually torn down, not just ignored.
func (t *Task) runGenerate(ctx context.Context, message, summary string, generate GenerateFunc) (*proposal.Proposal, error) {
	if t.opts.GenerateTimeout < 0 {
		prop, err := generate(ctx, message, summary)
		if err != nil {
			return nil, classifyGenerateError(err)
		}
		return prop, nil
	}

	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type generateResult struct {
		prop *proposal.Proposal
		err  error
	}
	resultCh := make(chan generateResult, 1)
	go func() {
		prop, err := generate(gctx, message, summary)
		resultCh <- generateResult{prop: prop, err: err}
	}()

	timer := time.NewTimer(t.opts.GenerateTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, classifyGenerateError(res.err)
		}
		return res.prop, nil
	case <-timer.C:
		cancel()
		return nil, &GenerateError{
			Kind:   GenerateTimeout,
			Reason: fmt.Sprintf("timed out after %s", t.opts.GenerateTimeout),
		}
	case <-ctx.Done():
		return nil, &GenerateError{Kind: GenerateTransport, Reason: "cancelled", Err: ctx.Err()}
	}
}

// applyProposal dispatches the proposal's operations strictly in order.
// The cancellation flag is checked before each operation; once set, the
// remaining operations are skipped but already-applied ones stay applied
// (no rollback — the next cycle observes and corrects the mixed state).
func (t *Task) applyProposal(ctx context.Context, prop *proposal.Proposal, apply ApplyFunc) error {
	for i, op := range prop.Operations {
		if t.Cancelled() {
			t.log.Warning(
				fmt.Sprintf("Apply cancelled after %d of %d operations", i, len(prop.Operations)),
				auditlog.WithProposal(prop.ID))
			return nil
		}

		if err := apply(ctx, op); err != nil {
			opErr := &FileOperationError{OperationID: op.ID, Path: op.Path, Err: err}
			if t.opts.AbortOnApplyFailure {
				return opErr
			}
			// Log-and-continue: one bad edit doesn't block the rest.
			t.log.Error(opErr.Error(),
				auditlog.WithProposal(prop.ID),
				auditlog.WithOperation(op.ID))
			continue
		}
		t.log.Action(fmt.Sprintf("Applied %s %s", op.Kind, op.Path),
			auditlog.WithProposal(prop.ID),
			auditlog.WithOperation(op.ID))
	}
	return nil
}

// summarizeOutcome builds the human-readable status string forwarded to
// the generator.
func summarizeOutcome(outcome BuildOutcome) string {
	switch {
	case outcome.Successful && outcome.ErrorCount == 0:
		return "Build succeeded."
	case outcome.Successful:
		return fmt.Sprintf("Build succeeded with %d reported errors.", outcome.ErrorCount)
	case outcome.ErrorCount == 1:
		return "Build failed with 1 error."
	default:
		return fmt.Sprintf("Build failed with %d errors.", outcome.ErrorCount)
	}
}
