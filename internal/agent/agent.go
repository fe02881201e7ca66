package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/1amageek/Wisdom/internal/auditlog"
)

// RunState is the agent's mutable loop state. It is owned exclusively by
// the Agent and only ever mutated under its mutex from the goroutine
// running the loop; callers observe it through Snapshot.
type RunState struct {
	IsRunning      bool
	Iteration      int
	NoImprovement  int
	LastErrorCount int // math.MaxInt until the first build outcome
}

// Agent owns the run/stop lifecycle, the no-improvement convergence
// policy, and the iteration loop. It composes one Task per iteration and
// guarantees at most one task is ever in flight per instance.
type Agent struct {
	log *auditlog.Log

	mu      sync.Mutex
	state   RunState
	current *Task
}

// New creates an idle agent that records everything it does to log.
func New(log *auditlog.Log) *Agent {
	return &Agent{log: log}
}

// Log returns the agent's audit log.
func (a *Agent) Log() *auditlog.Log {
	return a.log
}

// IsRunning reports whether a run is in progress.
func (a *Agent) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.IsRunning
}

// Snapshot returns a copy of the current run state.
func (a *Agent) Snapshot() RunState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start runs the iterate-build-generate-apply loop until it converges,
// a clean build ends it, the no-improvement policy halts it, or Stop is
// called. It blocks for the duration of the run; hosts that need a
// responsive UI run it on their own goroutine and watch the audit log.
//
// Calling Start while a run is in progress is a no-op that only logs a
// warning: at most one task is ever in flight per agent.
func (a *Agent) Start(ctx context.Context, message string, opts Options, build BuildFunc, generate GenerateFunc, apply ApplyFunc) {
	opts = opts.withDefaults()

	a.mu.Lock()
	if a.state.IsRunning {
		a.mu.Unlock()
		a.log.Warning("Start requested while a run is already in progress; ignoring")
		return
	}
	a.state = RunState{
		IsRunning:      true,
		Iteration:      0,
		NoImprovement:  0,
		LastErrorCount: math.MaxInt,
	}
	a.mu.Unlock()

	a.log.Action(fmt.Sprintf("Run started: %s", message))
	defer a.finish()

	for {
		a.mu.Lock()
		if !a.state.IsRunning {
			a.mu.Unlock()
			a.log.Action("Run stopped by request")
			return
		}
		if a.state.Iteration > 0 && a.state.NoImprovement >= opts.MaxNoImprovement {
			a.mu.Unlock()
			a.log.Action(fmt.Sprintf("Run halted: no improvement for %d consecutive iterations", opts.MaxNoImprovement))
			return
		}
		a.state.Iteration++
		iteration := a.state.Iteration
		task := NewTask(opts, a.log)
		a.current = task
		a.mu.Unlock()

		a.log.Action(fmt.Sprintf("Iteration %d started", iteration))
		outcome, err := task.Run(ctx, message, build, generate, apply)

		a.mu.Lock()
		a.current = nil
		if err != nil {
			// A failed cycle counts against convergence just like a
			// non-improving one; retry here means "run another cycle".
			a.state.NoImprovement++
			a.mu.Unlock()
			a.logTaskError(err)
			continue
		}

		if outcome.ErrorCount >= a.state.LastErrorCount {
			a.state.NoImprovement++
		} else {
			a.state.NoImprovement = 0
		}
		a.state.LastErrorCount = outcome.ErrorCount
		noImprovement := a.state.NoImprovement
		a.mu.Unlock()

		a.log.Info(fmt.Sprintf("Iteration %d finished: %s (no-improvement streak: %d)",
			iteration, summarizeOutcome(outcome), noImprovement))

		if outcome.Successful && !opts.ContinueOnSuccess {
			a.log.Action("Run completed: build succeeded")
			return
		}
	}
}

// Stop requests cooperative cancellation of the current run. The outer
// loop observes the flag at its next iteration boundary; an in-flight
// task observes it before each apply operation. Idempotent.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.IsRunning {
		a.log.Info("Stop requested while idle")
		return
	}
	a.state.IsRunning = false
	if a.current != nil {
		a.current.Cancel()
	}
	a.log.Action("Stop requested")
}

// finish resets the agent to idle on loop exit.
func (a *Agent) finish() {
	a.mu.Lock()
	a.state.IsRunning = false
	a.current = nil
	a.mu.Unlock()
}

// logTaskError records a task failure with its taxonomy kind, matched
// exhaustively so each failure class gets a distinct message.
func (a *Agent) logTaskError(err error) {
	var buildErr *BuildError
	var genErr *GenerateError
	var fileErr *FileOperationError
	switch {
	case errors.As(err, &buildErr):
		a.log.Error(fmt.Sprintf("Build failed: %s", buildErr.Reason),
			auditlog.WithDetails(buildErr.Error()))
	case errors.As(err, &genErr):
		a.log.Error(fmt.Sprintf("Generation failed (%s): %s", genErr.Kind, genErr.Reason),
			auditlog.WithDetails(genErr.Error()))
	case errors.As(err, &fileErr):
		a.log.Error(fmt.Sprintf("File operation failed on %s", fileErr.Path),
			auditlog.WithDetails(fileErr.Error()),
			auditlog.WithOperation(fileErr.OperationID))
	default:
		a.log.Error("Iteration failed", auditlog.WithDetails(err.Error()))
	}
}
