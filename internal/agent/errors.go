// Package agent provides the iterate-build-generate-apply orchestration
// engine: an Agent owns the run/stop lifecycle and convergence policy,
// and composes one Task per iteration.
package agent

import (
	"errors"
	"fmt"

	"github.com/1amageek/Wisdom/internal/proposal"
)

// BuildError indicates the build collaborator itself failed (as opposed
// to a build that ran and reported errors, which is a normal outcome).
type BuildError struct {
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("build failed: %s", e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

// GenerateFailure distinguishes the sub-cases of a generation failure
// so timeouts, decode errors, and empty proposals log differently.
type GenerateFailure string

const (
	GenerateTimeout   GenerateFailure = "timeout"
	GenerateDecode    GenerateFailure = "decode"
	GenerateEmpty     GenerateFailure = "empty_proposal"
	GenerateTransport GenerateFailure = "transport"
)

// GenerateError indicates the generate phase failed.
type GenerateError struct {
	Kind   GenerateFailure
	Reason string
	Err    error
}

func (e *GenerateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Reason)
}

func (e *GenerateError) Unwrap() error { return e.Err }

// FileOperationError indicates a single file operation could not be applied.
type FileOperationError struct {
	OperationID string
	Path        string
	Err         error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("file operation %s on %s failed: %v", e.OperationID, e.Path, e.Err)
}

func (e *FileOperationError) Unwrap() error { return e.Err }

// classifyGenerateError folds an error from the generate collaborator into
// the GenerateError taxonomy. Proposal decode failures keep their own kind
// so they remain distinguishable from transport errors in logs.
func classifyGenerateError(err error) *GenerateError {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge
	}
	var decodeErr *proposal.DecodeError
	var missingErr *proposal.MissingFieldError
	if errors.As(err, &decodeErr) || errors.As(err, &missingErr) {
		return &GenerateError{Kind: GenerateDecode, Reason: "invalid proposal payload", Err: err}
	}
	return &GenerateError{Kind: GenerateTransport, Reason: "generate call failed", Err: err}
}
