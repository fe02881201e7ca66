// Package proposal defines the batch of file edits returned by the
// generation service and its wire encoding.
package proposal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationKind identifies the mutation a single operation performs.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

// Operation is one file mutation. Content is plain text in memory;
// it is base64-encoded only at the wire boundary (see wire.go).
type Operation struct {
	ID       string
	Language string
	Kind     OperationKind
	Path     string // relative to the project root
	Content  string // required for create/update, ignored for delete
}

// Validate checks the per-operation invariants.
func (o Operation) Validate() error {
	switch o.Kind {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("invalid operation kind: %q", o.Kind)
	}
	if o.Path == "" {
		return fmt.Errorf("operation %s has an empty path", o.ID)
	}
	if (o.Kind == OpCreate || o.Kind == OpUpdate) && o.Content == "" {
		return &MissingFieldError{Field: "content", OperationID: o.ID}
	}
	return nil
}

// Proposal is an ordered batch of operations produced by one generate call.
// Operation order is significant and must be preserved through apply.
type Proposal struct {
	ID         string
	Operations []Operation
	Timestamp  time.Time
}

// New creates a proposal around the given operations with a fresh id.
func New(ops []Operation) *Proposal {
	return &Proposal{
		ID:         uuid.NewString(),
		Operations: ops,
		Timestamp:  time.Now(),
	}
}

// Validate checks the proposal invariants. A proposal with zero operations
// is invalid: the generator produced nothing actionable, which the engine
// treats as a generation failure rather than a no-op success.
func (p *Proposal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("proposal has an empty id")
	}
	if len(p.Operations) == 0 {
		return fmt.Errorf("proposal %s has no operations", p.ID)
	}
	for _, op := range p.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("proposal %s: %w", p.ID, err)
		}
	}
	return nil
}
