// Package auditlog provides the append-only event record of everything the
// agent does. The log is the sole mechanism for observing the engine from
// outside: callers never read agent state directly, they read entries.
package auditlog

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a log entry.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
	KindAction  Kind = "action"
)

// Entry is one immutable audit record. Past entries are never mutated
// or deleted.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	ProposalID  string    `json:"proposal_id,omitempty"`
	OperationID string    `json:"operation_id,omitempty"`
}

// Option attaches optional fields to an entry at append time.
type Option func(*Entry)

// WithDetails attaches free-form detail text.
func WithDetails(details string) Option {
	return func(e *Entry) { e.Details = details }
}

// WithProposal tags the entry with the proposal it concerns.
func WithProposal(id string) Option {
	return func(e *Entry) { e.ProposalID = id }
}

// WithOperation tags the entry with the operation it concerns.
func WithOperation(id string) Option {
	return func(e *Entry) { e.OperationID = id }
}

// Log is an append-only sequence of entries with a single producer.
// An optional Store persists entries; an optional sink relays each
// appended entry to the host (e.g. for terminal display).
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	store   *Store
	sink    func(Entry)
}

// New creates an in-memory log.
func New() *Log {
	return &Log{}
}

// NewWithStore creates a log that also persists every entry to store.
func NewWithStore(store *Store) *Log {
	return &Log{store: store}
}

// SetSink registers a callback invoked for every appended entry.
// Must be set before the agent starts; not safe to swap mid-run.
func (l *Log) SetSink(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = fn
}

// Append records a new entry and returns it.
func (l *Log) Append(kind Kind, message string, opts ...Option) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      kind,
		Message:   message,
	}
	for _, opt := range opts {
		opt(&entry)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	store := l.store
	sink := l.sink
	l.mu.Unlock()

	if store != nil {
		if err := store.Insert(entry); err != nil {
			log.Printf("auditlog: failed to persist entry %s: %v", entry.ID, err)
		}
	}
	if sink != nil {
		sink(entry)
	}
	return entry
}

// Info appends an info entry.
func (l *Log) Info(message string, opts ...Option) Entry {
	return l.Append(KindInfo, message, opts...)
}

// Warning appends a warning entry.
func (l *Log) Warning(message string, opts ...Option) Entry {
	return l.Append(KindWarning, message, opts...)
}

// Error appends an error entry.
func (l *Log) Error(message string, opts ...Option) Entry {
	return l.Append(KindError, message, opts...)
}

// Action appends an action entry.
func (l *Log) Action(message string, opts ...Option) Entry {
	return l.Append(KindAction, message, opts...)
}

// Entries returns a copy of all entries in chronological order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the entry with the given id.
func (l *Log) Get(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// ByProposal returns all entries tagged with the given proposal id,
// in chronological order.
func (l *Log) ByProposal(proposalID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.ProposalID == proposalID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
