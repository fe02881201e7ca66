package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists audit entries to SQLite so runs can be inspected after
// the process exits. Append-only: there are no update or delete paths.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the audit database at dbPath.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows the host to read entries while the agent writes.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS log_entries (
		id           TEXT PRIMARY KEY,
		ts_unix_nano INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		message      TEXT NOT NULL,
		details      TEXT,
		proposal_id  TEXT,
		operation_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_log_entries_ts ON log_entries(ts_unix_nano);
	CREATE INDEX IF NOT EXISTS idx_log_entries_proposal ON log_entries(proposal_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Insert persists one entry.
func (s *Store) Insert(e Entry) error {
	query := `
		INSERT INTO log_entries (id, ts_unix_nano, kind, message, details, proposal_id, operation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, e.ID, e.Timestamp.UnixNano(), string(e.Kind), e.Message,
		nullable(e.Details), nullable(e.ProposalID), nullable(e.OperationID))
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// Get retrieves one entry by id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	query := `
		SELECT id, ts_unix_nano, kind, message, details, proposal_id, operation_id
		FROM log_entries WHERE id = ?
	`
	return scanEntry(s.db.QueryRowContext(ctx, query, id))
}

// ByProposal returns all entries tagged with the given proposal id, oldest first.
func (s *Store) ByProposal(ctx context.Context, proposalID string) ([]Entry, error) {
	query := `
		SELECT id, ts_unix_nano, kind, message, details, proposal_id, operation_id
		FROM log_entries WHERE proposal_id = ?
		ORDER BY ts_unix_nano
	`
	return s.queryEntries(ctx, query, proposalID)
}

// List returns entries in chronological order, newest last, up to limit.
// A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, ts_unix_nano, kind, message, details, proposal_id, operation_id
		FROM log_entries ORDER BY ts_unix_nano
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryEntries(ctx, query)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var tsNano int64
	var kind string
	var details, proposalID, operationID sql.NullString
	err := row.Scan(&e.ID, &tsNano, &kind, &e.Message, &details, &proposalID, &operationID)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to scan log entry: %w", err)
	}
	e.Timestamp = time.Unix(0, tsNano)
	e.Kind = Kind(kind)
	if details.Valid {
		e.Details = details.String
	}
	if proposalID.Valid {
		e.ProposalID = proposalID.String
	}
	if operationID.Valid {
		e.OperationID = operationID.String
	}
	return e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
