// Package outbox keeps serialized command payloads in SQLite until an
// external transport picks them up. Payloads are keyed by their canonical
// fingerprint, so enqueuing the same command twice stores it once.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unreal-mcp/ucmd/pkg/command"

	_ "modernc.org/sqlite"
)

// Status values of an outbox record.
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
)

// seenCacheSize bounds the in-process cache of stored fingerprints.
const seenCacheSize = 1024

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no record has the given fingerprint.
var ErrNotFound = errors.New("outbox record not found")

// Record is one stored payload.
type Record struct {
	Fingerprint string          `json:"fingerprint"`
	RunID       string          `json:"run_id"`
	Type        command.Type    `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	Status      string          `json:"status"`
}

// Store is a SQLite backed outbox.
type Store struct {
	db    *sql.DB
	clock func() time.Time
	// seen holds fingerprints known to be stored, so repeated enqueues of
	// the same payload skip the database.
	seen *lru.Cache[string, struct{}]
}

// Open opens (or creates) the SQLite database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("outbox: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// New wraps db and creates the outbox table if needed.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("outbox: cache: %w", err)
	}
	s := &Store{db: db, clock: time.Now, seen: seen}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// WithClock overrides the clock for deterministic testing.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS command_outbox (
			fingerprint TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			wire_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			enqueued_at TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_command_outbox_status ON command_outbox (status, enqueued_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("outbox: migrate: %w", err)
		}
	}
	return nil
}

// Enqueue stores the payload of cmd. The boolean is false when a record
// with the same fingerprint already existed; the existing record is left
// untouched.
func (s *Store) Enqueue(ctx context.Context, runID string, cmd *command.Command) (*Record, bool, error) {
	payload, err := cmd.MarshalJSON()
	if err != nil {
		return nil, false, fmt.Errorf("outbox: encode %s: %w", cmd.Type(), err)
	}
	fp, err := cmd.Fingerprint()
	if err != nil {
		return nil, false, fmt.Errorf("outbox: fingerprint %s: %w", cmd.Type(), err)
	}
	rec := &Record{
		Fingerprint: fp,
		RunID:       runID,
		Type:        cmd.Type(),
		Payload:     payload,
		EnqueuedAt:  s.clock().UTC(),
		Status:      StatusPending,
	}
	if s.seen.Contains(fp) {
		return rec, false, nil
	}

	query := `INSERT INTO command_outbox (fingerprint, run_id, wire_type, payload, enqueued_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO NOTHING`
	res, err := s.db.ExecContext(ctx, query,
		rec.Fingerprint, rec.RunID, string(rec.Type), string(rec.Payload),
		rec.EnqueuedAt.Format(timeLayout), rec.Status,
	)
	if err != nil {
		return nil, false, fmt.Errorf("outbox: enqueue %s: %w", cmd.Type(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("outbox: enqueue %s: %w", cmd.Type(), err)
	}
	s.seen.Add(fp, struct{}{})
	return rec, n > 0, nil
}

// Get returns the record with the given fingerprint.
func (s *Store) Get(ctx context.Context, fingerprint string) (*Record, error) {
	query := `SELECT fingerprint, run_id, wire_type, payload, enqueued_at, status
		FROM command_outbox WHERE fingerprint = ?`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, fingerprint))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	return rec, err
}

// Pending returns up to limit pending records, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT fingerprint, run_id, wire_type, payload, enqueued_at, status
		FROM command_outbox
		WHERE status = ?
		ORDER BY enqueued_at ASC, rowid ASC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: list pending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: list pending: %w", err)
	}
	return out, nil
}

// MarkSent flags a record as handed to the transport.
func (s *Store) MarkSent(ctx context.Context, fingerprint string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE command_outbox SET status = ? WHERE fingerprint = ?`, StatusSent, fingerprint)
	if err != nil {
		return fmt.Errorf("outbox: mark sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("outbox: mark sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec        Record
		wireType   string
		payload    string
		enqueuedAt string
	)
	if err := row.Scan(&rec.Fingerprint, &rec.RunID, &wireType, &payload, &enqueuedAt, &rec.Status); err != nil {
		return nil, err
	}
	ts, err := time.Parse(timeLayout, enqueuedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp in outbox record %s: %w", rec.Fingerprint, err)
	}
	rec.Type = command.Type(wireType)
	rec.Payload = json.RawMessage(payload)
	rec.EnqueuedAt = ts
	return &rec, nil
}

// Command rebuilds the payload of rec as a raw command.
func (r *Record) Command() (*command.Command, error) {
	p, err := command.ParsePayload(r.Payload)
	if err != nil {
		return nil, err
	}
	c, _, err := command.Build(command.Raw{Type: p.Type, Params: p.Params})
	return c, err
}
