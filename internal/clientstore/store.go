// Package clientstore keeps client-relationship records (contacts,
// notes, reminders, activity) keyed by (scope, record id). A scope is a
// session identity: "anon:<session>" before a client is chosen,
// "client:<id>" after. MoveScope migrates one scope's records into
// another, which is how an anonymous session is adopted by a client.
package clientstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("client record not found")

type Kind string

const (
	KindContact  Kind = "contact"
	KindNote     Kind = "note"
	KindReminder Kind = "reminder"
	KindActivity Kind = "activity"
)

// Record is one stored item. Payload is opaque to the store; DueAt and
// Done only carry meaning for reminders.
type Record struct {
	Scope     string          `json:"scope"`
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	DueAt     *time.Time      `json:"dueAt,omitempty"`
	Done      bool            `json:"done"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Put upserts a record, assigning an id when the caller did not.
func (s *Store) Put(ctx context.Context, rec Record) (Record, error) {
	if rec.Scope == "" {
		return Record{}, errors.New("record scope is required")
	}
	if rec.Kind == "" {
		return Record{}, errors.New("record kind is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Payload == nil {
		rec.Payload = json.RawMessage("{}")
	}

	now := s.now()
	rec.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_records (scope, id, kind, payload_json, due_at, done, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope, id) DO UPDATE SET
			kind = excluded.kind,
			payload_json = excluded.payload_json,
			due_at = excluded.due_at,
			done = excluded.done,
			updated_at = excluded.updated_at
	`, rec.Scope, rec.ID, rec.Kind, string(rec.Payload), rec.DueAt, rec.Done, now, now)
	if err != nil {
		return Record{}, fmt.Errorf("upsert client record: %w", err)
	}

	return s.Get(ctx, rec.Scope, rec.ID)
}

func (s *Store) Get(ctx context.Context, scope, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT scope, id, kind, payload_json, due_at, done, created_at, updated_at
		FROM client_records
		WHERE scope = ? AND id = ?
	`, scope, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query client record: %w", err)
	}
	return rec, nil
}

// List returns a scope's records, newest first. An empty kind means all
// kinds.
func (s *Store) List(ctx context.Context, scope string, kind Kind) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, id, kind, payload_json, due_at, done, created_at, updated_at
		FROM client_records
		WHERE scope = ? AND (? = '' OR kind = ?)
		ORDER BY datetime(created_at) DESC, id
	`, scope, string(kind), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query client records: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client records: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, scope, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM client_records WHERE scope = ? AND id = ?`, scope, id)
	if err != nil {
		return fmt.Errorf("delete client record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete client record: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveScope migrates every record from one scope into another and
// returns how many moved. On an id collision the moved record wins,
// matching "adopt the anonymous session's newer edits".
func (s *Store) MoveScope(ctx context.Context, from, to string) (int, error) {
	if from == "" || to == "" || from == to {
		return 0, fmt.Errorf("invalid scope move %q -> %q", from, to)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE OR REPLACE client_records
		SET scope = ?, updated_at = ?
		WHERE scope = ?
	`, to, s.now(), from)
	if err != nil {
		return 0, fmt.Errorf("move scope %q -> %q: %w", from, to, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("move scope %q -> %q: %w", from, to, err)
	}
	return int(affected), nil
}

// DueReminders returns open reminders across all scopes whose due time
// has passed.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, id, kind, payload_json, due_at, done, created_at, updated_at
		FROM client_records
		WHERE kind = ? AND done = FALSE AND due_at IS NOT NULL AND due_at <= ?
		ORDER BY due_at
	`, string(KindReminder), now)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due reminders: %w", err)
	}
	return out, nil
}

// MarkNotified closes out a fired reminder and leaves an activity record
// in the same scope so the timeline shows it.
func (s *Store) MarkNotified(ctx context.Context, scope, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE client_records
		SET done = TRUE, updated_at = ?
		WHERE scope = ? AND id = ? AND kind = ?
	`, s.now(), scope, id, string(KindReminder))
	if err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	activity, err := json.Marshal(map[string]string{
		"event":      "reminder.fired",
		"reminderId": id,
	})
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}
	_, err = s.Put(ctx, Record{Scope: scope, Kind: KindActivity, Payload: activity})
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec         Record
		payloadJSON string
		dueAt       sql.NullTime
	)
	err := row.Scan(&rec.Scope, &rec.ID, &rec.Kind, &payloadJSON, &dueAt, &rec.Done, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Payload = json.RawMessage(payloadJSON)
	if dueAt.Valid {
		due := dueAt.Time
		rec.DueAt = &due
	}
	return rec, nil
}
