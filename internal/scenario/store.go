package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("scenario not found")
	ErrNameTaken = errors.New("scenario name already exists")
	ErrEmptyName = errors.New("scenario name is required")
)

// Store persists named scenarios in SQLite. Deletes are soft (deleted_at)
// and every mutation lands in the audit log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Saved is a stored scenario with its envelope and store-owned timestamps.
type Saved struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bundle is the whole-store export/import format.
type Bundle struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Scenarios  []Payload `json:"scenarios"`
}

func (s *Store) Create(ctx context.Context, p Payload) (Saved, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Saved{}, ErrEmptyName
	}
	p.Name = name

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scenarios WHERE name = ? AND deleted_at IS NULL)`, name,
	).Scan(&exists)
	if err != nil {
		return Saved{}, fmt.Errorf("check scenario name: %w", err)
	}
	if exists {
		return Saved{}, ErrNameTaken
	}

	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return Saved{}, fmt.Errorf("marshal scenario payload: %w", err)
	}

	now := s.now()
	saved := Saved{
		ID:        uuid.NewString(),
		Name:      name,
		Payload:   p,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, payload_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, saved.ID, name, string(payloadJSON), now, now)
	if err != nil {
		return Saved{}, fmt.Errorf("insert scenario: %w", err)
	}

	s.audit(ctx, "scenario.create", name, "")
	return saved, nil
}

func (s *Store) Update(ctx context.Context, name string, p Payload) (Saved, error) {
	p.Name = name

	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return Saved{}, fmt.Errorf("marshal scenario payload: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE scenarios
		SET payload_json = ?, updated_at = ?
		WHERE name = ? AND deleted_at IS NULL
	`, string(payloadJSON), s.now(), name)
	if err != nil {
		return Saved{}, fmt.Errorf("update scenario: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Saved{}, fmt.Errorf("update scenario: %w", err)
	}
	if affected == 0 {
		return Saved{}, ErrNotFound
	}

	s.audit(ctx, "scenario.update", name, "")
	return s.Get(ctx, name)
}

func (s *Store) Get(ctx context.Context, name string) (Saved, error) {
	var (
		saved       Saved
		payloadJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, payload_json, created_at, updated_at
		FROM scenarios
		WHERE name = ? AND deleted_at IS NULL
	`, name).Scan(&saved.ID, &saved.Name, &payloadJSON, &saved.CreatedAt, &saved.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Saved{}, ErrNotFound
	}
	if err != nil {
		return Saved{}, fmt.Errorf("query scenario: %w", err)
	}

	saved.Payload, err = Decode([]byte(payloadJSON))
	if err != nil {
		return Saved{}, fmt.Errorf("decode stored scenario %q: %w", name, err)
	}
	return saved, nil
}

func (s *Store) List(ctx context.Context) ([]Saved, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, payload_json, created_at, updated_at
		FROM scenarios
		WHERE deleted_at IS NULL
		ORDER BY datetime(updated_at) DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	out := make([]Saved, 0)
	for rows.Next() {
		var (
			saved       Saved
			payloadJSON string
		)
		if err := rows.Scan(&saved.ID, &saved.Name, &payloadJSON, &saved.CreatedAt, &saved.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		if saved.Payload, err = Decode([]byte(payloadJSON)); err != nil {
			return nil, fmt.Errorf("decode stored scenario %q: %w", saved.Name, err)
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scenarios
		SET deleted_at = ?
		WHERE name = ? AND deleted_at IS NULL
	`, s.now(), name)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.audit(ctx, "scenario.delete", name, "")
	return nil
}

// ExportAll bundles every live scenario for download.
func (s *Store) ExportAll(ctx context.Context) (Bundle, error) {
	saved, err := s.List(ctx)
	if err != nil {
		return Bundle{}, err
	}
	bundle := Bundle{
		Version:    CurrentVersion,
		ExportedAt: time.Now().UTC(),
		Scenarios:  make([]Payload, 0, len(saved)),
	}
	for _, sc := range saved {
		bundle.Scenarios = append(bundle.Scenarios, sc.Payload)
	}
	s.audit(ctx, "scenario.export", "", fmt.Sprintf("%d scenarios", len(bundle.Scenarios)))
	return bundle, nil
}

// Import upserts every scenario in the bundle and returns how many were
// created vs. updated.
func (s *Store) Import(ctx context.Context, bundle Bundle) (created, updated int, err error) {
	for _, p := range bundle.Scenarios {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if _, err := s.Create(ctx, p); err == nil {
			created++
			continue
		} else if !errors.Is(err, ErrNameTaken) {
			return created, updated, err
		}
		if _, err := s.Update(ctx, strings.TrimSpace(p.Name), p); err != nil {
			return created, updated, err
		}
		updated++
	}
	s.audit(ctx, "scenario.import", "", fmt.Sprintf("%d created, %d updated", created, updated))
	return created, updated, nil
}

// SaveCurrentState persists the working editing state, one row per store.
func (s *Store) SaveCurrentState(ctx context.Context, p Payload) error {
	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal current state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO current_state (id, payload_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at
	`, string(payloadJSON), s.now())
	if err != nil {
		return fmt.Errorf("save current state: %w", err)
	}
	return nil
}

// CurrentState returns the last saved working state, ErrNotFound when
// nothing was ever saved.
func (s *Store) CurrentState(ctx context.Context) (Payload, error) {
	var payloadJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM current_state WHERE id = 1`,
	).Scan(&payloadJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Payload{}, ErrNotFound
	}
	if err != nil {
		return Payload{}, fmt.Errorf("query current state: %w", err)
	}

	p, err := Decode([]byte(payloadJSON))
	if err != nil {
		return Payload{}, fmt.Errorf("decode current state: %w", err)
	}
	return p, nil
}

// audit is best-effort; a failed audit write never fails the mutation.
func (s *Store) audit(ctx context.Context, action, name, detail string) {
	_, _ = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, scenario_name, detail)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), action, name, detail)
}
