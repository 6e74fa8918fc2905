package clientstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newClientTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE client_records (
			scope TEXT NOT NULL,
			id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			due_at DATETIME,
			done BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, id)
		);
	`)
	if err != nil {
		t.Fatalf("failed creating schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestPutGetDelete(t *testing.T) {
	store := NewStore(newClientTestDB(t))
	ctx := context.Background()

	rec, err := store.Put(ctx, Record{
		Scope:   "client:42",
		Kind:    KindContact,
		Payload: json.RawMessage(`{"name": "Dana", "phone": "555-0100"}`),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("put should assign an id")
	}

	got, err := store.Get(ctx, "client:42", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != KindContact {
		t.Fatalf("unexpected kind %q", got.Kind)
	}

	if err := store.Delete(ctx, "client:42", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "client:42", rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPut_UpsertsByScopeAndID(t *testing.T) {
	store := NewStore(newClientTestDB(t))
	ctx := context.Background()

	first, err := store.Put(ctx, Record{Scope: "anon:s1", Kind: KindNote, Payload: json.RawMessage(`{"text": "v1"}`)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	updated, err := store.Put(ctx, Record{Scope: "anon:s1", ID: first.ID, Kind: KindNote, Payload: json.RawMessage(`{"text": "v2"}`)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if string(updated.Payload) != `{"text": "v2"}` {
		t.Fatalf("payload not updated: %s", updated.Payload)
	}

	all, err := store.List(ctx, "anon:s1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert must not duplicate, got %d records", len(all))
	}
}

func TestList_FiltersByKind(t *testing.T) {
	store := NewStore(newClientTestDB(t))
	ctx := context.Background()

	for _, kind := range []Kind{KindContact, KindNote, KindNote} {
		if _, err := store.Put(ctx, Record{Scope: "client:7", Kind: kind}); err != nil {
			t.Fatalf("put %s: %v", kind, err)
		}
	}

	notes, err := store.List(ctx, "client:7", KindNote)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}

	all, err := store.List(ctx, "client:7", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestMoveScope(t *testing.T) {
	store := NewStore(newClientTestDB(t))
	ctx := context.Background()

	for range 3 {
		if _, err := store.Put(ctx, Record{Scope: "anon:s9", Kind: KindNote}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	kept, err := store.Put(ctx, Record{Scope: "client:3", Kind: KindContact})
	if err != nil {
		t.Fatalf("put existing client record: %v", err)
	}

	moved, err := store.MoveScope(ctx, "anon:s9", "client:3")
	if err != nil {
		t.Fatalf("move scope: %v", err)
	}
	if moved != 3 {
		t.Fatalf("expected 3 moved records, got %d", moved)
	}

	remaining, err := store.List(ctx, "anon:s9", "")
	if err != nil {
		t.Fatalf("list source: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("source scope should be empty, got %d records", len(remaining))
	}

	adopted, err := store.List(ctx, "client:3", "")
	if err != nil {
		t.Fatalf("list target: %v", err)
	}
	if len(adopted) != 4 {
		t.Fatalf("target should hold 4 records, got %d", len(adopted))
	}
	if _, err := store.Get(ctx, "client:3", kept.ID); err != nil {
		t.Fatalf("pre-existing target record lost: %v", err)
	}

	if _, err := store.MoveScope(ctx, "same", "same"); err == nil {
		t.Fatal("moving a scope onto itself should fail")
	}
}

func TestDueRemindersAndMarkNotified(t *testing.T) {
	store := NewStore(newClientTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	due, err := store.Put(ctx, Record{Scope: "client:5", Kind: KindReminder, DueAt: &past})
	if err != nil {
		t.Fatalf("put due reminder: %v", err)
	}
	if _, err := store.Put(ctx, Record{Scope: "client:5", Kind: KindReminder, DueAt: &future}); err != nil {
		t.Fatalf("put future reminder: %v", err)
	}
	if _, err := store.Put(ctx, Record{Scope: "client:5", Kind: KindNote}); err != nil {
		t.Fatalf("put note: %v", err)
	}

	fired, err := store.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(fired) != 1 || fired[0].ID != due.ID {
		t.Fatalf("expected only the past reminder, got %+v", fired)
	}

	if err := store.MarkNotified(ctx, "client:5", due.ID); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	fired, err = store.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders after notify: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("notified reminder should not fire again, got %+v", fired)
	}

	activity, err := store.List(ctx, "client:5", KindActivity)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 1 {
		t.Fatalf("expected 1 activity record, got %d", len(activity))
	}
}
