package main

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/dmaher/loanscope/internal/cache"
	"github.com/dmaher/loanscope/internal/clientstore"
	"github.com/dmaher/loanscope/internal/scenario"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "swordfish"
)

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE scenarios (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at DATETIME
		);
		CREATE UNIQUE INDEX idx_scenarios_live_name ON scenarios(name) WHERE deleted_at IS NULL;
		CREATE TABLE current_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE audit_log (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			scenario_name TEXT,
			detail TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
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

	log := logrus.New()
	log.SetOutput(io.Discard)

	auth := newAuthService(db, "test-session-secret")
	if err := auth.ensureAdminUser(testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("failed to ensure admin user: %v", err)
	}

	srv := &server{
		auth:      auth,
		db:        db,
		scenarios: scenario.NewStore(db),
		clients:   clientstore.NewStore(db),
		cache:     cache.NewMemory(),
		log:       log,
	}
	return srv, srv.routes()
}

// doRequest runs one request through the full router, attaching the
// session cookie when given.
func doRequest(t *testing.T, handler http.Handler, method, path, body string, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// login authenticates as the seeded admin and returns the session cookie.
func login(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/api/login",
		`{"email":"`+testAdminEmail+`","password":"`+testAdminPassword+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}

const purchaseScenarioJSON = `{
	"version": 1,
	"name": "First home",
	"loanData": {
		"loanType": "purchase",
		"purchasePrice": 400000,
		"downPayment": 80000,
		"annualPropertyTax": 4800,
		"annualHomeInsurance": 1500,
		"grossMonthlyIncome": 9000,
		"debts": [
			{"id": 1, "creditor": "Auto loan", "monthlyPayment": 350, "includeInDTI": true}
		],
		"programs": [
			{"id": 1, "type": "conventional", "rate": 6.5, "term": 30, "selected": true, "effectiveRate": 6.5},
			{"id": 2, "type": "5-year-arm", "rate": 6.0, "term": 30, "selected": true, "effectiveRate": 6.0}
		]
	},
	"preferredProgramId": 2
}`
