package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ruliad/internal/core"
	"ruliad/internal/store"
)

// Store implements store.Gateway using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New creates a new SQLite-backed gateway.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// NewInMemory creates a new in-memory SQLite gateway (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			environment TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			persona_type TEXT,
			persona_id TEXT,
			json_context TEXT,
			status TEXT NOT NULL,
			created_by TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS priority_suites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			environment TEXT NOT NULL,
			source_file TEXT,
			entries TEXT,
			status TEXT NOT NULL,
			created_by TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS api_calls (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			environment TEXT NOT NULL,
			rule_name TEXT,
			url TEXT NOT NULL,
			method TEXT NOT NULL,
			headers TEXT,
			query_params TEXT,
			body TEXT,
			auth TEXT,
			status TEXT NOT NULL,
			created_by TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_history (
			id TEXT PRIMARY KEY,
			run_type TEXT NOT NULL,
			reference_id TEXT NOT NULL,
			environment TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT,
			execution_ms INTEGER,
			created_by TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_requests_env ON requests(environment);
		CREATE INDEX IF NOT EXISTS idx_suites_env ON priority_suites(environment);
		CREATE INDEX IF NOT EXISTS idx_api_calls_env ON api_calls(environment);
		CREATE INDEX IF NOT EXISTS idx_runs_env ON run_history(environment);
		CREATE INDEX IF NOT EXISTS idx_runs_ref ON run_history(run_type, reference_id);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON run_history(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new item and returns its freshly minted ID. Any ID
// already set on the item is ignored.
func (s *Store) Create(ctx context.Context, item core.Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", store.ErrStoreClosed
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	switch v := item.(type) {
	case *core.Request:
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO requests (
				id, name, environment, rule_name, persona_type, persona_id,
				json_context, status, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, v.Name, v.Environment, v.RuleName, v.PersonaType, v.PersonaID,
			string(v.JSONContext), string(v.Status), v.CreatedBy, now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert request: %w", err)
		}

	case *core.Suite:
		entriesJSON, _ := json.Marshal(v.Entries)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO priority_suites (
				id, name, environment, source_file, entries, status, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, v.Name, v.Environment, v.SourceFile, string(entriesJSON),
			string(v.Status), v.CreatedBy, now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert suite: %w", err)
		}

	case *core.APICall:
		headersJSON, _ := json.Marshal(v.Headers)
		queryJSON, _ := json.Marshal(v.QueryParams)
		var authJSON []byte
		if v.Auth != nil {
			authJSON, _ = json.Marshal(v.Auth)
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO api_calls (
				id, name, environment, rule_name, url, method, headers,
				query_params, body, auth, status, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, v.Name, v.Environment, v.RuleName, v.URL, v.Method,
			string(headersJSON), string(queryJSON), v.Body, string(authJSON),
			string(v.Status), v.CreatedBy, now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert api call: %w", err)
		}

	default:
		return "", fmt.Errorf("%w: %s", store.ErrUnknownKind, item.Kind())
	}

	return id, nil
}

// ListRequests returns all requests for an environment, newest first.
func (s *Store) ListRequests(ctx context.Context, env string) ([]*core.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, environment, rule_name, persona_type, persona_id,
			json_context, status, created_by, created_at
		FROM requests WHERE environment = ? ORDER BY created_at DESC
	`, env)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []*core.Request
	for rows.Next() {
		var r core.Request
		var jsonCtx sql.NullString
		var status string
		if err := rows.Scan(&r.ID, &r.Name, &r.Environment, &r.RuleName,
			&r.PersonaType, &r.PersonaID, &jsonCtx, &status, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		if jsonCtx.Valid && jsonCtx.String != "" {
			r.JSONContext = json.RawMessage(jsonCtx.String)
		}
		r.Status = core.Status(status)
		out = append(out, &r)
	}

	return out, rows.Err()
}

// ListSuites returns all priority suites for an environment, newest first.
func (s *Store) ListSuites(ctx context.Context, env string) ([]*core.Suite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, environment, source_file, entries, status, created_by, created_at
		FROM priority_suites WHERE environment = ? ORDER BY created_at DESC
	`, env)
	if err != nil {
		return nil, fmt.Errorf("failed to list suites: %w", err)
	}
	defer rows.Close()

	var out []*core.Suite
	for rows.Next() {
		var su core.Suite
		var entriesJSON sql.NullString
		var status string
		if err := rows.Scan(&su.ID, &su.Name, &su.Environment, &su.SourceFile,
			&entriesJSON, &status, &su.CreatedBy, &su.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suite: %w", err)
		}
		if entriesJSON.Valid && entriesJSON.String != "" {
			json.Unmarshal([]byte(entriesJSON.String), &su.Entries)
		}
		su.Status = core.Status(status)
		out = append(out, &su)
	}

	return out, rows.Err()
}

// ListAPICalls returns all API calls for an environment, newest first.
func (s *Store) ListAPICalls(ctx context.Context, env string) ([]*core.APICall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, environment, rule_name, url, method, headers,
			query_params, body, auth, status, created_by, created_at
		FROM api_calls WHERE environment = ? ORDER BY created_at DESC
	`, env)
	if err != nil {
		return nil, fmt.Errorf("failed to list api calls: %w", err)
	}
	defer rows.Close()

	var out []*core.APICall
	for rows.Next() {
		var c core.APICall
		var headersJSON, queryJSON, authJSON sql.NullString
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Environment, &c.RuleName,
			&c.URL, &c.Method, &headersJSON, &queryJSON, &c.Body, &authJSON,
			&status, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api call: %w", err)
		}
		if headersJSON.Valid && headersJSON.String != "" {
			json.Unmarshal([]byte(headersJSON.String), &c.Headers)
		}
		if queryJSON.Valid && queryJSON.String != "" {
			json.Unmarshal([]byte(queryJSON.String), &c.QueryParams)
		}
		if authJSON.Valid && authJSON.String != "" {
			var auth core.AuthConfig
			if json.Unmarshal([]byte(authJSON.String), &auth) == nil {
				c.Auth = &auth
			}
		}
		c.Status = core.Status(status)
		out = append(out, &c)
	}

	return out, rows.Err()
}

// UpdateStatus sets the status of a stored item.
func (s *Store) UpdateStatus(ctx context.Context, kind core.ItemKind, id string, status core.Status, modifiedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrStoreClosed
	}
	if id == "" {
		return store.ErrInvalidID
	}

	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET status = ?, created_by = ? WHERE id = ?", table),
		string(status), modifiedBy, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Delete removes a stored item by kind and ID.
func (s *Store) Delete(ctx context.Context, kind core.ItemKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrStoreClosed
	}
	if id == "" {
		return store.ErrInvalidID
	}

	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// SaveRun records a run outcome and returns its ID.
func (s *Store) SaveRun(ctx context.Context, run store.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", store.ErrStoreClosed
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_history (
			id, run_type, reference_id, environment, status, result,
			execution_ms, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, string(run.RunType), run.ReferenceID, run.Environment,
		run.Status, run.Result, run.ExecutionMS, run.CreatedBy, run.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return run.ID, nil
}

// RunHistory returns runs for a specific item, newest first.
func (s *Store) RunHistory(ctx context.Context, env string, kind core.ItemKind, referenceID string) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_type, reference_id, environment, status, result,
			execution_ms, created_by, created_at
		FROM run_history
		WHERE environment = ? AND run_type = ? AND reference_id = ?
		ORDER BY created_at DESC
	`, env, string(kind), referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// AllRunHistory returns the most recent runs for an environment.
func (s *Store) AllRunHistory(ctx context.Context, env string, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrStoreClosed
	}

	query := `
		SELECT id, run_type, reference_id, environment, status, result,
			execution_ms, created_by, created_at
		FROM run_history WHERE environment = ? ORDER BY created_at DESC
	`
	args := []interface{}{env}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func tableFor(kind core.ItemKind) (string, error) {
	switch kind {
	case core.KindRequest:
		return "requests", nil
	case core.KindSuite:
		return "priority_suites", nil
	case core.KindAPICall:
		return "api_calls", nil
	default:
		return "", fmt.Errorf("%w: %s", store.ErrUnknownKind, kind)
	}
}

func scanRuns(rows *sql.Rows) ([]store.Run, error) {
	var out []store.Run
	for rows.Next() {
		var r store.Run
		var runType string
		if err := rows.Scan(&r.ID, &runType, &r.ReferenceID, &r.Environment,
			&r.Status, &r.Result, &r.ExecutionMS, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.RunType = core.ItemKind(runType)
		out = append(out, r)
	}
	return out, rows.Err()
}
