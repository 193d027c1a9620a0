package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ruliad/internal/core"
	"ruliad/internal/store"
)

// Store implements store.Gateway on PostgreSQL via GORM.
type Store struct {
	db *gorm.DB
}

type requestRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Environment string `gorm:"index;not null"`
	RuleName    string `gorm:"not null"`
	PersonaType string
	PersonaID   string
	JSONContext string `gorm:"column:json_context;type:text"`
	Status      string `gorm:"not null"`
	CreatedBy   string
	CreatedAt   time.Time
}

func (requestRow) TableName() string { return "requests" }

type suiteRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Environment string `gorm:"index;not null"`
	SourceFile  string
	Entries     string `gorm:"type:text"`
	Status      string `gorm:"not null"`
	CreatedBy   string
	CreatedAt   time.Time
}

func (suiteRow) TableName() string { return "priority_suites" }

type apiCallRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Environment string `gorm:"index;not null"`
	RuleName    string
	URL         string `gorm:"not null"`
	Method      string `gorm:"not null"`
	Headers     string `gorm:"type:text"`
	QueryParams string `gorm:"type:text"`
	Body        string `gorm:"type:text"`
	Auth        string `gorm:"type:text"`
	Status      string `gorm:"not null"`
	CreatedBy   string
	CreatedAt   time.Time
}

func (apiCallRow) TableName() string { return "api_calls" }

type runRow struct {
	ID          string `gorm:"primaryKey"`
	RunType     string `gorm:"index:idx_runs_ref;not null"`
	ReferenceID string `gorm:"index:idx_runs_ref;not null"`
	Environment string `gorm:"index;not null"`
	Status      string `gorm:"not null"`
	Result      string `gorm:"type:text"`
	ExecutionMS int64  `gorm:"column:execution_ms"`
	CreatedBy   string
	CreatedAt   time.Time `gorm:"index"`
}

func (runRow) TableName() string { return "run_history" }

// New connects to PostgreSQL and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(&requestRow{}, &suiteRow{}, &apiCallRow{}, &runRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Create inserts a new item and returns its freshly minted ID.
func (s *Store) Create(ctx context.Context, item core.Item) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var err error
	switch v := item.(type) {
	case *core.Request:
		err = s.db.WithContext(ctx).Create(&requestRow{
			ID:          id,
			Name:        v.Name,
			Environment: v.Environment,
			RuleName:    v.RuleName,
			PersonaType: v.PersonaType,
			PersonaID:   v.PersonaID,
			JSONContext: string(v.JSONContext),
			Status:      string(v.Status),
			CreatedBy:   v.CreatedBy,
			CreatedAt:   now,
		}).Error

	case *core.Suite:
		entriesJSON, _ := json.Marshal(v.Entries)
		err = s.db.WithContext(ctx).Create(&suiteRow{
			ID:          id,
			Name:        v.Name,
			Environment: v.Environment,
			SourceFile:  v.SourceFile,
			Entries:     string(entriesJSON),
			Status:      string(v.Status),
			CreatedBy:   v.CreatedBy,
			CreatedAt:   now,
		}).Error

	case *core.APICall:
		headersJSON, _ := json.Marshal(v.Headers)
		queryJSON, _ := json.Marshal(v.QueryParams)
		var authJSON []byte
		if v.Auth != nil {
			authJSON, _ = json.Marshal(v.Auth)
		}
		err = s.db.WithContext(ctx).Create(&apiCallRow{
			ID:          id,
			Name:        v.Name,
			Environment: v.Environment,
			RuleName:    v.RuleName,
			URL:         v.URL,
			Method:      v.Method,
			Headers:     string(headersJSON),
			QueryParams: string(queryJSON),
			Body:        v.Body,
			Auth:        string(authJSON),
			Status:      string(v.Status),
			CreatedBy:   v.CreatedBy,
			CreatedAt:   now,
		}).Error

	default:
		return "", fmt.Errorf("%w: %s", store.ErrUnknownKind, item.Kind())
	}

	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", item.Kind(), err)
	}
	return id, nil
}

// ListRequests returns all requests for an environment, newest first.
func (s *Store) ListRequests(ctx context.Context, env string) ([]*core.Request, error) {
	var rows []requestRow
	if err := s.db.WithContext(ctx).
		Where("environment = ?", env).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	out := make([]*core.Request, 0, len(rows))
	for _, row := range rows {
		r := &core.Request{
			ID:          row.ID,
			Name:        row.Name,
			Environment: row.Environment,
			RuleName:    row.RuleName,
			PersonaType: row.PersonaType,
			PersonaID:   row.PersonaID,
			Status:      core.Status(row.Status),
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		}
		if row.JSONContext != "" {
			r.JSONContext = json.RawMessage(row.JSONContext)
		}
		out = append(out, r)
	}
	return out, nil
}

// ListSuites returns all priority suites for an environment, newest first.
func (s *Store) ListSuites(ctx context.Context, env string) ([]*core.Suite, error) {
	var rows []suiteRow
	if err := s.db.WithContext(ctx).
		Where("environment = ?", env).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list suites: %w", err)
	}

	out := make([]*core.Suite, 0, len(rows))
	for _, row := range rows {
		su := &core.Suite{
			ID:          row.ID,
			Name:        row.Name,
			Environment: row.Environment,
			SourceFile:  row.SourceFile,
			Status:      core.Status(row.Status),
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		}
		if row.Entries != "" {
			json.Unmarshal([]byte(row.Entries), &su.Entries)
		}
		out = append(out, su)
	}
	return out, nil
}

// ListAPICalls returns all API calls for an environment, newest first.
func (s *Store) ListAPICalls(ctx context.Context, env string) ([]*core.APICall, error) {
	var rows []apiCallRow
	if err := s.db.WithContext(ctx).
		Where("environment = ?", env).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list api calls: %w", err)
	}

	out := make([]*core.APICall, 0, len(rows))
	for _, row := range rows {
		c := &core.APICall{
			ID:          row.ID,
			Name:        row.Name,
			Environment: row.Environment,
			RuleName:    row.RuleName,
			URL:         row.URL,
			Method:      row.Method,
			Body:        row.Body,
			Status:      core.Status(row.Status),
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		}
		if row.Headers != "" {
			json.Unmarshal([]byte(row.Headers), &c.Headers)
		}
		if row.QueryParams != "" {
			json.Unmarshal([]byte(row.QueryParams), &c.QueryParams)
		}
		if row.Auth != "" {
			var auth core.AuthConfig
			if json.Unmarshal([]byte(row.Auth), &auth) == nil {
				c.Auth = &auth
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateStatus sets the status of a stored item.
func (s *Store) UpdateStatus(ctx context.Context, kind core.ItemKind, id string, status core.Status, modifiedBy string) error {
	if id == "" {
		return store.ErrInvalidID
	}

	model, err := modelFor(kind)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "created_by": modifiedBy})
	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a stored item by kind and ID.
func (s *Store) Delete(ctx context.Context, kind core.ItemKind, id string) error {
	if id == "" {
		return store.ErrInvalidID
	}

	model, err := modelFor(kind)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SaveRun records a run outcome and returns its ID.
func (s *Store) SaveRun(ctx context.Context, run store.Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	row := runRow{
		ID:          run.ID,
		RunType:     string(run.RunType),
		ReferenceID: run.ReferenceID,
		Environment: run.Environment,
		Status:      run.Status,
		Result:      run.Result,
		ExecutionMS: run.ExecutionMS,
		CreatedBy:   run.CreatedBy,
		CreatedAt:   run.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return run.ID, nil
}

// RunHistory returns runs for a specific item, newest first.
func (s *Store) RunHistory(ctx context.Context, env string, kind core.ItemKind, referenceID string) ([]store.Run, error) {
	var rows []runRow
	if err := s.db.WithContext(ctx).
		Where("environment = ? AND run_type = ? AND reference_id = ?", env, string(kind), referenceID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	return toRuns(rows), nil
}

// AllRunHistory returns the most recent runs for an environment.
func (s *Store) AllRunHistory(ctx context.Context, env string, limit int) ([]store.Run, error) {
	q := s.db.WithContext(ctx).
		Where("environment = ?", env).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	return toRuns(rows), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func modelFor(kind core.ItemKind) (interface{}, error) {
	switch kind {
	case core.KindRequest:
		return &requestRow{}, nil
	case core.KindSuite:
		return &suiteRow{}, nil
	case core.KindAPICall:
		return &apiCallRow{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownKind, kind)
	}
}

func toRuns(rows []runRow) []store.Run {
	out := make([]store.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.Run{
			ID:          row.ID,
			RunType:     core.ItemKind(row.RunType),
			ReferenceID: row.ReferenceID,
			Environment: row.Environment,
			Status:      row.Status,
			Result:      row.Result,
			ExecutionMS: row.ExecutionMS,
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out
}

// IsNotFound reports whether err indicates a missing record, from either
// this package or GORM itself.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
