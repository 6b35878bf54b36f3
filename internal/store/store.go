// Package store persists synthesized staffing plans in SQLite. The full
// plan is stored as a JSON document; frequently filtered fields are
// lifted into columns for listing without unmarshaling every row.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/staffing"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for staffing plans.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies
// pragmas and the schema. Safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts a plan, replacing any previous version with the same id.
func (s *Store) Save(ctx context.Context, plan *staffing.Plan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", plan.ID, err)
	}

	needsReview := 0
	if plan.NeedsReview() {
		needsReview = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO plans
			(id, client, title, project_type, complexity,
			 overall_confidence, completeness, needs_review, plan_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Project.Client.Value,
		plan.Project.Title.Value,
		string(plan.Project.Type),
		string(plan.Project.Complexity),
		plan.OverallConfidence,
		plan.Completeness,
		needsReview,
		string(doc),
		plan.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	return nil
}

// Get loads one plan by id.
func (s *Store) Get(ctx context.Context, id string) (*staffing.Plan, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT plan_json FROM plans WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}

	var plan staffing.Plan
	if err := json.Unmarshal([]byte(doc), &plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &plan, nil
}

// PlanSummary is the listing row: enough to render an index without
// loading full plan documents.
type PlanSummary struct {
	ID                string    `json:"id"`
	Client            string    `json:"client"`
	Title             string    `json:"title"`
	ProjectType       string    `json:"project_type"`
	Complexity        string    `json:"complexity"`
	OverallConfidence float64   `json:"overall_confidence"`
	Completeness      float64   `json:"completeness"`
	NeedsReview       bool      `json:"needs_review"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListFilter narrows a listing. The zero value lists everything.
type ListFilter struct {
	Client string
	Limit  int
	Offset int
}

// List returns plan summaries, newest first. A non-positive limit
// defaults to 50.
func (s *Store) List(ctx context.Context, f ListFilter) ([]PlanSummary, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `
		SELECT id, client, title, project_type, complexity,
		       overall_confidence, completeness, needs_review, created_at
		FROM plans`
	args := []any{}
	if f.Client != "" {
		query += ` WHERE client = ?`
		args = append(args, f.Client)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanSummary
	for rows.Next() {
		var (
			ps          PlanSummary
			needsReview int
			createdAt   string
		)
		if err := rows.Scan(&ps.ID, &ps.Client, &ps.Title, &ps.ProjectType,
			&ps.Complexity, &ps.OverallConfidence, &ps.Completeness,
			&needsReview, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		ps.NeedsReview = needsReview != 0
		ps.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for plan %s: %w", ps.ID, err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
