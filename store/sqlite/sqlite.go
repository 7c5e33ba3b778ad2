/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements claims.QueryRepository plus the comment and invoice stores
  used by the API layer. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

OPTIMISTIC CONCURRENCY:
  The cases table carries a version column. SaveCase only updates a row
  whose stored version matches the caller's; a mismatch returns
  claims.ErrConflict and the write is discarded.

KEY TABLES:
  cases:     One row per claim file. Checklist, coverages and the
             insured profile are stored as JSON columns - they are
             aggregate-owned and always read/written whole.
  tasks:     Follow-up tasks, keyed by claim number.
  comments:  Case activity log.
  invoices:  At most one settlement invoice per claim number.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/claims.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - claims/repository.go: Interface definitions
  - claims/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/claims-engine/claims"
)

// Store implements claims.QueryRepository and the API-facing comment and
// invoice persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		claim_number TEXT NOT NULL UNIQUE,
		insurer TEXT,
		insured_json TEXT,
		policy_number TEXT,
		line_of_business TEXT,
		cause TEXT,
		analyst TEXT,
		handler TEXT,
		status TEXT NOT NULL,
		sub_status TEXT,
		assigned TEXT,
		incident_date TEXT,
		reported_date TEXT,
		interview_date TEXT,
		documentation_complete_date TEXT,
		closed_date TEXT,
		checklist_json TEXT,
		coverages_json TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
	CREATE INDEX IF NOT EXISTS idx_cases_analyst ON cases(analyst);
	CREATE INDEX IF NOT EXISTS idx_cases_insurer ON cases(insurer);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		claim_number TEXT NOT NULL,
		text TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		assignee TEXT,
		due_date TEXT,
		due_time TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_claim ON tasks(claim_number);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date) WHERE done = 0;

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		claim_number TEXT NOT NULL,
		author TEXT,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comments_claim ON comments(claim_number);

	CREATE TABLE IF NOT EXISTS invoices (
		claim_number TEXT PRIMARY KEY,
		point_of_sale TEXT,
		number TEXT,
		cae TEXT,
		issue_date TEXT,
		items_json TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CASES
// =============================================================================

const caseColumns = `id, claim_number, insurer, insured_json, policy_number,
	line_of_business, cause, analyst, handler, status, sub_status,
	assigned, incident_date, reported_date, interview_date,
	documentation_complete_date, closed_date, checklist_json,
	coverages_json, version, created_at, updated_at`

// GetCase loads a case by id.
func (s *Store) GetCase(ctx context.Context, id claims.CaseID) (*claims.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = ?`, string(id))
	return scanCaseRow(row)
}

// GetCaseByClaimNumber resolves the unique business key.
func (s *Store) GetCaseByClaimNumber(ctx context.Context, claimNumber string) (*claims.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE claim_number = ?`, claimNumber)
	return scanCaseRow(row)
}

// SaveCase inserts a new case or updates an existing one under the
// optimistic version check.
func (s *Store) SaveCase(ctx context.Context, c *claims.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM cases WHERE id = ?`, string(c.ID)).Scan(&stored)

	switch {
	case err == sql.ErrNoRows:
		return s.insertCase(ctx, c)
	case err != nil:
		return &claims.RepositoryError{Op: "save case", Err: err}
	}

	if c.Version != stored {
		return claims.ErrConflict
	}
	return s.updateCase(ctx, c, stored)
}

func (s *Store) insertCase(ctx context.Context, c *claims.Case) error {
	insured, checklist, coverages, err := marshalCaseJSON(c)
	if err != nil {
		return &claims.RepositoryError{Op: "save case", Err: err}
	}

	c.Version = 1
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(c.ID), c.ClaimNumber, c.Insurer, insured, c.PolicyNumber,
		c.LineOfBusiness, c.Cause, c.Analyst, c.Handler, string(c.Status),
		c.SubStatus, fmtDate(c.Assigned), fmtDate(c.IncidentDate),
		fmtDate(c.ReportedDate), fmtDate(c.InterviewDate),
		fmtDate(c.DocumentationCompleteDate), fmtDate(c.ClosedDate),
		checklist, coverages, c.Version,
		c.CreatedAt.Format(time.RFC3339), c.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return &claims.RepositoryError{Op: "insert case", Err: err}
	}
	return nil
}

func (s *Store) updateCase(ctx context.Context, c *claims.Case, stored int64) error {
	insured, checklist, coverages, err := marshalCaseJSON(c)
	if err != nil {
		return &claims.RepositoryError{Op: "save case", Err: err}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cases SET
			claim_number = ?, insurer = ?, insured_json = ?, policy_number = ?,
			line_of_business = ?, cause = ?, analyst = ?, handler = ?,
			status = ?, sub_status = ?, assigned = ?, incident_date = ?,
			reported_date = ?, interview_date = ?,
			documentation_complete_date = ?, closed_date = ?,
			checklist_json = ?, coverages_json = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		c.ClaimNumber, c.Insurer, insured, c.PolicyNumber,
		c.LineOfBusiness, c.Cause, c.Analyst, c.Handler,
		string(c.Status), c.SubStatus, fmtDate(c.Assigned), fmtDate(c.IncidentDate),
		fmtDate(c.ReportedDate), fmtDate(c.InterviewDate),
		fmtDate(c.DocumentationCompleteDate), fmtDate(c.ClosedDate),
		checklist, coverages, stored+1, c.UpdatedAt.Format(time.RFC3339),
		string(c.ID), stored)
	if err != nil {
		return &claims.RepositoryError{Op: "update case", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &claims.RepositoryError{Op: "update case", Err: err}
	}
	if affected == 0 {
		// Lost the race between the version read and the write.
		return claims.ErrConflict
	}

	c.Version = stored + 1
	return nil
}

// ListCases returns cases matching the filter, newest first.
func (s *Store) ListCases(ctx context.Context, filter claims.CaseFilter) ([]claims.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var conds []string
	var args []any

	if filter.ClaimNumber != "" {
		conds = append(conds, `claim_number LIKE ?`)
		args = append(args, "%"+filter.ClaimNumber+"%")
	}
	if filter.Insurer != "" {
		conds = append(conds, `insurer = ?`)
		args = append(args, filter.Insurer)
	}
	if filter.Analyst != "" {
		conds = append(conds, `analyst = ?`)
		args = append(args, filter.Analyst)
	}
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &claims.RepositoryError{Op: "list cases", Err: err}
	}
	defer rows.Close()

	var result []claims.Case
	for rows.Next() {
		c, err := scanCaseRow(rows)
		if err != nil {
			return nil, err
		}
		// Insured-name filtering happens here: the name lives inside the
		// insured JSON column, out of SQL's reach without json1.
		if filter.Insured != "" &&
			!strings.Contains(strings.ToLower(c.Insured.Name), strings.ToLower(filter.Insured)) {
			continue
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// =============================================================================
// TASKS
// =============================================================================

// InsertTask persists a follow-up task.
func (s *Store) InsertTask(ctx context.Context, task claims.FollowUpTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, claim_number, text, done, assignee, due_date, due_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ClaimNumber, task.Text, boolToInt(task.Done),
		task.Assignee, task.DueDate.Format("2006-01-02"), task.DueTime,
		task.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return &claims.RepositoryError{Op: "insert task", Err: err}
	}
	return nil
}

// ListTasks returns the tasks of a case, oldest first.
func (s *Store) ListTasks(ctx context.Context, claimNumber string) ([]claims.FollowUpTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_number, text, done, assignee, due_date, due_time, created_at
		FROM tasks WHERE claim_number = ? ORDER BY created_at`, claimNumber)
	if err != nil {
		return nil, &claims.RepositoryError{Op: "list tasks", Err: err}
	}
	defer rows.Close()

	var result []claims.FollowUpTask
	for rows.Next() {
		var t claims.FollowUpTask
		var done int
		var dueDate, createdAt string
		if err := rows.Scan(&t.ID, &t.ClaimNumber, &t.Text, &done,
			&t.Assignee, &dueDate, &t.DueTime, &createdAt); err != nil {
			return nil, &claims.RepositoryError{Op: "scan task", Err: err}
		}
		t.Done = done != 0
		t.DueDate, _ = time.ParseInLocation("2006-01-02", dueDate, time.Local)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, t)
	}
	return result, rows.Err()
}

// SetTaskDone toggles a task's done flag.
func (s *Store) SetTaskDone(ctx context.Context, taskID string, done bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = ? WHERE id = ?`, boolToInt(done), taskID)
	if err != nil {
		return &claims.RepositoryError{Op: "update task", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &claims.RepositoryError{Op: "update task", Err: err}
	}
	if affected == 0 {
		return claims.ErrTaskNotFound
	}
	return nil
}

// =============================================================================
// COMMENTS
// =============================================================================

// InsertComment appends a comment to a case's activity log.
func (s *Store) InsertComment(ctx context.Context, c claims.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, claim_number, author, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ClaimNumber, c.Author, c.Body, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return &claims.RepositoryError{Op: "insert comment", Err: err}
	}
	return nil
}

// ListComments returns a case's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, claimNumber string) ([]claims.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_number, author, body, created_at
		FROM comments WHERE claim_number = ? ORDER BY created_at`, claimNumber)
	if err != nil {
		return nil, &claims.RepositoryError{Op: "list comments", Err: err}
	}
	defer rows.Close()

	var result []claims.Comment
	for rows.Next() {
		var c claims.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ClaimNumber, &c.Author, &c.Body, &createdAt); err != nil {
			return nil, &claims.RepositoryError{Op: "scan comment", Err: err}
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, c)
	}
	return result, rows.Err()
}

// =============================================================================
// INVOICES
// =============================================================================

// UpsertInvoice stores the settlement invoice for a case, replacing any
// previous one.
func (s *Store) UpsertInvoice(ctx context.Context, inv claims.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return &claims.RepositoryError{Op: "save invoice", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (claim_number, point_of_sale, number, cae, issue_date, items_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(claim_number) DO UPDATE SET
			point_of_sale = excluded.point_of_sale,
			number = excluded.number,
			cae = excluded.cae,
			issue_date = excluded.issue_date,
			items_json = excluded.items_json`,
		inv.ClaimNumber, inv.PointOfSale, inv.Number, inv.CAE,
		fmtDate(inv.IssueDate), string(items))
	if err != nil {
		return &claims.RepositoryError{Op: "save invoice", Err: err}
	}
	return nil
}

// GetInvoice loads a case's invoice, or nil when none is stored.
func (s *Store) GetInvoice(ctx context.Context, claimNumber string) (*claims.Invoice, error) {
	var inv claims.Invoice
	var issueDate sql.NullString
	var items sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT claim_number, point_of_sale, number, cae, issue_date, items_json
		FROM invoices WHERE claim_number = ?`, claimNumber).
		Scan(&inv.ClaimNumber, &inv.PointOfSale, &inv.Number, &inv.CAE, &issueDate, &items)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &claims.RepositoryError{Op: "get invoice", Err: err}
	}

	inv.IssueDate = parseDate(issueDate)
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &inv.Items); err != nil {
			return nil, &claims.RepositoryError{Op: "decode invoice", Err: err}
		}
	}
	return &inv, nil
}

// =============================================================================
// SCANNING AND SERIALIZATION HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCaseRow(row rowScanner) (*claims.Case, error) {
	var c claims.Case
	var id, status string
	var insured, checklist, coverages sql.NullString
	var assigned, incident, reported, interview, docComplete, closed sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&id, &c.ClaimNumber, &c.Insurer, &insured, &c.PolicyNumber,
		&c.LineOfBusiness, &c.Cause, &c.Analyst, &c.Handler, &status, &c.SubStatus,
		&assigned, &incident, &reported, &interview, &docComplete, &closed,
		&checklist, &coverages, &c.Version, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, claims.ErrCaseNotFound
	}
	if err != nil {
		return nil, &claims.RepositoryError{Op: "scan case", Err: err}
	}

	c.ID = claims.CaseID(id)
	c.Status = claims.Status(status)
	c.Assigned = parseDate(assigned)
	c.IncidentDate = parseDate(incident)
	c.ReportedDate = parseDate(reported)
	c.InterviewDate = parseDate(interview)
	c.DocumentationCompleteDate = parseDate(docComplete)
	c.ClosedDate = parseDate(closed)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if insured.Valid && insured.String != "" {
		if err := json.Unmarshal([]byte(insured.String), &c.Insured); err != nil {
			return nil, &claims.RepositoryError{Op: "decode insured", Err: err}
		}
	}
	if checklist.Valid && checklist.String != "" {
		if err := json.Unmarshal([]byte(checklist.String), &c.Checklist); err != nil {
			return nil, &claims.RepositoryError{Op: "decode checklist", Err: err}
		}
	}
	if coverages.Valid && coverages.String != "" {
		if err := json.Unmarshal([]byte(coverages.String), &c.Coverages); err != nil {
			return nil, &claims.RepositoryError{Op: "decode coverages", Err: err}
		}
	}

	return &c, nil
}

func marshalCaseJSON(c *claims.Case) (insured, checklist, coverages string, err error) {
	i, err := json.Marshal(c.Insured)
	if err != nil {
		return "", "", "", err
	}
	ch, err := json.Marshal(c.Checklist)
	if err != nil {
		return "", "", "", err
	}
	co, err := json.Marshal(c.Coverages)
	if err != nil {
		return "", "", "", err
	}
	return string(i), string(ch), string(co), nil
}

func fmtDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", ns.String, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
