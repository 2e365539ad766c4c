/*
Package sqlite provides the SQLite-backed implementation of the storage ports.

PURPOSE:
  Persists the canonical snapshot (employees, tasks, projects, portfolios,
  QC records) and implements the two external write ports of the
  assignment facade. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  planner.Store:    SaveSnapshot / LoadSnapshot / Reset
  assign.TaskStore: Assign (task row update + audit insert)
  assign.Notifier:  Notify (notification outbox insert)

SNAPSHOT MODEL:
  The store holds exactly one snapshot: SaveSnapshot replaces all entity
  rows in a single transaction. Derivation happens in memory; the database
  is the system of record between restarts, not a query engine.

KEY TABLES:
  snapshot_meta:  single-row header with the ingest timestamp
  employees, tasks, projects, portfolios, qc_tasks: entity rows
  assignments:    append-only audit of committed assignments
  notifications:  outbox of notification payloads (delivery is external)

COLUMN ENCODING:
  Dates as RFC3339 text, absent dates as NULL. Dependency links as JSON
  text columns. Costs as decimal text so money survives exactly.
  total_float keeps NULL for "no slack value recorded".

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/workforce.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - planner/store.go: Store interface definition
  - planner/store/memory.go: in-memory implementation for testing
  - assign/facade.go: the only writer of assignments and notifications
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/planner"
)

// Store implements the storage ports using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
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
	-- Single-row snapshot header
	CREATE TABLE IF NOT EXISTS snapshot_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		taken_at TEXT NOT NULL
	);

	-- Employees (roster)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT,
		manager TEXT,
		management_level TEXT,
		portfolio TEXT
	);

	-- Tasks (work plan rows, summary rows included and flagged)
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_id TEXT,
		parent_id TEXT,
		outline_level INTEGER DEFAULT 0,
		hierarchy_type TEXT,
		is_summary BOOLEAN DEFAULT FALSE,
		baseline_hours REAL DEFAULT 0,
		actual_hours REAL DEFAULT 0,
		projected_hours REAL DEFAULT 0,
		remaining_hours REAL DEFAULT 0,
		percent_complete REAL DEFAULT 0,
		start_date TEXT,
		finish_date TEXT,
		resource TEXT,
		employee_id TEXT,
		is_critical BOOLEAN DEFAULT FALSE,
		is_linchpin BOOLEAN DEFAULT FALSE,
		priority TEXT,
		total_float REAL,
		predecessors_json TEXT,
		successors_json TEXT,
		baseline_cost TEXT NOT NULL DEFAULT '0',
		actual_cost TEXT NOT NULL DEFAULT '0',
		remaining_cost TEXT NOT NULL DEFAULT '0',
		comments TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_employee
		ON tasks(employee_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project
		ON tasks(project_id);

	-- Projects
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		portfolio_id TEXT,
		manager TEXT,
		start_date TEXT,
		finish_date TEXT
	);

	-- Portfolios
	CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT
	);

	-- QC review records
	CREATE TABLE IF NOT EXISTS qc_tasks (
		id TEXT PRIMARY KEY,
		task_id TEXT,
		employee_id TEXT,
		resource TEXT,
		status TEXT,
		score REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_qc_tasks_employee
		ON qc_tasks(employee_id);

	-- Append-only assignment audit
	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_task
		ON assignments(task_id);

	-- Notification outbox; delivery is an external concern
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id TEXT NOT NULL,
		role TEXT,
		type TEXT NOT NULL,
		title TEXT,
		message TEXT,
		related_task_id TEXT,
		related_project_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_employee
		ON notifications(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT STORE (planner.Store interface)
// =============================================================================

// SaveSnapshot replaces the stored snapshot atomically.
func (s *Store) SaveSnapshot(ctx context.Context, snap *planner.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"employees", "tasks", "projects", "portfolios", "qc_tasks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	takenAt := snap.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, taken_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET taken_at = excluded.taken_at`,
		takenAt.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	for _, e := range snap.Employees {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO employees (id, name, role, manager, management_level, portfolio)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Role, e.Manager, e.ManagementLevel, e.Portfolio,
		); err != nil {
			return fmt.Errorf("failed to insert employee %s: %w", e.ID, err)
		}
	}

	for _, t := range snap.Tasks {
		if err := insertTask(ctx, tx, t); err != nil {
			return err
		}
	}

	for _, p := range snap.Projects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, name, portfolio_id, manager, start_date, finish_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.PortfolioID, p.Manager, nullTime(p.Start), nullTime(p.End),
		); err != nil {
			return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
		}
	}

	for _, p := range snap.Portfolios {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portfolios (id, name, parent_id) VALUES (?, ?, ?)`,
			p.ID, p.Name, p.ParentID,
		); err != nil {
			return fmt.Errorf("failed to insert portfolio %s: %w", p.ID, err)
		}
	}

	for _, q := range snap.QCTasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO qc_tasks (id, task_id, employee_id, resource, status, score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			q.ID, q.TaskID, q.EmployeeID, q.Resource, q.Status, q.Score,
		); err != nil {
			return fmt.Errorf("failed to insert qc task %s: %w", q.ID, err)
		}
	}

	return tx.Commit()
}

func insertTask(ctx context.Context, tx *sql.Tx, t planner.Task) error {
	preds, err := marshalLinks(t.Predecessors)
	if err != nil {
		return fmt.Errorf("failed to encode predecessors of %s: %w", t.ID, err)
	}
	succs, err := marshalLinks(t.Successors)
	if err != nil {
		return fmt.Errorf("failed to encode successors of %s: %w", t.ID, err)
	}

	var totalFloat sql.NullFloat64
	if t.TotalFloat != nil {
		totalFloat = sql.NullFloat64{Float64: *t.TotalFloat, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks
		(id, name, project_id, parent_id, outline_level, hierarchy_type, is_summary,
		 baseline_hours, actual_hours, projected_hours, remaining_hours, percent_complete,
		 start_date, finish_date, resource, employee_id,
		 is_critical, is_linchpin, priority, total_float,
		 predecessors_json, successors_json,
		 baseline_cost, actual_cost, remaining_cost, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Name, t.ProjectID, t.ParentID, t.OutlineLevel, t.HierarchyType, t.IsSummary,
		t.BaselineHours, t.ActualHours, t.ProjectedHours, t.RemainingHours, t.PercentComplete,
		nullTime(t.Start), nullTime(t.End), t.Resource, t.EmployeeID,
		t.IsCritical, t.IsLinchpin, t.Priority, totalFloat,
		preds, succs,
		t.BaselineCost.String(), t.ActualCost.String(), t.RemainingCost.String(), t.Comments,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
	}
	return nil
}

// LoadSnapshot reads the stored snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*planner.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &planner.Snapshot{}

	var takenAt string
	err := s.db.QueryRowContext(ctx, "SELECT taken_at FROM snapshot_meta WHERE id = 1").Scan(&takenAt)
	if err == sql.ErrNoRows {
		return nil, planner.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	snap.TakenAt, _ = time.Parse(time.RFC3339, takenAt)

	if snap.Employees, err = s.loadEmployees(ctx); err != nil {
		return nil, err
	}
	if snap.Tasks, err = s.loadTasks(ctx); err != nil {
		return nil, err
	}
	if snap.Projects, err = s.loadProjects(ctx); err != nil {
		return nil, err
	}
	if snap.Portfolios, err = s.loadPortfolios(ctx); err != nil {
		return nil, err
	}
	if snap.QCTasks, err = s.loadQCTasks(ctx); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) loadEmployees(ctx context.Context) ([]planner.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, role, manager, management_level, portfolio FROM employees")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []planner.Employee
	for rows.Next() {
		var e planner.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Manager, &e.ManagementLevel, &e.Portfolio); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadTasks(ctx context.Context) ([]planner.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, project_id, parent_id, outline_level, hierarchy_type, is_summary,
		       baseline_hours, actual_hours, projected_hours, remaining_hours, percent_complete,
		       start_date, finish_date, resource, employee_id,
		       is_critical, is_linchpin, priority, total_float,
		       predecessors_json, successors_json,
		       baseline_cost, actual_cost, remaining_cost, comments
		FROM tasks
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []planner.Task
	for rows.Next() {
		var t planner.Task
		var start, end, preds, succs sql.NullString
		var totalFloat sql.NullFloat64
		var baselineCost, actualCost, remainingCost string
		if err := rows.Scan(
			&t.ID, &t.Name, &t.ProjectID, &t.ParentID, &t.OutlineLevel, &t.HierarchyType, &t.IsSummary,
			&t.BaselineHours, &t.ActualHours, &t.ProjectedHours, &t.RemainingHours, &t.PercentComplete,
			&start, &end, &t.Resource, &t.EmployeeID,
			&t.IsCritical, &t.IsLinchpin, &t.Priority, &totalFloat,
			&preds, &succs,
			&baselineCost, &actualCost, &remainingCost, &t.Comments,
		); err != nil {
			return nil, err
		}

		t.Start = parseTime(start)
		t.End = parseTime(end)
		if totalFloat.Valid {
			f := totalFloat.Float64
			t.TotalFloat = &f
		}
		t.Predecessors = unmarshalLinks(preds)
		t.Successors = unmarshalLinks(succs)
		t.BaselineCost = mustDecimal(baselineCost)
		t.ActualCost = mustDecimal(actualCost)
		t.RemainingCost = mustDecimal(remainingCost)

		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) loadProjects(ctx context.Context) ([]planner.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, portfolio_id, manager, start_date, finish_date FROM projects")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []planner.Project
	for rows.Next() {
		var p planner.Project
		var start, end sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.PortfolioID, &p.Manager, &start, &end); err != nil {
			return nil, err
		}
		p.Start = parseTime(start)
		p.End = parseTime(end)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadPortfolios(ctx context.Context) ([]planner.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, parent_id FROM portfolios")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var out []planner.Portfolio
	for rows.Next() {
		var p planner.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.ParentID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadQCTasks(ctx context.Context) ([]planner.QCTask, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, task_id, employee_id, resource, status, score FROM qc_tasks")
	if err != nil {
		return nil, fmt.Errorf("failed to query qc tasks: %w", err)
	}
	defer rows.Close()

	var out []planner.QCTask
	for rows.Next() {
		var q planner.QCTask
		if err := rows.Scan(&q.ID, &q.TaskID, &q.EmployeeID, &q.Resource, &q.Status, &q.Score); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Reset clears the snapshot, the audit trail, and the outbox.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"snapshot_meta", "employees", "tasks", "projects", "portfolios",
		"qc_tasks", "assignments", "notifications",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// TASK STORE (assign.TaskStore interface)
// =============================================================================

// Assign updates the task row and appends an audit record in one
// transaction. Unknown task ids are rejected with assign.ErrTaskNotFound.
func (s *Store) Assign(ctx context.Context, taskID planner.TaskID, employeeID planner.EmployeeID, employeeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE tasks SET employee_id = ?, resource = ? WHERE id = ?",
		employeeID, employeeName, taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return assign.ErrTaskNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (task_id, employee_id, employee_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		taskID, employeeID, employeeName, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record assignment: %w", err)
	}

	return tx.Commit()
}

// AssignmentRecord is one row of the assignment audit trail.
type AssignmentRecord struct {
	TaskID       planner.TaskID
	EmployeeID   planner.EmployeeID
	EmployeeName string
	At           time.Time
}

// Assignments returns the audit trail, oldest first.
func (s *Store) Assignments(ctx context.Context) ([]AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT task_id, employee_id, employee_name, created_at FROM assignments ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []AssignmentRecord
	for rows.Next() {
		var r AssignmentRecord
		var at string
		if err := rows.Scan(&r.TaskID, &r.EmployeeID, &r.EmployeeName, &at); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// NOTIFICATION OUTBOX (assign.Notifier interface)
// =============================================================================

// Notify appends the payload to the outbox.
func (s *Store) Notify(ctx context.Context, n assign.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications
		(employee_id, role, type, title, message, related_task_id, related_project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.EmployeeID, n.Role, n.Type, n.Title, n.Message,
		n.RelatedTaskID, n.RelatedProjectID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// Notifications returns the outbox, oldest first.
func (s *Store) Notifications(ctx context.Context) ([]assign.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, role, type, title, message, related_task_id, related_project_id
		FROM notifications ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []assign.Notification
	for rows.Next() {
		var n assign.Notification
		if err := rows.Scan(&n.EmployeeID, &n.Role, &n.Type, &n.Title, &n.Message,
			&n.RelatedTaskID, &n.RelatedProjectID); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Helper functions

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}

func marshalLinks(links []planner.TaskLink) (sql.NullString, error) {
	if len(links) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalLinks(s sql.NullString) []planner.TaskLink {
	if !s.Valid || s.String == "" {
		return nil
	}
	var links []planner.TaskLink
	if err := json.Unmarshal([]byte(s.String), &links); err != nil {
		return nil
	}
	return links
}

func mustDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
