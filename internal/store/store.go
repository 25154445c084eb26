// Package store persists tasks, their dependency sets, and scoring feedback
// in a local SQLite database. It is the backing layer for the HTTP API's
// stored-task endpoints; the offline analyze path never touches it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/triagekit/triage/internal/learning"
	"github.com/triagekit/triage/internal/task"
)

// ErrNotFound is returned when a task ID has no row.
var ErrNotFound = errors.New("task not found")

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    title           TEXT NOT NULL,
    due_date        TEXT,
    estimated_hours REAL,
    importance      INTEGER,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS task_deps (
    task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    depends_on INTEGER NOT NULL,
    PRIMARY KEY (task_id, depends_on)
);

CREATE TABLE IF NOT EXISTS feedback (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id        TEXT NOT NULL DEFAULT '',
    task_title     TEXT NOT NULL DEFAULT '',
    strategy       TEXT NOT NULL DEFAULT '',
    priority_score REAL NOT NULL DEFAULT 0,
    was_helpful    INTEGER NOT NULL,
    note           TEXT NOT NULL DEFAULT '',
    attributes     TEXT NOT NULL DEFAULT '{}',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Feedback records whether a scored suggestion was useful, along with enough
// context to aggregate per strategy later.
type Feedback struct {
	ID            int64          `json:"id,omitempty"`
	TaskID        string         `json:"task_id,omitempty"`
	TaskTitle     string         `json:"task_title,omitempty"`
	Strategy      string         `json:"strategy,omitempty"`
	PriorityScore float64        `json:"priority_score"`
	WasHelpful    bool           `json:"was_helpful"`
	Note          string         `json:"note,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// Store wraps a SQLite database in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL mode and
// busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer; using
	// one connection avoids SQLITE_BUSY contention between pooled connections
	// that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTask inserts a task and its dependency set, returning the task with
// its assigned ID.
func (s *Store) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (title, due_date, estimated_hours, importance) VALUES (?, ?, ?, ?)`,
		t.TitleOr(""), nullString(t.DueDate), nullFloat(t.EstimatedHours), nullInt(t.Importance))
	if err != nil {
		return task.Task{}, fmt.Errorf("store: insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, fmt.Errorf("store: task id: %w", err)
	}

	if err := setDepsTx(ctx, tx, id, t.Dependencies); err != nil {
		return task.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return task.Task{}, fmt.Errorf("store: commit create: %w", err)
	}

	t.ID = strconv.FormatInt(id, 10)
	return t, nil
}

// GetTask returns a single task with its dependencies, or ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id string) (task.Task, error) {
	rowID, err := parseID(id)
	if err != nil {
		return task.Task{}, fmt.Errorf("store: %w: %q", ErrNotFound, id)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, due_date, estimated_hours, importance FROM tasks WHERE id = ?`, rowID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, fmt.Errorf("store: %w: %q", ErrNotFound, id)
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("store: get task %q: %w", id, err)
	}

	deps, err := s.depsFor(ctx, rowID)
	if err != nil {
		return task.Task{}, err
	}
	t.Dependencies = deps
	return t, nil
}

// ListTasks returns every stored task with its dependencies, ordered by ID.
func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, due_date, estimated_hours, importance FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate tasks: %w", err)
	}

	depRows, err := s.db.QueryContext(ctx, `SELECT task_id, depends_on FROM task_deps ORDER BY task_id, depends_on`)
	if err != nil {
		return nil, fmt.Errorf("store: list deps: %w", err)
	}
	defer depRows.Close()

	byID := make(map[string][]string)
	for depRows.Next() {
		var taskID, dep int64
		if err := depRows.Scan(&taskID, &dep); err != nil {
			return nil, fmt.Errorf("store: scan dep: %w", err)
		}
		key := strconv.FormatInt(taskID, 10)
		byID[key] = append(byID[key], strconv.FormatInt(dep, 10))
	}
	if err := depRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate deps: %w", err)
	}
	for i := range tasks {
		tasks[i].Dependencies = byID[tasks[i].ID]
	}
	return tasks, nil
}

// UpdateTask replaces a task's fields and dependency set. Returns ErrNotFound
// if no row exists.
func (s *Store) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	rowID, err := parseID(t.ID)
	if err != nil {
		return task.Task{}, fmt.Errorf("store: %w: %q", ErrNotFound, t.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return task.Task{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, due_date = ?, estimated_hours = ?, importance = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.TitleOr(""), nullString(t.DueDate), nullFloat(t.EstimatedHours), nullInt(t.Importance), rowID)
	if err != nil {
		return task.Task{}, fmt.Errorf("store: update task %q: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return task.Task{}, fmt.Errorf("store: update rows affected: %w", err)
	}
	if n == 0 {
		return task.Task{}, fmt.Errorf("store: %w: %q", ErrNotFound, t.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_deps WHERE task_id = ?`, rowID); err != nil {
		return task.Task{}, fmt.Errorf("store: clear deps for %q: %w", t.ID, err)
	}
	if err := setDepsTx(ctx, tx, rowID, t.Dependencies); err != nil {
		return task.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return task.Task{}, fmt.Errorf("store: commit update: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task and, via cascade, its dependency rows.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	rowID, err := parseID(id)
	if err != nil {
		return fmt.Errorf("store: %w: %q", ErrNotFound, id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, rowID)
	if err != nil {
		return fmt.Errorf("store: delete task %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: %w: %q", ErrNotFound, id)
	}
	return nil
}

// SetDependencies replaces a task's dependency set.
func (s *Store) SetDependencies(ctx context.Context, id string, deps []string) error {
	rowID, err := parseID(id)
	if err != nil {
		return fmt.Errorf("store: %w: %q", ErrNotFound, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_deps WHERE task_id = ?`, rowID); err != nil {
		return fmt.Errorf("store: clear deps for %q: %w", id, err)
	}
	if err := setDepsTx(ctx, tx, rowID, deps); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit deps: %w", err)
	}
	return nil
}

// AddFeedback records one feedback entry.
func (s *Store) AddFeedback(ctx context.Context, fb Feedback) error {
	attrs := "{}"
	if len(fb.Attributes) > 0 {
		raw, err := json.Marshal(fb.Attributes)
		if err != nil {
			return fmt.Errorf("store: encode feedback attributes: %w", err)
		}
		attrs = string(raw)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (task_id, task_title, strategy, priority_score, was_helpful, note, attributes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.TaskID, fb.TaskTitle, fb.Strategy, fb.PriorityScore, fb.WasHelpful, fb.Note, attrs)
	if err != nil {
		return fmt.Errorf("store: insert feedback: %w", err)
	}
	return nil
}

// FeedbackStats aggregates feedback counts and score averages, optionally
// filtered to a single strategy. An empty strategy aggregates everything.
func (s *Store) FeedbackStats(ctx context.Context, strategy string) (learning.Stats, error) {
	const q = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN was_helpful THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(CASE WHEN was_helpful THEN priority_score END), 0),
		       COALESCE(AVG(CASE WHEN NOT was_helpful THEN priority_score END), 0)
		FROM feedback
		WHERE ? = '' OR strategy = ?`

	var st learning.Stats
	err := s.db.QueryRowContext(ctx, q, strategy, strategy).Scan(
		&st.Total, &st.HelpfulCount, &st.AvgScoreHelpful, &st.AvgScoreNotHelpful)
	if err != nil {
		return learning.Stats{}, fmt.Errorf("store: feedback stats: %w", err)
	}
	st.NotHelpfulCount = st.Total - st.HelpfulCount
	if st.Total > 0 {
		st.HelpfulRate = float64(st.HelpfulCount) / float64(st.Total)
	}
	return st, nil
}

func setDepsTx(ctx context.Context, tx *sql.Tx, taskID int64, deps []string) error {
	if len(deps) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO task_deps (task_id, depends_on) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare dep insert: %w", err)
	}
	defer stmt.Close()

	for _, dep := range deps {
		depID, err := parseID(dep)
		if err != nil {
			return fmt.Errorf("store: dependency %q is not a task id", dep)
		}
		if _, err := stmt.ExecContext(ctx, taskID, depID); err != nil {
			return fmt.Errorf("store: insert dep %d -> %d: %w", taskID, depID, err)
		}
	}
	return nil
}

func (s *Store) depsFor(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT depends_on FROM task_deps WHERE task_id = ? ORDER BY depends_on`, taskID)
	if err != nil {
		return nil, fmt.Errorf("store: deps for %d: %w", taskID, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var dep int64
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("store: scan dep: %w", err)
		}
		deps = append(deps, strconv.FormatInt(dep, 10))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate deps: %w", err)
	}
	return deps, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		id         int64
		title      string
		due        sql.NullString
		hours      sql.NullFloat64
		importance sql.NullInt64
	)
	if err := row.Scan(&id, &title, &due, &hours, &importance); err != nil {
		return task.Task{}, err
	}

	t := task.New(title)
	t.ID = strconv.FormatInt(id, 10)
	if due.Valid {
		t.DueDate = due.String
	}
	if hours.Valid {
		h := hours.Float64
		t.EstimatedHours = &h
	}
	if importance.Valid {
		n := int(importance.Int64)
		t.Importance = &n
	}
	return t, nil
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
