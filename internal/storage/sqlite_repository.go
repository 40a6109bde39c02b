package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/punchcard/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens the cache at path, creating its directory and applying
// migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ReplaceProjects(ctx context.Context, projects []model.Project) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
			return err
		}
		for i, p := range projects {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO projects (id, name, client, position) VALUES (?, ?, ?, ?)`,
				p.ID, p.Name, p.Client, i,
			); err != nil {
				return fmt.Errorf("insert project %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, client FROM projects ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Client); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return err
		}
		for i, t := range tasks {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO tasks (id, project_id, name, position) VALUES (?, ?, ?, ?)`,
				t.ID, t.ProjectID, t.Name, i,
			); err != nil {
				return fmt.Errorf("insert task %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// ListTasks returns every task, or only projectID's when it is set.
func (r *SQLiteRepository) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	query := `SELECT id, project_id, name FROM tasks`
	args := make([]any, 0, 1)
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReplaceUsers(ctx context.Context, users []model.User) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
			return err
		}
		for i, u := range users {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO users (id, name, email, role, position) VALUES (?, ?, ?, ?, ?)`,
				u.ID, u.Name, u.Email, u.Role, i,
			); err != nil {
				return fmt.Errorf("insert user %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, role FROM users ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ReplaceRecords swaps the cached records of scope between startDay and
// endDay (inclusive) for records in one transaction. Records outside the
// range are ignored.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, scope, startDay, endDay string, records []model.TimeRecord) error {
	if scope == "" {
		scope = ScopeSelf
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM time_records WHERE scope = ? AND day >= ? AND day <= ?`,
			scope, startDay, endDay,
		); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		for i, rec := range records {
			day := rec.Day()
			if day < startDay || day > endDay {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO time_records
					(scope, id, user_id, project_id, task_id, start_time, end_time, duration, day, notes, approval_status, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				scope, rec.ID, rec.UserID, rec.ProjectID, rec.TaskID,
				zeroableTime(rec.StartTime), zeroableTime(rec.EndTime), rec.Duration, day,
				rec.Notes, rec.ApprovalStatus, i,
			); err != nil {
				return fmt.Errorf("insert record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, filter RecordFilter) ([]model.TimeRecord, error) {
	scope := filter.Scope
	if scope == "" {
		scope = ScopeSelf
	}
	query := `SELECT id, user_id, project_id, task_id, start_time, end_time, duration, day, notes, approval_status
		FROM time_records WHERE scope = ?`
	args := []any{scope}
	if filter.StartDay != "" {
		query += ` AND day >= ?`
		args = append(args, filter.StartDay)
	}
	if filter.EndDay != "" {
		query += ` AND day <= ?`
		args = append(args, filter.EndDay)
	}
	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	query += ` ORDER BY day, position`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeRecord, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s model.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, first_day_of_week, working_on_weekends) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_day_of_week = excluded.first_day_of_week,
			working_on_weekends = excluded.working_on_weekends`,
		s.FirstDayOfWeek, boolInt(s.WorkingOnWeekends),
	)
	return err
}

func (r *SQLiteRepository) LoadSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	var weekends int
	err := r.db.QueryRowContext(ctx,
		`SELECT first_day_of_week, working_on_weekends FROM settings WHERE id = 1`,
	).Scan(&s.FirstDayOfWeek, &weekends)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DefaultSettings(), ErrNotFound
		}
		return model.Settings{}, err
	}
	s.WorkingOnWeekends = weekends == 1
	return s, nil
}

func (r *SQLiteRepository) SetMeta(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(r.now()),
	)
	return err
}

// GetMeta returns the value of key and when it was last written.
func (r *SQLiteRepository) GetMeta(ctx context.Context, key string) (string, time.Time, error) {
	var value, updated string
	err := r.db.QueryRowContext(ctx, `SELECT value, updated_at FROM meta WHERE key = ?`, key).Scan(&value, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return "", time.Time{}, err
	}
	return value, updatedAt, nil
}

// LastSync is the time of the last successful live fetch.
func (r *SQLiteRepository) LastSync(ctx context.Context) (time.Time, error) {
	value, _, err := r.GetMeta(ctx, MetaLastSync)
	if err != nil {
		return time.Time{}, err
	}
	return parseRequiredTime(value)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, at time.Time) error {
	return r.SetMeta(ctx, MetaLastSync, mustTime(at))
}

func zeroableTime(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return mustTime(v)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(sqliteTimeLayout, v.String)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.TimeRecord, error) {
	var out model.TimeRecord
	var start, end sql.NullString
	if err := s.Scan(&out.ID, &out.UserID, &out.ProjectID, &out.TaskID, &start, &end,
		&out.Duration, &out.Date, &out.Notes, &out.ApprovalStatus); err != nil {
		return model.TimeRecord{}, err
	}
	startAt, err := parseNullableTime(start)
	if err != nil {
		return model.TimeRecord{}, err
	}
	endAt, err := parseNullableTime(end)
	if err != nil {
		return model.TimeRecord{}, err
	}
	out.StartTime = startAt
	out.EndTime = endAt
	return out, nil
}

var _ Repository = (*SQLiteRepository)(nil)
