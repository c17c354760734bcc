package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/solace/internal/db"
	"github.com/alexanderramin/solace/internal/domain"
)

const taskColumns = `id, user_id, title, description, status, due_date, preferred_time, source_timezone,
	duration_min, is_recurring, recurrence_pattern, recurrence_interval, recurrence_end_date,
	calendar_event_id, scheduled_at, created_at, updated_at, completed_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo over a *sql.DB or *sql.Tx.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	pattern, interval, endDate := recurrenceValues(t.Recurrence)
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		string(t.Status),
		timeArg(t.DueDate, dateLayout),
		timeOfDayArg(t.PreferredTime),
		t.SourceTimezone,
		t.DurationMin,
		flagArg(t.IsRecurring),
		pattern,
		interval,
		endDate,
		stringArg(t.CalendarEventID),
		timeArg(t.ScheduledAt, time.RFC3339),
		instantArg(t.CreatedAt),
		instantArg(t.UpdatedAt),
		timeArg(t.CompletedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return r.scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteTaskRepo) GetForUser(ctx context.Context, userID, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	return r.scanTask(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteTaskRepo) ListByUser(ctx context.Context, userID string, includeClosed bool) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	if !includeClosed {
		query += ` AND status = 'pending'`
	}
	query += ` ORDER BY (due_date IS NULL), due_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by user: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListDue(ctx context.Context, userID string, q DueQuery) ([]*domain.Task, error) {
	dueBy := q.DueOnOrBefore.Format(dateLayout)
	var (
		rows *sql.Rows
		err  error
	)
	if q.CompletedFrom != nil && q.CompletedTo != nil {
		query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE user_id = ?
			  AND ((status = 'pending' AND due_date IS NOT NULL AND due_date <= ?)
			    OR (status = 'completed' AND completed_at >= ? AND completed_at <= ?))
			ORDER BY due_date, created_at`
		rows, err = r.db.QueryContext(ctx, query, userID, dueBy,
			instantArg(*q.CompletedFrom), instantArg(*q.CompletedTo))
	} else {
		query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE user_id = ? AND due_date IS NOT NULL AND due_date <= ?
			ORDER BY due_date, created_at`
		rows, err = r.db.QueryContext(ctx, query, userID, dueBy)
	}
	if err != nil {
		return nil, fmt.Errorf("listing due tasks: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListPendingWithCalendarLink(ctx context.Context, userID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = ? AND status = 'pending' AND calendar_event_id IS NOT NULL AND calendar_event_id != ''
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing linked pending tasks: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListUsersWithCalendarLinks(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM tasks
		WHERE status = 'pending' AND calendar_event_id IS NOT NULL AND calendar_event_id != ''
		ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users with linked tasks: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user ids: %w", err)
	}
	return users, nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, status = ?, due_date = ?, preferred_time = ?,
		source_timezone = ?, duration_min = ?, is_recurring = ?, recurrence_pattern = ?,
		recurrence_interval = ?, recurrence_end_date = ?, calendar_event_id = ?, scheduled_at = ?,
		updated_at = ?, completed_at = ?
		WHERE id = ?`
	pattern, interval, endDate := recurrenceValues(t.Recurrence)
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		string(t.Status),
		timeArg(t.DueDate, dateLayout),
		timeOfDayArg(t.PreferredTime),
		t.SourceTimezone,
		t.DurationMin,
		flagArg(t.IsRecurring),
		pattern,
		interval,
		endDate,
		stringArg(t.CalendarEventID),
		timeArg(t.ScheduledAt, time.RFC3339),
		instantArg(t.UpdatedAt),
		timeArg(t.CompletedAt, time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireAffected(res, "task")
}

// UpdateCalendarLink replaces the external event reference and scheduled
// start in a single statement.
func (r *SQLiteTaskRepo) UpdateCalendarLink(ctx context.Context, taskID, eventID string, scheduledAt time.Time) error {
	query := `UPDATE tasks SET calendar_event_id = ?, scheduled_at = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, textArg(eventID), instantArg(scheduledAt), instantArg(time.Now()), taskID)
	if err != nil {
		return fmt.Errorf("updating task calendar link: %w", err)
	}
	return requireAffected(res, "task")
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireAffected(res, "task")
}

// scanTask scans a single task from a *sql.Row.
func (r *SQLiteTaskRepo) scanTask(row *sql.Row) (*domain.Task, error) {
	t, err := r.populateTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

// scanTasks scans multiple tasks from *sql.Rows.
func (r *SQLiteTaskRepo) scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := r.populateTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// populateTask scans one row and fills in the parsed fields.
func (r *SQLiteTaskRepo) populateTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var statusStr string
	var dueDateStr, preferredStr, patternStr, endDateStr sql.NullString
	var eventIDStr, scheduledStr, completedStr sql.NullString
	var createdAtStr, updatedAtStr string
	var recurringInt, interval int

	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &statusStr, &dueDateStr, &preferredStr, &t.SourceTimezone,
		&t.DurationMin, &recurringInt, &patternStr, &interval, &endDateStr,
		&eventIDStr, &scheduledStr, &createdAtStr, &updatedAtStr, &completedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Status = domain.TaskStatus(statusStr)
	t.DueDate = scanTime(dueDateStr, dateLayout)
	t.PreferredTime = scanTimeOfDay(preferredStr)
	t.IsRecurring = scanFlag(recurringInt)
	if patternStr.Valid && patternStr.String != "" {
		t.Recurrence = &domain.Recurrence{
			Pattern:  domain.RecurrencePattern(patternStr.String),
			Interval: interval,
			EndDate:  scanTime(endDateStr, dateLayout),
		}
	}
	t.CalendarEventID = scanString(eventIDStr)
	t.ScheduledAt = scanTime(scheduledStr, time.RFC3339)
	t.CompletedAt = scanTime(completedStr, time.RFC3339)

	var parseErr error
	t.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	t.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &t, nil
}

func recurrenceValues(rec *domain.Recurrence) (pattern interface{}, interval int, endDate interface{}) {
	if rec == nil {
		return nil, 1, nil
	}
	return string(rec.Pattern), rec.EffectiveInterval(), timeArg(rec.EndDate, dateLayout)
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
