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

const reminderColumns = `id, user_id, task_id, title, description, remind_at, method, created_at`

// SQLiteReminderRepo implements ReminderRepo using a SQLite database.
type SQLiteReminderRepo struct {
	db db.DBTX
}

func NewSQLiteReminderRepo(conn db.DBTX) *SQLiteReminderRepo {
	return &SQLiteReminderRepo{db: conn}
}

func (r *SQLiteReminderRepo) Create(ctx context.Context, rem *domain.Reminder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID,
		rem.UserID,
		stringArg(rem.TaskID),
		rem.Title,
		rem.Description,
		instantArg(rem.RemindAt),
		string(rem.Method),
		instantArg(rem.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting reminder: %w", err)
	}
	return nil
}

func (r *SQLiteReminderRepo) GetForUser(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder: %w", ErrNotFound)
	}
	return rem, err
}

func (r *SQLiteReminderRepo) ListDueBy(ctx context.Context, userID string, dueBy time.Time) ([]*domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = ? AND remind_at <= ?
		ORDER BY remind_at, created_at, id`,
		userID, instantArg(dueBy))
	if err != nil {
		return nil, fmt.Errorf("listing due reminders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return out, nil
}

func (r *SQLiteReminderRepo) DeleteForUser(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	return requireAffected(res, "reminder")
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var (
		rem                 domain.Reminder
		taskID              sql.NullString
		method              string
		remindAt, createdAt string
	)
	if err := row.Scan(&rem.ID, &rem.UserID, &taskID, &rem.Title, &rem.Description, &remindAt, &method, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning reminder: %w", err)
	}
	rem.TaskID = scanString(taskID)
	rem.Method = domain.ReminderMethod(method)

	var err error
	if rem.RemindAt, err = time.Parse(time.RFC3339, remindAt); err != nil {
		return nil, fmt.Errorf("parsing remind_at: %w", err)
	}
	if rem.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &rem, nil
}
