package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/db"
	"github.com/alexanderramin/solace/internal/domain"
)

const calendarEventColumns = `id, calendar_id, summary, description,
	start_date, start_datetime, start_timezone, end_date, end_datetime, end_timezone,
	recurrence, created_at, updated_at`

// SQLiteCalendarEventRepo implements CalendarEventRepo using a SQLite database.
type SQLiteCalendarEventRepo struct {
	db db.DBTX
}

// NewSQLiteCalendarEventRepo creates a new SQLiteCalendarEventRepo.
func NewSQLiteCalendarEventRepo(conn db.DBTX) *SQLiteCalendarEventRepo {
	return &SQLiteCalendarEventRepo{db: conn}
}

func (r *SQLiteCalendarEventRepo) Create(ctx context.Context, e *domain.CalendarEvent, span domain.Interval) error {
	query := `INSERT INTO calendar_events (` + calendarEventColumns + `, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.CalendarID,
		e.Summary,
		e.Description,
		textArg(e.Start.Date),
		textArg(e.Start.DateTime),
		e.Start.TimeZone,
		textArg(e.End.Date),
		textArg(e.End.DateTime),
		e.End.TimeZone,
		strings.Join(e.Recurrence, "\n"),
		instantArg(e.CreatedAt),
		instantArg(e.UpdatedAt),
		instantArg(span.Start),
		instantArg(span.End),
	)
	if err != nil {
		return fmt.Errorf("inserting calendar event: %w", err)
	}
	return nil
}

func (r *SQLiteCalendarEventRepo) GetByID(ctx context.Context, calendarID, id string) (*domain.CalendarEvent, error) {
	query := `SELECT ` + calendarEventColumns + ` FROM calendar_events WHERE calendar_id = ? AND id = ?`
	e, err := r.populateEvent(r.db.QueryRowContext(ctx, query, calendarID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("calendar event: %w", ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

// ListInRange returns events whose first occurrence overlaps
// [timeMin, timeMax), plus every recurring event that starts before timeMax.
// Recurring rows still need expansion by the caller.
func (r *SQLiteCalendarEventRepo) ListInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error) {
	query := `SELECT ` + calendarEventColumns + ` FROM calendar_events
		WHERE calendar_id = ? AND start_at < ? AND (end_at > ? OR recurrence != '')
		ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, calendarID, instantArg(timeMax), instantArg(timeMin))
	if err != nil {
		return nil, fmt.Errorf("listing calendar events in range: %w", err)
	}
	defer rows.Close()
	return r.scanEvents(rows)
}

func (r *SQLiteCalendarEventRepo) ListByCalendar(ctx context.Context, calendarID string) ([]*domain.CalendarEvent, error) {
	query := `SELECT ` + calendarEventColumns + ` FROM calendar_events WHERE calendar_id = ? ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, calendarID)
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}
	defer rows.Close()
	return r.scanEvents(rows)
}

func (r *SQLiteCalendarEventRepo) Delete(ctx context.Context, calendarID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE calendar_id = ? AND id = ?`, calendarID, id)
	if err != nil {
		return fmt.Errorf("deleting calendar event: %w", err)
	}
	return requireAffected(res, "calendar event")
}

func (r *SQLiteCalendarEventRepo) scanEvents(rows *sql.Rows) ([]*domain.CalendarEvent, error) {
	var events []*domain.CalendarEvent
	for rows.Next() {
		e, err := r.populateEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calendar events: %w", err)
	}
	return events, nil
}

func (r *SQLiteCalendarEventRepo) populateEvent(row rowScanner) (*domain.CalendarEvent, error) {
	var e domain.CalendarEvent
	var startDate, startDT, endDate, endDT sql.NullString
	var recurrence, createdAtStr, updatedAtStr string

	err := row.Scan(
		&e.ID, &e.CalendarID, &e.Summary, &e.Description,
		&startDate, &startDT, &e.Start.TimeZone, &endDate, &endDT, &e.End.TimeZone,
		&recurrence, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning calendar event: %w", err)
	}

	e.Start.Date, e.Start.DateTime = startDate.String, startDT.String
	e.End.Date, e.End.DateTime = endDate.String, endDT.String
	if recurrence != "" {
		e.Recurrence = strings.Split(recurrence, "\n")
	}

	var parseErr error
	e.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	e.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &e, nil
}
