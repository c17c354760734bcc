package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate replays every statement in order. Statements are written to be
// safe to re-run; additive ALTERs that already applied are skipped.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		_, err := db.Exec(stmt)
		if err == nil || alreadyApplied(err) {
			continue
		}
		return fmt.Errorf("migration %d: %w", i, err)
	}
	return nil
}

func alreadyApplied(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'pending'
		                    CHECK(status IN ('pending','completed','cancelled')),
		due_date            TEXT,
		preferred_time      TEXT,
		duration_min        INTEGER NOT NULL DEFAULT 0,
		is_recurring        INTEGER NOT NULL DEFAULT 0,
		recurrence_pattern  TEXT
		                    CHECK(recurrence_pattern IS NULL OR recurrence_pattern IN ('daily','weekly','monthly')),
		recurrence_interval INTEGER NOT NULL DEFAULT 1,
		recurrence_end_date TEXT,
		calendar_event_id   TEXT,
		scheduled_at        TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		completed_at        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_calendar_event ON tasks(calendar_event_id)`,

	// Added after the first release; re-runs hit "duplicate column name".
	`ALTER TABLE tasks ADD COLUMN source_timezone TEXT NOT NULL DEFAULT ''`,

	`CREATE TABLE IF NOT EXISTS calendar_events (
		id              TEXT PRIMARY KEY,
		calendar_id     TEXT NOT NULL,
		summary         TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		start_date      TEXT,
		start_datetime  TEXT,
		start_timezone  TEXT NOT NULL DEFAULT '',
		end_date        TEXT,
		end_datetime    TEXT,
		end_timezone    TEXT NOT NULL DEFAULT '',
		start_at        TEXT NOT NULL,
		end_at          TEXT NOT NULL,
		recurrence      TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_range ON calendar_events(calendar_id, start_at, end_at)`,

	`CREATE TABLE IF NOT EXISTS reminders (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		task_id     TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		remind_at   TEXT NOT NULL,
		method      TEXT NOT NULL DEFAULT 'push'
		            CHECK(method IN ('push','email','sms')),
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_user_due ON reminders(user_id, remind_at)`,
}
