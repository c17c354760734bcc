package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

// BusySource yields busy intervals for a window.
type BusySource interface {
	ListBusy(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Interval, error)
}

// BusyFetcher reads busy time from a calendar.
type BusyFetcher struct {
	cal        calendar.Service
	calendarID string
	ref        *timezone.Reference
	logger     *slog.Logger
}

// NewBusyFetcher creates a BusyFetcher. A nil logger discards output.
func NewBusyFetcher(cal calendar.Service, calendarID string, ref *timezone.Reference, logger *slog.Logger) *BusyFetcher {
	return &BusyFetcher{cal: cal, calendarID: calendarID, ref: ref, logger: loggerOrDiscard(logger)}
}

// ListBusy returns the normalized intervals of every event overlapping the
// window. Events that cannot be normalized to a non-empty interval are
// dropped.
func (f *BusyFetcher) ListBusy(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Interval, error) {
	windowStart, windowEnd = f.ref.Localize(windowStart), f.ref.Localize(windowEnd)

	events, err := f.cal.ListEvents(ctx, f.calendarID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalendarUnavailable, err)
	}

	busy := make([]domain.Interval, 0, len(events))
	for _, e := range events {
		span, err := calendar.EventSpan(f.ref, e)
		if err != nil {
			f.logger.DebugContext(ctx, "dropping unparseable event", "event_id", e.ID, "error", err)
			continue
		}
		if !span.End.After(span.Start) {
			f.logger.DebugContext(ctx, "dropping empty event", "event_id", e.ID)
			continue
		}
		busy = append(busy, span)
	}
	return busy, nil
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
