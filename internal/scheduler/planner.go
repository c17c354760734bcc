package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

// PlacementRequest is the scheduling intent of one task.
type PlacementRequest struct {
	DueDate        *time.Time
	PreferredTime  *domain.TimeOfDay
	SourceTimezone string
	DurationMin    int
	Recurrence     *domain.Recurrence
}

// RequestFor extracts the placement intent of a task.
func RequestFor(t *domain.Task) PlacementRequest {
	req := PlacementRequest{
		DueDate:        t.DueDate,
		PreferredTime:  t.PreferredTime,
		SourceTimezone: t.SourceTimezone,
		DurationMin:    t.DurationMin,
	}
	if t.IsRecurring {
		req.Recurrence = t.Recurrence
	}
	return req
}

// Planner decides where a new task goes on the calendar.
type Planner struct {
	finder *SlotFinder
	ref    *timezone.Reference
	policy PlacementPolicy

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewPlanner creates a Planner.
func NewPlanner(finder *SlotFinder, ref *timezone.Reference, policy PlacementPolicy) *Planner {
	return &Planner{finder: finder, ref: ref, policy: policy, Now: time.Now}
}

// Place picks a start time. An explicit preferred time wins, then a free
// slot on the due date, then the first free evening slot in the coming
// week. When no slot is free a fixed fallback hour is used, so Place only
// fails on calendar or timezone errors.
func (p *Planner) Place(ctx context.Context, req PlacementRequest) (domain.ScheduleDecision, error) {
	now := p.ref.Localize(p.Now())
	dur := req.DurationMin
	if dur <= 0 {
		dur = p.policy.DefaultDurationMin
	}

	var (
		start  time.Time
		source domain.PlacementSource
		err    error
	)
	switch {
	case req.PreferredTime != nil:
		start, err = p.preferredStart(now, req)
		source = domain.PlacedPreferredTime
	case req.DueDate != nil:
		start, source, err = p.dueDateStart(ctx, *req.DueDate, dur)
	default:
		start, source, err = p.eveningStart(ctx, now, dur)
	}
	if err != nil {
		return domain.ScheduleDecision{}, err
	}

	decision := domain.ScheduleDecision{StartTime: start, DurationMin: dur, Source: source}
	if req.Recurrence != nil {
		rule, err := RecurrenceRule(*req.Recurrence, p.ref)
		if err != nil {
			return domain.ScheduleDecision{}, err
		}
		decision.RecurrenceRule = &rule
	}
	return decision, nil
}

func (p *Planner) preferredStart(now time.Time, req PlacementRequest) (time.Time, error) {
	anchor := now
	if req.DueDate != nil {
		anchor = *req.DueDate
	}
	y, m, d := anchor.Date()
	wall := time.Date(y, m, d, req.PreferredTime.Hour, req.PreferredTime.Minute, 0, 0, time.UTC)

	start, err := p.ref.Convert(wall, req.SourceTimezone)
	if err != nil {
		return time.Time{}, err
	}

	if req.DueDate != nil {
		// The due date names the intended day even if the zone shift crossed midnight.
		if sy, sm, sd := start.Date(); sy != y || sm != m || sd != d {
			start = time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, p.ref.Location())
		}
		return start, nil
	}
	if start.Before(now) {
		start = start.AddDate(0, 0, 1)
	}
	return start, nil
}

func (p *Planner) dueDateStart(ctx context.Context, due time.Time, dur int) (time.Time, domain.PlacementSource, error) {
	day := p.ref.OnDate(due, 0, 0, 0, 0)
	slots, err := p.finder.FindSlots(ctx, day, dur, p.policy.DueDateStartHour, p.policy.DueDateEndHour)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(slots) > 0 {
		return slots[0], domain.PlacedDueDateSlot, nil
	}
	return p.ref.OnDate(due, p.policy.DueDateFallbackHour, 0, 0, 0), domain.PlacedDueDateFallback, nil
}

func (p *Planner) eveningStart(ctx context.Context, now time.Time, dur int) (time.Time, domain.PlacementSource, error) {
	today := p.ref.StartOfDay(now)
	for i := 0; i < p.policy.EveningSearchDays; i++ {
		slots, err := p.finder.FindSlots(ctx, today.AddDate(0, 0, i), dur, p.policy.EveningStartHour, p.policy.EveningEndHour)
		if err != nil {
			return time.Time{}, "", err
		}
		if len(slots) > 0 {
			return slots[0], domain.PlacedEveningSlot, nil
		}
	}

	fallback := p.ref.At(now, p.policy.EveningFallbackHour, 0, 0, 0)
	if !now.Before(fallback) {
		fallback = fallback.AddDate(0, 0, 1)
	}
	return fallback, domain.PlacedEveningFallback, nil
}

var recurrenceFreq = map[domain.RecurrencePattern]rrule.Frequency{
	domain.RecurDaily:   rrule.DAILY,
	domain.RecurWeekly:  rrule.WEEKLY,
	domain.RecurMonthly: rrule.MONTHLY,
}

// RecurrenceRule renders an RRULE line for a task recurrence. Daily rules
// with an end date stop at the last instant of that date in the reference
// zone.
func RecurrenceRule(rec domain.Recurrence, ref *timezone.Reference) (string, error) {
	freq, ok := recurrenceFreq[rec.Pattern]
	if !ok {
		return "", fmt.Errorf("recurrence pattern %q is not supported", rec.Pattern)
	}
	opt := rrule.ROption{Freq: freq, Interval: rec.EffectiveInterval()}
	if rec.Pattern == domain.RecurDaily && rec.EndDate != nil {
		opt.Until = ref.OnDate(*rec.EndDate, 23, 59, 59, 0).UTC()
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("building recurrence rule: %w", err)
	}
	return "RRULE:" + opt.RRuleString(), nil
}
