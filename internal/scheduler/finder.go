package scheduler

import (
	"context"
	"time"

	"github.com/alexanderramin/solace/internal/timezone"
)

const (
	defaultEarliestHour     = 11
	defaultSearchLatestHour = 22
)

// SlotFinder locates free time using a BusySource.
type SlotFinder struct {
	busy BusySource
	ref  *timezone.Reference

	// EarliestHour and SearchLatestHour bound each day scanned by FindNextSlot.
	EarliestHour     int
	SearchLatestHour int
}

// NewSlotFinder creates a SlotFinder with the default search hours.
func NewSlotFinder(busy BusySource, ref *timezone.Reference) *SlotFinder {
	return &SlotFinder{
		busy:             busy,
		ref:              ref,
		EarliestHour:     defaultEarliestHour,
		SearchLatestHour: defaultSearchLatestHour,
	}
}

// FindSlots returns free slot starts on day between startHour:00 and the
// last instant of endHour, both in the reference zone. Hours are clamped
// to [0, 23].
func (f *SlotFinder) FindSlots(ctx context.Context, day time.Time, durationMin, startHour, endHour int) ([]time.Time, error) {
	startHour, endHour = clampHour(startHour), clampHour(endHour)
	windowStart := f.ref.At(day, startHour, 0, 0, 0)
	windowEnd := f.ref.At(day, endHour, 59, 59, 999999000)
	if !windowEnd.After(windowStart) {
		return nil, nil
	}

	busy, err := f.busy.ListBusy(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return FreeSlotStarts(busy, windowStart, windowEnd, minutes(durationMin)), nil
}

// FindNextSlot scans up to maxDays days starting with after's day and
// returns the first slot strictly after after, or nil.
func (f *SlotFinder) FindNextSlot(ctx context.Context, after time.Time, durationMin, maxDays int) (*time.Time, error) {
	after = f.ref.Localize(after)
	day := after
	startHour := max(after.Hour(), f.EarliestHour)

	for i := 0; i < maxDays; i++ {
		slots, err := f.FindSlots(ctx, day, durationMin, startHour, f.SearchLatestHour)
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			if s.After(after) {
				return &s, nil
			}
		}
		day = f.ref.StartOfDay(day).AddDate(0, 0, 1)
		startHour = f.EarliestHour
	}
	return nil, nil
}

// FirstSlotBetween returns the first free start in an explicit window, or nil.
func (f *SlotFinder) FirstSlotBetween(ctx context.Context, windowStart, windowEnd time.Time, durationMin int) (*time.Time, error) {
	windowStart, windowEnd = f.ref.Localize(windowStart), f.ref.Localize(windowEnd)
	if !windowEnd.After(windowStart) {
		return nil, nil
	}
	busy, err := f.busy.ListBusy(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return FirstFreeSlot(busy, windowStart, windowEnd, minutes(durationMin)), nil
}

func clampHour(h int) int {
	return min(max(h, 0), 23)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
