package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// FreeSlotStarts sweeps busy intervals across [windowStart, windowEnd] and
// returns the start of every gap at least duration long, in order. Busy may
// be unsorted and overlapping.
func FreeSlotStarts(busy []domain.Interval, windowStart, windowEnd time.Time, duration time.Duration) []time.Time {
	var starts []time.Time
	sweep(busy, windowStart, windowEnd, duration, func(t time.Time) bool {
		starts = append(starts, t)
		return true
	})
	return starts
}

// FirstFreeSlot returns the first gap start FreeSlotStarts would report, or
// nil.
func FirstFreeSlot(busy []domain.Interval, windowStart, windowEnd time.Time, duration time.Duration) *time.Time {
	var first *time.Time
	sweep(busy, windowStart, windowEnd, duration, func(t time.Time) bool {
		first = &t
		return false
	})
	return first
}

// sweep calls emit for each qualifying gap start until emit returns false.
func sweep(busy []domain.Interval, windowStart, windowEnd time.Time, duration time.Duration, emit func(time.Time) bool) {
	if duration <= 0 || !windowEnd.After(windowStart) {
		return
	}

	sorted := make([]domain.Interval, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	cursor := windowStart
	for _, b := range sorted {
		if !cursor.Before(windowEnd) {
			return
		}
		gapEnd := b.Start
		if gapEnd.After(windowEnd) {
			gapEnd = windowEnd
		}
		if gapEnd.Sub(cursor) >= duration {
			if !emit(cursor) {
				return
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if windowEnd.Sub(cursor) >= duration {
		emit(cursor)
	}
}
