package scheduler

import "time"

// PlacementPolicy holds the hours used to place new tasks.
type PlacementPolicy struct {
	DueDateStartHour    int
	DueDateEndHour      int
	DueDateFallbackHour int

	EveningStartHour    int
	EveningEndHour      int
	EveningSearchDays   int
	EveningFallbackHour int

	DefaultDurationMin int
}

// DefaultPlacementPolicy returns the standard placement hours.
func DefaultPlacementPolicy() PlacementPolicy {
	return PlacementPolicy{
		DueDateStartHour:    11,
		DueDateEndHour:      21,
		DueDateFallbackHour: 11,
		EveningStartHour:    18,
		EveningEndHour:      22,
		EveningSearchDays:   7,
		EveningFallbackHour: 18,
		DefaultDurationMin:  60,
	}
}

// SweepPolicy holds the windows searched when replacing expired events.
type SweepPolicy struct {
	LeadTime          time.Duration
	TodayCutoffHour   int
	TomorrowStartHour int
	TomorrowEndHour   int
}

// DefaultSweepPolicy returns the standard sweep windows.
func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{
		LeadTime:          2 * time.Hour,
		TodayCutoffHour:   21,
		TomorrowStartHour: 11,
		TomorrowEndHour:   21,
	}
}
