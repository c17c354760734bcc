package domain

import (
	"fmt"
	"time"
)

// Interval is a half-open [Start, End) range of time. Both bounds are expected
// to be in the same reference location.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an Interval, rejecting empty or inverted ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two half-open intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}
