package service

import (
	"context"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/scheduler"
)

// defaultSearchDays bounds NextSlot when the caller gives no day budget.
const defaultSearchDays = 7

type slotService struct {
	finder   *scheduler.SlotFinder
	observer UseCaseObserver
}

func NewSlotService(finder *scheduler.SlotFinder, observers ...UseCaseObserver) SlotService {
	return &slotService{finder: finder, observer: useCaseObserverOrNoop(observers)}
}

func (s *slotService) FreeSlots(ctx context.Context, day time.Time, durationMin, startHour, endHour int) (slots []time.Time, err error) {
	startedAt := time.Now()
	fields := map[string]any{"duration_min": durationMin}
	defer observe(ctx, s.observer, "free-slots", startedAt, fields, &err)

	if durationMin <= 0 {
		durationMin = domain.DefaultDurationMin
	}
	slots, err = s.finder.FindSlots(ctx, day, durationMin, startHour, endHour)
	fields["count"] = len(slots)
	return slots, err
}

func (s *slotService) NextSlot(ctx context.Context, after time.Time, durationMin, maxDays int) (slot *time.Time, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "next-slot", startedAt, map[string]any{"duration_min": durationMin}, &err)

	if durationMin <= 0 {
		durationMin = domain.DefaultDurationMin
	}
	if maxDays <= 0 {
		maxDays = defaultSearchDays
	}
	return s.finder.FindNextSlot(ctx, after, durationMin, maxDays)
}
