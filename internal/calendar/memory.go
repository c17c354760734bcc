package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

// Memory is an in-process calendar for tests and throwaway runs.
type Memory struct {
	mu     sync.Mutex
	ref    *timezone.Reference
	seq    int
	events map[string]map[string]memoryEntry

	// Now stamps created events. Defaults to time.Now.
	Now func() time.Time
}

type memoryEntry struct {
	event *domain.CalendarEvent
	span  domain.Interval
}

// NewMemory returns an empty in-memory calendar.
func NewMemory(ref *timezone.Reference) *Memory {
	return &Memory{
		ref:    ref,
		events: make(map[string]map[string]memoryEntry),
		Now:    time.Now,
	}
}

func (m *Memory) ListEvents(_ context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var occ []occurrence
	for _, entry := range m.events[calendarID] {
		got, err := expand(cloneEvent(entry.event), entry.span, timeMin, timeMax)
		if err != nil {
			return nil, err
		}
		occ = append(occ, got...)
	}
	// Map iteration is random; ties on start are broken by id.
	sort.SliceStable(occ, func(i, j int) bool { return occ[i].event.ID < occ[j].event.ID })
	return sortedEvents(occ), nil
}

func (m *Memory) GetEvent(_ context.Context, calendarID, eventID string) (*domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.events[calendarID][eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	return cloneEvent(entry.event), nil
}

func (m *Memory) CreateEvent(_ context.Context, calendarID string, ne domain.NewEvent) (*domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("mem-%d", m.seq)
	e, span, err := buildEvent(m.ref, calendarID, id, ne, m.Now().UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}
	if m.events[calendarID] == nil {
		m.events[calendarID] = make(map[string]memoryEntry)
	}
	m.events[calendarID][id] = memoryEntry{event: e, span: span}
	return cloneEvent(e), nil
}

func (m *Memory) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[calendarID][eventID]; !ok {
		return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	delete(m.events[calendarID], eventID)
	return nil
}

// Len reports how many events are stored on a calendar.
func (m *Memory) Len(calendarID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events[calendarID])
}

func cloneEvent(e *domain.CalendarEvent) *domain.CalendarEvent {
	c := *e
	if e.Recurrence != nil {
		c.Recurrence = append([]string(nil), e.Recurrence...)
	}
	return &c
}
