package service

import (
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/timezone"
)

// dueQuery turns a due-by instant and period into a repository query. With
// a period, pending tasks due by the period end match, and so do tasks
// completed inside the period. Weeks start on Monday.
func dueQuery(ref *timezone.Reference, dueBy time.Time, period domain.DuePeriod, mode domain.MonthMode) repository.DueQuery {
	local := ref.Localize(dueBy)

	var from, to time.Time
	switch period {
	case domain.PeriodToday:
		from = ref.StartOfDay(local)
		to = from.AddDate(0, 0, 1).Add(-time.Millisecond)
	case domain.PeriodWeek:
		offset := (int(local.Weekday()) + 6) % 7
		from = ref.StartOfDay(local).AddDate(0, 0, -offset)
		to = from.AddDate(0, 0, 7).Add(-time.Second)
	case domain.PeriodMonth:
		if mode == domain.MonthCalendar {
			y, m, _ := local.Date()
			from = time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
			to = from.AddDate(0, 1, 0).Add(-time.Second)
		} else {
			from = local.AddDate(0, 0, -30)
			to = local.AddDate(0, 0, 30)
		}
	default:
		return repository.DueQuery{DueOnOrBefore: local}
	}
	return repository.DueQuery{DueOnOrBefore: to, CompletedFrom: &from, CompletedTo: &to}
}
