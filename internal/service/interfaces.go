package service

import "github.com/alexanderramin/solace/internal/app"

// TaskService owns the task lifecycle: storage, placement and the calendar
// link.
type TaskService interface {
	app.CreateTaskUseCase
	app.TaskQueryUseCase
	app.TaskCommandUseCase
}

type SweepService interface {
	app.RescheduleUseCase
}

type SlotService interface {
	app.SlotsUseCase
}

type ReminderService interface {
	app.ReminderUseCase
}
