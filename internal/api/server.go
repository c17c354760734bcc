// Package api serves the task and scheduling operations over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/scheduler"
	"github.com/alexanderramin/solace/internal/service"
	"github.com/alexanderramin/solace/internal/timezone"
)

// TaskUseCases is everything the task routes call.
type TaskUseCases interface {
	app.CreateTaskUseCase
	app.TaskQueryUseCase
	app.TaskCommandUseCase
}

// Config for the HTTP API handler.
type Config struct {
	Tasks  TaskUseCases
	Sweeps app.RescheduleUseCase
	Slots  app.SlotsUseCase
	Ref    *timezone.Reference
	Auth   AuthConfig

	// Reminders is optional; without it the /reminders routes are not served.
	Reminders app.ReminderUseCase
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"task: not found"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the solace API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Tasks == nil || cfg.Sweeps == nil || cfg.Slots == nil || cfg.Ref == nil {
		return nil, errors.New("api: tasks, sweeps, slots and ref are required")
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	auth := cfg.Auth
	auth.Public = append([]string{"/health", "/openapi", "/openapi.json", "/openapi.yaml", "/docs", "/schemas/"}, auth.Public...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(newAuthMiddleware(auth))

	hcfg := huma.DefaultConfig("Solace API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerTasks(api, cfg.Tasks, cfg.Ref)
	registerSweep(api, cfg.Sweeps, cfg.Ref)
	registerSlots(api, cfg.Slots, cfg.Ref)
	if cfg.Reminders != nil {
		registerReminders(api, cfg.Reminders, cfg.Ref)
	}

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func badRequest(err error) huma.StatusError {
	return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var orphan *scheduler.OrphanedEventError
	if errors.As(err, &orphan) {
		return newAPIError(http.StatusBadGateway, "orphaned_event", err.Error(),
			map[string]any{"task_id": orphan.TaskID, "event_id": orphan.EventID})
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidTask):
		return newAPIError(http.StatusBadRequest, "invalid_task", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidReminder):
		return newAPIError(http.StatusBadRequest, "invalid_reminder", err.Error(), nil)
	case errors.Is(err, service.ErrTaskNotPending):
		return newAPIError(http.StatusConflict, "task_not_pending", err.Error(), nil)
	case errors.Is(err, scheduler.ErrCalendarUnavailable):
		return newAPIError(http.StatusBadGateway, "calendar_unavailable", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type taskPath struct {
	ID string `path:"id"`
}

func registerTasks(api huma.API, tasks TaskUseCases, ref *timezone.Reference) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a task and place it on the calendar",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body CreateTaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		task, err := input.Body.input().NewTask(userID)
		if err != nil {
			return nil, badRequest(err)
		}
		res, err := tasks.Create(ctx, task)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CreateTaskResponse `json:"body"`
		}{Body: CreateTaskResponse{Task: toTaskResponse(res.Task, ref), Schedule: toScheduleResponse(res, ref)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		All bool `query:"all" doc:"Include completed and cancelled tasks"`
	}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		list, err := tasks.List(ctx, userID, input.All)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: toTaskResponses(list, ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-due-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks/due",
		Summary:     "List tasks due by a date",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		DueBy  string `query:"due_by" doc:"YYYY-MM-DD or RFC3339; defaults to now"`
		Period string `query:"period" enum:"today,week,month"`
	}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := dueRequest(input.DueBy, input.Period, ref)
		if err != nil {
			return nil, badRequest(err)
		}
		list, err := tasks.ListDue(ctx, userID, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: toTaskResponses(list, ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		task, err := tasks.Get(ctx, userID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: toTaskResponse(task, ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update task fields without rescheduling",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		task, err := tasks.Update(ctx, userID, input.ID, input.Body.patch())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: toTaskResponse(task, ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *taskPath) (*struct{}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := tasks.Delete(ctx, userID, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/complete",
		Summary:     "Complete a task",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body CompleteTaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := tasks.Complete(ctx, userID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		body := CompleteTaskResponse{CompletedTaskID: res.CompletedTaskID, CreatedNextOccurrence: res.CreatedNextOccurrence()}
		if res.NextOccurrence != nil {
			body.NextTaskID = res.NextOccurrence.ID
		}
		return &struct {
			Body CompleteTaskResponse `json:"body"`
		}{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/cancel",
		Summary:     "Cancel a task",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		task, err := tasks.Cancel(ctx, userID, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: toTaskResponse(task, ref)}, nil
	})
}

func registerSweep(api huma.API, sweeps app.RescheduleUseCase, ref *timezone.Reference) {
	huma.Register(api, huma.Operation{
		OperationID: "reschedule-expired",
		Method:      http.MethodPost,
		Path:        "/tasks/reschedule-expired",
		Summary:     "Move the caller's expired pending tasks to new free slots",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body RescheduleResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		moved, err := sweeps.RescheduleExpired(ctx, userID)
		partial, isPartial := err.(interface{ Unwrap() []error })
		if err != nil && !isPartial {
			return nil, handleError(err)
		}

		body := RescheduleResponse{Rescheduled: make([]RescheduledItem, 0, len(moved)), Errors: []string{}}
		for _, m := range moved {
			body.Rescheduled = append(body.Rescheduled, RescheduledItem{TaskID: m.TaskID, Title: m.Title, NewTime: ref.Localize(m.NewTime)})
		}
		if isPartial {
			for _, e := range partial.Unwrap() {
				body.Errors = append(body.Errors, e.Error())
			}
		}
		return &struct {
			Body RescheduleResponse `json:"body"`
		}{Body: body}, nil
	})
}

func registerSlots(api huma.API, slots app.SlotsUseCase, ref *timezone.Reference) {
	huma.Register(api, huma.Operation{
		OperationID: "free-slots",
		Method:      http.MethodGet,
		Path:        "/slots",
		Summary:     "Free slot starts on a day",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Date      string `query:"date" required:"true" example:"2024-06-10"`
		Duration  int    `query:"duration" default:"60" minimum:"1"`
		StartHour int    `query:"start_hour" default:"11" minimum:"0" maximum:"23"`
		EndHour   int    `query:"end_hour" default:"21" minimum:"0" maximum:"23"`
	}) (*struct {
		Body SlotsResponse `json:"body"`
	}, error) {
		if _, authErr := userIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		day, err := ref.ParseDate(input.Date)
		if err != nil {
			return nil, badRequest(err)
		}
		starts, err := slots.FreeSlots(ctx, day, input.Duration, input.StartHour, input.EndHour)
		if err != nil {
			return nil, handleError(err)
		}
		body := SlotsResponse{Date: timezone.FormatDate(day), DurationMin: input.Duration, Slots: make([]time.Time, 0, len(starts))}
		for _, s := range starts {
			body.Slots = append(body.Slots, ref.Localize(s))
		}
		return &struct {
			Body SlotsResponse `json:"body"`
		}{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "next-slot",
		Method:      http.MethodGet,
		Path:        "/slots/next",
		Summary:     "First free slot after an instant",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		After    string `query:"after" doc:"RFC3339; defaults to now"`
		Duration int    `query:"duration" default:"60" minimum:"1"`
		MaxDays  int    `query:"max_days" default:"7" minimum:"1" maximum:"60"`
	}) (*struct {
		Body NextSlotResponse `json:"body"`
	}, error) {
		if _, authErr := userIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		after := time.Now()
		if input.After != "" {
			parsed, err := ref.ParseTimestamp(input.After, "")
			if err != nil {
				return nil, badRequest(err)
			}
			after = parsed
		}
		slot, err := slots.NextSlot(ctx, ref.Localize(after), input.Duration, input.MaxDays)
		if err != nil {
			return nil, handleError(err)
		}
		if slot != nil {
			local := ref.Localize(*slot)
			slot = &local
		}
		return &struct {
			Body NextSlotResponse `json:"body"`
		}{Body: NextSlotResponse{Slot: slot}}, nil
	})
}

func registerReminders(api huma.API, reminders app.ReminderUseCase, ref *timezone.Reference) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-reminder",
		Method:        http.MethodPost,
		Path:          "/reminders",
		Summary:       "Create a reminder, optionally tied to a task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateReminderRequest `json:"body"`
	}) (*struct {
		Body ReminderResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		at, err := ref.ParseTimestamp(input.Body.RemindAt, "")
		if err != nil {
			return nil, badRequest(err)
		}
		r, err := reminders.Create(ctx, userID, app.ReminderInput{
			TaskID:      input.Body.TaskID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			RemindAt:    at,
			Method:      input.Body.Method,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReminderResponse `json:"body"`
		}{Body: toReminderResponse(r, ref)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "due-reminders",
		Method:      http.MethodGet,
		Path:        "/reminders/due",
		Summary:     "Reminders due at or before an instant, earliest first",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		DueBy string `query:"due_by" doc:"RFC3339; defaults to now"`
	}) (*struct {
		Body []ReminderResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		var dueBy time.Time
		if input.DueBy != "" {
			parsed, err := ref.ParseTimestamp(input.DueBy, "")
			if err != nil {
				return nil, badRequest(err)
			}
			dueBy = parsed
		}
		due, err := reminders.Due(ctx, userID, dueBy)
		if err != nil {
			return nil, handleError(err)
		}
		body := make([]ReminderResponse, 0, len(due))
		for _, r := range due {
			body = append(body, toReminderResponse(r, ref))
		}
		return &struct {
			Body []ReminderResponse `json:"body"`
		}{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-reminder",
		Method:        http.MethodDelete,
		Path:          "/reminders/{id}",
		Summary:       "Delete a reminder",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := reminders.Delete(ctx, userID, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

// dueRequest accepts a bare date or a timestamp for due_by.
func dueRequest(dueBy, period string, ref *timezone.Reference) (app.DueRequest, error) {
	p, err := domain.ParseDuePeriod(period)
	if err != nil {
		return app.DueRequest{}, err
	}
	req := app.DueRequest{Period: p}
	switch {
	case dueBy == "":
	case len(dueBy) == len("2006-01-02"):
		if req.DueBy, err = ref.ParseDate(dueBy); err != nil {
			return app.DueRequest{}, err
		}
	default:
		if req.DueBy, err = ref.ParseTimestamp(dueBy, ""); err != nil {
			return app.DueRequest{}, err
		}
	}
	return req, nil
}
