package handlers

import (
	"context"
	"net/http"
	"time"

	"taskMaster/internal/codec"
	"taskMaster/internal/handlers/dto"
	"taskMaster/internal/logger"
	"taskMaster/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks TaskService
	clock func() time.Time
}

func NewTaskHandler(tasks TaskService, clock func() time.Time) *TaskHandler {
	if clock == nil {
		clock = time.Now
	}
	return &TaskHandler{tasks: tasks, clock: clock}
}

func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/complete", mutation("complete_task", h.tasks.MarkCompleted))
		r.Post("/incomplete", mutation("incomplete_task", h.tasks.MarkIncomplete))
		r.Post("/pin", mutation("toggle_pin", h.tasks.TogglePin))
		r.Post("/privacy", mutation("toggle_privacy", h.tasks.TogglePrivacy))
		r.Post("/duplicate", h.Duplicate)
		r.Post("/tags", h.AddTag)
		r.Delete("/tags/{tag}", h.RemoveTag)
		r.Put("/title", h.Rename)
	})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTaskRequest
	if !decodeBody(w, r, &request) {
		return
	}

	options, err := taskOptions(request)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	task, err := h.tasks.Create(r.Context(), request.Title, options...)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP: Задача создана",
		zap.String("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(task, h.clock())))
}

func taskOptions(request dto.CreateTaskRequest) ([]service.TaskOption, error) {
	options := []service.TaskOption{
		service.WithDescription(request.Description),
		service.WithPrivate(request.Private),
		service.WithPinned(request.Pinned),
		service.WithTags(request.Tags...),
		service.WithAssignees(request.Assignees...),
	}
	if request.DueAt != nil {
		options = append(options, service.WithDueAt(*request.DueAt))
	}
	if request.Priority != "" {
		priority, err := codec.DecodePriority(request.Priority)
		if err != nil {
			return nil, err
		}
		options = append(options, service.WithPriority(priority))
	}
	if request.ProjectID != nil {
		options = append(options, service.WithProject(*request.ProjectID))
	}
	if request.ParentID != nil {
		options = append(options, service.WithParent(*request.ParentID))
	}
	if request.Recurrence != nil {
		pattern, err := codec.DecodeRecurrence(request.Recurrence)
		if err != nil {
			return nil, err
		}
		options = append(options, service.WithRecurrence(pattern))
	}
	return options, nil
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task, h.clock())))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}
	responseNoContent(w)
}

func (h *TaskHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	copyID, err := h.tasks.Duplicate(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "duplicate_task")
		return
	}
	if copyID == "" {
		responseWithError(w, http.StatusNotFound, "задача не найдена")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("id", copyID))
}

func (h *TaskHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var request dto.TagRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.Tag == "" {
		responseWithError(w, http.StatusBadRequest, "тег не может быть пустым")
		return
	}
	if err := h.tasks.AddTag(r.Context(), chi.URLParam(r, "id"), request.Tag); err != nil {
		handleError(w, r, err, "add_tag")
		return
	}
	responseNoContent(w)
}

func (h *TaskHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.RemoveTag(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tag")); err != nil {
		handleError(w, r, err, "remove_tag")
		return
	}
	responseNoContent(w)
}

func (h *TaskHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var request dto.TitleRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if err := h.tasks.Rename(r.Context(), chi.URLParam(r, "id"), request.Title); err != nil {
		handleError(w, r, err, "rename_task")
		return
	}
	responseNoContent(w)
}

// mutation - обработчик для изменений без тела запроса. Отсутствующий id не ошибка.
func mutation(operation string, apply func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := apply(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleError(w, r, err, operation)
			return
		}
		responseNoContent(w)
	}
}
