package handlers

import (
	"net/http"

	"taskMaster/internal/handlers/dto"
	"taskMaster/internal/logger"
	"taskMaster/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projects ProjectService
}

func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/archive", h.ArchiveMany)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/archive", mutation("archive_project", h.projects.Archive))
		r.Post("/unarchive", mutation("unarchive_project", h.projects.Unarchive))
		r.Post("/duplicate", h.Duplicate)
		r.Post("/members", h.AddMember)
		r.Delete("/members/{user}", h.RemoveMember)
	})
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request dto.CreateProjectRequest
	if !decodeBody(w, r, &request) {
		return
	}

	options := []service.ProjectOption{
		service.WithProjectDescription(request.Description),
		service.WithMembers(request.Members...),
	}
	if request.Color != nil {
		options = append(options, service.WithColor(*request.Color))
	}
	if request.CreatedBy != nil {
		options = append(options, service.WithCreator(*request.CreatedBy))
	}

	project, err := h.projects.Create(r.Context(), request.Name, options...)
	if err != nil {
		handleError(w, r, err, "create_project")
		return
	}

	logger.Info("HTTP: Проект создан", zap.String("project_id", project.ID))
	responseWithJSON(w, http.StatusCreated, toPayload("project", project))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err, "get_project")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("project", project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err, "delete_project")
		return
	}
	responseNoContent(w)
}

func (h *ProjectHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	copyID, err := h.projects.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err, "duplicate_project")
		return
	}
	if copyID == "" {
		responseWithError(w, http.StatusNotFound, "проект не найден")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("id", copyID))
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var request dto.MemberRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.UserID == "" {
		responseWithError(w, http.StatusBadRequest, "user_id не может быть пустым")
		return
	}
	if err := h.projects.AddMember(r.Context(), chi.URLParam(r, "id"), request.UserID); err != nil {
		handleError(w, r, err, "add_member")
		return
	}
	responseNoContent(w)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "user")); err != nil {
		handleError(w, r, err, "remove_member")
		return
	}
	responseNoContent(w)
}

// ArchiveMany архивирует всё, что получилось; неудачные id перечисляются в ответе
func (h *ProjectHandler) ArchiveMany(w http.ResponseWriter, r *http.Request) {
	var request dto.BatchRequest
	if !decodeBody(w, r, &request) {
		return
	}

	err := h.projects.ArchiveMany(r.Context(), request.IDs)
	if err == nil {
		responseNoContent(w)
		return
	}
	if r.Context().Err() != nil {
		handleError(w, r, err, "archive_projects")
		return
	}

	failures := multierr.Errors(err)
	messages := make([]string, len(failures))
	for i, failure := range failures {
		messages[i] = failure.Error()
	}
	logger.Warn("HTTP: Пакетная архивация выполнена частично", zap.Int("failed", len(failures)))
	responseWithJSON(w, http.StatusMultiStatus,
		toPayload("error", "PARTIAL_FAILURE"),
		toPayload("failures", messages),
	)
}
