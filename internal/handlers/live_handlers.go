package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskMaster/internal/handlers/dto"
	"taskMaster/internal/live"
	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LiveHandler отдаёт именованные запросы: один раз (/query) или потоком SSE (/live)
type LiveHandler struct {
	hub   *live.Hub
	store repo.Store
	clock func() time.Time
}

func NewLiveHandler(hub *live.Hub, store repo.Store, clock func() time.Time) *LiveHandler {
	if clock == nil {
		clock = time.Now
	}
	return &LiveHandler{hub: hub, store: store, clock: clock}
}

func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	collection, name := chi.URLParam(r, "collection"), chi.URLParam(r, "query")
	args := r.URL.Query().Get

	flusher, ok := w.(http.Flusher)
	if !ok {
		responseWithError(w, http.StatusInternalServerError, "потоковая передача не поддерживается")
		return
	}

	switch models.Collection(collection) {
	case models.CollectionTasks:
		q, err := live.ParseTaskQuery(name, args)
		if err != nil {
			handleError(w, r, err, "live_query")
			return
		}
		sub := h.hub.SubscribeTasks(r.Context(), q)
		stream(w, r, flusher, sub, func(res live.Result[*models.Task]) dto.Snapshot {
			return snapshot(collection, name, h.taskItems(res.Items), len(res.Items), res.Err)
		})
	case models.CollectionProjects:
		q, err := live.ParseProjectQuery(name, args)
		if err != nil {
			handleError(w, r, err, "live_query")
			return
		}
		sub := h.hub.SubscribeProjects(r.Context(), q)
		stream(w, r, flusher, sub, func(res live.Result[*models.Project]) dto.Snapshot {
			return snapshot(collection, name, res.Items, len(res.Items), res.Err)
		})
	case models.CollectionUsers:
		q, err := live.ParseUserQuery(name, args)
		if err != nil {
			handleError(w, r, err, "live_query")
			return
		}
		sub := h.hub.SubscribeUsers(r.Context(), q)
		stream(w, r, flusher, sub, func(res live.Result[*models.User]) dto.Snapshot {
			return snapshot(collection, name, res.Items, len(res.Items), res.Err)
		})
	default:
		responseWithError(w, http.StatusNotFound, "неизвестная коллекция: "+collection)
	}
}

func (h *LiveHandler) Query(w http.ResponseWriter, r *http.Request) {
	collection, name := chi.URLParam(r, "collection"), chi.URLParam(r, "query")
	args := r.URL.Query().Get

	var (
		items any
		count int
		err   error
	)
	switch models.Collection(collection) {
	case models.CollectionTasks:
		var q live.TaskQuery
		if q, err = live.ParseTaskQuery(name, args); err == nil {
			var tasks []*models.Task
			tasks, err = live.QueryTasks(r.Context(), h.store, q, h.clock())
			items, count = h.taskItems(tasks), len(tasks)
		}
	case models.CollectionProjects:
		var q live.ProjectQuery
		if q, err = live.ParseProjectQuery(name, args); err == nil {
			var projects []*models.Project
			projects, err = live.QueryProjects(r.Context(), h.store, q)
			items, count = projects, len(projects)
		}
	case models.CollectionUsers:
		var q live.UserQuery
		if q, err = live.ParseUserQuery(name, args); err == nil {
			var users []*models.User
			users, err = live.QueryUsers(r.Context(), h.store, q)
			items, count = users, len(users)
		}
	default:
		responseWithError(w, http.StatusNotFound, "неизвестная коллекция: "+collection)
		return
	}
	if err != nil {
		handleError(w, r, err, "query")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(snapshot(collection, name, items, count, nil))
}

func (h *LiveHandler) taskItems(tasks []*models.Task) []dto.TaskResponse {
	index := live.BuildChildIndex(tasks)
	return dto.FromTaskList(tasks, h.clock(), index.HasChildren)
}

func snapshot(collection, query string, items any, count int, err error) dto.Snapshot {
	s := dto.Snapshot{Collection: collection, Query: query, Items: items, Count: count}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// stream пишет по событию на каждый снимок, пока клиент не отключится
func stream[T any](w http.ResponseWriter, r *http.Request, flusher http.Flusher, sub *live.Subscription[T], toSnapshot func(live.Result[T]) dto.Snapshot) {
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sent := 0
	for res := range sub.Updates() {
		data, err := json.Marshal(toSnapshot(res))
		if err != nil {
			logger.Error("HTTP: Не удалось сериализовать снимок", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
		sent++
	}
	logger.Info("HTTP: Поток закрыт",
		zap.String("path", r.URL.Path),
		zap.Int("snapshots", sent))
}

type HealthHandler struct {
	store repo.Store
}

func NewHealthHandler(store repo.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("error", err.Error()),
		)
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()),
	)
}
