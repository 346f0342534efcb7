package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskMaster/internal/handlers"
	"taskMaster/internal/identity"
	"taskMaster/internal/identity/local"
	"taskMaster/internal/live"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/repository/inmemory"
	"taskMaster/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

var now = time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)

func clock() time.Time { return now }

type fixture struct {
	server   *httptest.Server
	tasks    *service.TaskService
	projects *service.ProjectService
	hub      *live.Hub
	store    repo.Store
}

func newFixture(t *testing.T, override func(*handlers.Handlers)) *fixture {
	t.Helper()

	base := inmemory.New()
	hub := live.NewHub(base, clock)
	store := live.Observe(base, hub)

	tasks := service.NewTaskService(store, clock)
	projects := service.NewProjectService(store, clock)
	users := service.NewUserService(store, clock)
	auth := identity.NewService(local.New([]byte("test-secret"), local.WithCost(bcrypt.MinCost)), users)

	h := handlers.Handlers{
		Tasks:    handlers.NewTaskHandler(tasks, clock),
		Projects: handlers.NewProjectHandler(projects),
		Auth:     handlers.NewAuthHandler(auth),
		Live:     handlers.NewLiveHandler(hub, store, clock),
		Health:   handlers.NewHealthHandler(store),
	}
	if override != nil {
		override(&h)
	}

	server := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{AllowedOrigins: []string{"*"}}, h))
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)

	return &fixture{server: server, tasks: tasks, projects: projects, hub: hub, store: store}
}

type response struct {
	Code int
	Body map[string]any
}

func (f *fixture) do(t *testing.T, method, path string, body any) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Code: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", resp.Body["status"])
}

func TestTaskHandler_Create(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]any
		wantCode  int
		wantError string
	}{
		{
			name:     "success - defaults",
			body:     map[string]any{"title": "Buy milk"},
			wantCode: http.StatusCreated,
		},
		{
			name: "success - full",
			body: map[string]any{
				"title":      "Report",
				"priority":   "HIGH",
				"due_at":     now.Add(-time.Hour).Format(time.RFC3339),
				"tags":       []string{"work"},
				"recurrence": "WEEKLY",
			},
			wantCode: http.StatusCreated,
		},
		{
			name:      "error - empty title",
			body:      map[string]any{"title": "  "},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "VALIDATION_ERROR",
		},
		{
			name:     "error - unknown priority",
			body:     map[string]any{"title": "x", "priority": "URGENT"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "error - unknown recurrence",
			body:     map[string]any{"title": "x", "recurrence": "YEARLY"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "error - unknown field",
			body:     map[string]any{"title": "x", "status": "done"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			resp := f.do(t, http.MethodPost, "/tasks", tt.body)

			require.Equal(t, tt.wantCode, resp.Code, resp.Body)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Body["error"])
			}
			if tt.wantCode == http.StatusCreated {
				task := resp.Body["task"].(map[string]any)
				assert.NotEmpty(t, task["id"])
				assert.Equal(t, tt.body["title"], task["title"])
			}
		})
	}
}

func TestTaskHandler_CreateOverdueFlag(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/tasks", map[string]any{
		"title":  "Late",
		"due_at": now.Add(-time.Minute).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	task := resp.Body["task"].(map[string]any)
	assert.Equal(t, true, task["is_overdue"])
	assert.Equal(t, "MEDIUM", task["priority"])
}

func TestTaskHandler_WrongContentType(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/tasks", strings.NewReader(`{"title":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestTaskHandler_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, "Write tests")
	require.NoError(t, err)
	path := "/tasks/" + task.ID

	t.Run("success - complete", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, path+"/complete", nil)
		require.Equal(t, http.StatusNoContent, resp.Code)

		got, err := f.tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, got.Completed)

		resp = f.do(t, http.MethodPost, path+"/incomplete", nil)
		require.Equal(t, http.StatusNoContent, resp.Code)
		got, err = f.tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, got.Completed)
	})

	t.Run("success - pin and privacy", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/pin", nil).Code)
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/privacy", nil).Code)

		got, err := f.tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, got.Pinned)
		assert.True(t, got.Private)
	})

	t.Run("success - tags", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/tags", map[string]any{"tag": "home"}).Code)
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/tags", map[string]any{"tag": "work"}).Code)
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path+"/tags/home", nil).Code)

		got, err := f.tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"work"}, got.Tags)
	})

	t.Run("error - empty tag", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, path+"/tags", map[string]any{"tag": ""})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("success - rename", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, path+"/title", map[string]any{"title": "Write more tests"}).Code)

		resp := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Write more tests", resp.Body["task"].(map[string]any)["title"])
	})

	t.Run("success - duplicate", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, path+"/duplicate", nil)
		require.Equal(t, http.StatusCreated, resp.Code)

		copyID := resp.Body["id"].(string)
		dup, err := f.tasks.Get(ctx, copyID)
		require.NoError(t, err)
		assert.Equal(t, "Copy of Write more tests", dup.Title)
	})

	t.Run("success - delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, nil).Code)
	})
}

func TestTaskHandler_MissingID(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{"error - get", http.MethodGet, "/tasks/missing", nil, http.StatusNotFound},
		{"error - duplicate", http.MethodPost, "/tasks/missing/duplicate", nil, http.StatusNotFound},
		{"success - complete is no-op", http.MethodPost, "/tasks/missing/complete", nil, http.StatusNoContent},
		{"success - add tag is no-op", http.MethodPost, "/tasks/missing/tags", map[string]any{"tag": "x"}, http.StatusNoContent},
		{"success - delete is no-op", http.MethodDelete, "/tasks/missing", nil, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestProjectHandler(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp := f.do(t, http.MethodPost, "/projects", map[string]any{"name": "Home", "color": 255, "members": []string{"u1"}})
	require.Equal(t, http.StatusCreated, resp.Code)
	id := resp.Body["project"].(map[string]any)["id"].(string)
	path := "/projects/" + id

	t.Run("success - members", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/members", map[string]any{"user_id": "u2"}).Code)
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path+"/members/u1", nil).Code)

		got, err := f.projects.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, got.Members)
	})

	t.Run("success - archive round trip", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/archive", nil).Code)
		got, err := f.projects.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Archived)

		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, path+"/unarchive", nil).Code)
		got, err = f.projects.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.Archived)
	})

	t.Run("success - batch archive", func(t *testing.T) {
		other, err := f.projects.Create(ctx, "Work")
		require.NoError(t, err)

		resp := f.do(t, http.MethodPost, "/projects/archive", map[string]any{"ids": []string{id, other.ID, "missing"}})
		require.Equal(t, http.StatusNoContent, resp.Code)

		archived, err := live.QueryProjects(ctx, f.store, live.ArchivedProjects{})
		require.NoError(t, err)
		assert.Len(t, archived, 2)
	})

	t.Run("success - duplicate", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, path+"/duplicate", nil)
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.NotEqual(t, id, resp.Body["id"])
	})

	t.Run("error - empty name", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/projects", map[string]any{"name": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("success - delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, nil).Code)
	})
}

type failingProjects struct {
	handlers.ProjectService
	err error
}

func (p failingProjects) ArchiveMany(ctx context.Context, ids []string) error {
	return p.err
}

func (p failingProjects) Get(ctx context.Context, id string) (*models.Project, error) {
	return nil, p.err
}

func TestProjectHandler_Errors(t *testing.T) {
	t.Run("error - batch partial failure", func(t *testing.T) {
		err := multierr.Combine(errors.New("p1: хранилище недоступно"), errors.New("p3: хранилище недоступно"))
		f := newFixture(t, func(h *handlers.Handlers) {
			h.Projects = handlers.NewProjectHandler(failingProjects{err: err})
		})

		resp := f.do(t, http.MethodPost, "/projects/archive", map[string]any{"ids": []string{"p1", "p2", "p3"}})

		require.Equal(t, http.StatusMultiStatus, resp.Code)
		assert.Equal(t, "PARTIAL_FAILURE", resp.Body["error"])
		assert.Len(t, resp.Body["failures"], 2)
	})

	t.Run("error - store failure", func(t *testing.T) {
		f := newFixture(t, func(h *handlers.Handlers) {
			h.Projects = handlers.NewProjectHandler(failingProjects{err: errors.New("соединение потеряно")})
		})

		resp := f.do(t, http.MethodGet, "/projects/p1", nil)

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestAuthHandler(t *testing.T) {
	f := newFixture(t, nil)
	credentials := map[string]any{"email": "ana@example.com", "password": "secret-1", "display_name": "Ana"}

	resp := f.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = f.do(t, http.MethodPost, "/auth/signup", credentials)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body)
	assert.NotEmpty(t, resp.Body["token"])
	userID := resp.Body["user"].(map[string]any)["id"]

	resp = f.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Ana", resp.Body["user"].(map[string]any)["display_name"])

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/auth/signout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", nil).Code)

	resp = f.do(t, http.MethodPost, "/auth/signin", map[string]any{"email": "ana@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "AUTH_ERROR", resp.Body["error"])

	resp = f.do(t, http.MethodPost, "/auth/signin", map[string]any{"email": "ana@example.com", "password": "secret-1"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, userID, resp.Body["user"].(map[string]any)["id"])

	resp = f.do(t, http.MethodPost, "/auth/password", map[string]any{"current": "secret-1", "next": "secret-2"})
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(t, http.MethodPost, "/auth/reset", map[string]any{"email": "ana@example.com"})
	assert.Equal(t, http.StatusAccepted, resp.Code)
}

func TestLiveHandler_Query(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	done, err := f.tasks.Create(ctx, "Done")
	require.NoError(t, err)
	require.NoError(t, f.tasks.MarkCompleted(ctx, done.ID))
	_, err = f.tasks.Create(ctx, "Open")
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount float64
	}{
		{"success - pending", "/query/tasks/pending", http.StatusOK, 1},
		{"success - all", "/query/tasks/all", http.StatusOK, 2},
		{"success - search", "/query/tasks/search?text=op", http.StatusOK, 1},
		{"success - projects", "/query/projects/all", http.StatusOK, 0},
		{"error - unknown query", "/query/tasks/nope", http.StatusNotFound, 0},
		{"error - unknown collection", "/query/boards/all", http.StatusNotFound, 0},
		{"error - missing argument", "/query/tasks/project", http.StatusUnprocessableEntity, 0},
		{"error - bad priority", "/query/tasks/priority?priority=URGENT", http.StatusUnprocessableEntity, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantCode, resp.Code, resp.Body)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantCount, resp.Body["count"])
			}
		})
	}
}

type event struct {
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
	Error string            `json:"error"`
}

func readEvent(t *testing.T, reader *bufio.Reader) event {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
			return ev
		}
	}
}

func TestLiveHandler_Stream(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/live/tasks/pending", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, 0, readEvent(t, reader).Count)

	task, err := f.tasks.Create(context.Background(), "Streamed")
	require.NoError(t, err)
	assert.Equal(t, 1, readEvent(t, reader).Count)

	require.NoError(t, f.tasks.MarkCompleted(context.Background(), task.ID))
	assert.Equal(t, 0, readEvent(t, reader).Count)

	cancel()
	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(models.CollectionTasks) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLiveHandler_StreamUnknownQuery(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, fmt.Sprintf("/live/%s/%s", "tasks", "nope"), nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
