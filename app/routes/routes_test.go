package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyplan/app/controllers"
	"studyplan/app/models"
	"studyplan/app/repository"
	"studyplan/app/services"
)

func setupTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	repo, err := repository.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(context.Background()) })

	router := mux.NewRouter()
	ctl := controllers.NewTaskController(services.NewTaskService(repo, zap.NewNop()), zap.NewNop())
	RegisterRoutes(router, ctl, zap.NewNop())
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHome(t *testing.T) {
	rec := do(t, setupTestRouter(t), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Study Planner Backend is Running!")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateAndListTasks(t *testing.T) {
	router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/tasks", `{"name":"Week 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Task](t, rec)
	assert.Equal(t, "Week 1", created.Name)
	assert.False(t, created.Completed)
	assert.Positive(t, created.ID)

	do(t, router, http.MethodPost, "/tasks", `{"name":"Algebra"}`)

	rec = do(t, router, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode[[]models.Task](t, rec)
	require.Len(t, tasks, 2)
	assert.Equal(t, created, tasks[0])
	assert.Equal(t, "Algebra", tasks[1].Name)
	assert.Greater(t, tasks[1].ID, tasks[0].ID)
}

func TestListEmptyIsArray(t *testing.T) {
	rec := do(t, setupTestRouter(t), http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateTask_BadRequests(t *testing.T) {
	router := setupTestRouter(t)

	for name, body := range map[string]string{
		"malformed json": `{"name":`,
		"empty name":     `{"name":"  "}`,
		"unknown field":  `{"title":"Week 1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/tasks", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[models.ErrorResponse](t, rec).Error)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	router := setupTestRouter(t)
	created := decode[models.Task](t, do(t, router, http.MethodPost, "/tasks", `{"name":"Geometry"}`))
	path := "/tasks/" + strconv.FormatInt(created.ID, 10)

	t.Run("sets completed", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, path, `{"completed":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decode[models.Task](t, rec)
		assert.True(t, updated.Completed)
		assert.Equal(t, "Geometry", updated.Name)
	})

	t.Run("missing field is a structured bad request", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, path, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[models.ErrorResponse](t, rec).Error, "completed")
	})

	t.Run("misspelled field is a structured bad request", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, path, `{"complete d":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non boolean is a structured bad request", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, path, `{"completed":"yes"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/tasks/999", `{"completed":true}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Task not found", decode[models.ErrorResponse](t, rec).Error)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/tasks/abc", `{"completed":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetTaskByID(t *testing.T) {
	router := setupTestRouter(t)
	created := decode[models.Task](t, do(t, router, http.MethodPost, "/tasks", `{"name":"Calculus"}`))

	rec := do(t, router, http.MethodGet, "/tasks/"+strconv.FormatInt(created.ID, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[models.Task](t, rec))

	rec = do(t, router, http.MethodGet, "/tasks/12345", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	router := setupTestRouter(t)
	created := decode[models.Task](t, do(t, router, http.MethodPost, "/tasks", `{"name":"Calculus"}`))

	rec := do(t, router, http.MethodDelete, "/tasks/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, decode[[]models.Task](t, do(t, router, http.MethodGet, "/tasks", "")), 1)

	rec = do(t, router, http.MethodDelete, "/tasks/"+strconv.FormatInt(created.ID, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted", decode[models.MessageResponse](t, rec).Message)
	assert.Empty(t, decode[[]models.Task](t, do(t, router, http.MethodGet, "/tasks", "")))
}

func TestClearTasks(t *testing.T) {
	router := setupTestRouter(t)
	for _, name := range []string{"Week 1", "Algebra"} {
		do(t, router, http.MethodPost, "/tasks", `{"name":"`+name+`"}`)
	}

	rec := do(t, router, http.MethodDelete, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.ClearResponse](t, rec)
	assert.Equal(t, int64(2), resp.Deleted)
	assert.Equal(t, "2 tasks cleared!", resp.Message)
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, setupTestRouter(t), http.MethodOptions, "/tasks", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	do(t, router, http.MethodGet, "/tasks", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "studyplan_http_requests_total")
}
