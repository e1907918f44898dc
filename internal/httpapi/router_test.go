package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

var testNow = time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)

type fakeTriggers struct {
	fired []string
	err   error
}

func (f *fakeTriggers) MorningDigest(context.Context) error {
	f.fired = append(f.fired, "morning")
	return f.err
}

func (f *fakeTriggers) EveningDigest(context.Context) error {
	f.fired = append(f.fired, "evening")
	return f.err
}

func (f *fakeTriggers) WeeklyBriefing(context.Context) error {
	f.fired = append(f.fired, "weekly")
	return f.err
}

func (f *fakeTriggers) Rollover(context.Context) (service.RolloverReport, error) {
	f.fired = append(f.fired, "rollover")
	return service.RolloverReport{Checked: 2, Reset: 1}, f.err
}

type testAPI struct {
	router   *gin.Engine
	store    *repository.Store
	triggers *fakeTriggers
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store := repository.NewStore(db)
	clock := service.FixedClock(testNow)

	users := service.NewUserService(store)
	ctx := context.Background()
	_, err = users.EnsureUser(ctx, "alice", "alice-pw", model.RoleGuest)
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, "bob", "bob-pw", model.RoleGuest)
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, "dev", "dev-pw", model.RoleDev)
	require.NoError(t, err)

	triggers := &fakeTriggers{}
	router := NewRouter(Deps{
		Tasks:       service.NewTaskService(store, clock),
		Stats:       service.NewStatsService(store, clock),
		Users:       users,
		Jobs:        triggers,
		Health:      store.Ping,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return &testAPI{router: router, store: store, triggers: triggers}
}

func (a *testAPI) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, user+"-pw")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) createTask(t *testing.T, user string, body map[string]any) taskResponse {
	t.Helper()
	rec := a.do(t, user, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[taskResponse](t, rec)
}

func TestHealthIsPublic(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	id := "0b9f6a52-4f7e-4c39-8a3c-0d0c1f2b7e11"
	req.Header.Set(headerRequestID, id)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(headerRequestID))
}

func TestAPIRequiresCredentials(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "", http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.SetBasicAuth("alice", "wrong")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListTasks(t *testing.T) {
	api := newTestAPI(t)

	created := api.createTask(t, "alice", map[string]any{"content": "buy milk", "due_date": "2026-01-21 18:00", "priority": "high"})
	assert.Equal(t, "buy milk", created.Content)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, "Tomorrow", created.DateLabel)
	assert.Equal(t, "general", created.Category)

	api.createTask(t, "alice", map[string]any{"content": "stretch", "is_habit": true, "recurrence": "daily", "category": "health"})

	rec := api.do(t, "alice", http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listTasksResponse](t, rec)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "buy milk", list.Items[0].Content, "dated tasks come first")
	assert.Equal(t, int64(2), list.Version)

	rec = api.do(t, "alice", http.MethodGet, "/api/tasks?habit=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[listTasksResponse](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "stretch", list.Items[0].Content)

	rec = api.do(t, "bob", http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[listTasksResponse](t, rec).Items)

	rec = api.do(t, "alice", http.MethodGet, "/api/tasks?complete=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskValidationError(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "alice", http.MethodPost, "/api/tasks", map[string]any{"content": "", "due_date": "soon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "content", resp.Fields[0].Field)
	assert.Equal(t, "due_date", resp.Fields[1].Field)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("{not json"))
	req.SetBasicAuth("alice", "alice-pw")
	out := httptest.NewRecorder()
	api.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestToggleAndHistory(t *testing.T) {
	api := newTestAPI(t)
	habit := api.createTask(t, "alice", map[string]any{"content": "read", "is_habit": true, "recurrence": "daily"})

	rec := api.do(t, "alice", http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", habit.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[toggleResponse](t, rec)
	assert.True(t, toggled.Complete)
	assert.Equal(t, "normal", toggled.Priority)

	rec = api.do(t, "alice", http.MethodPost, fmt.Sprintf("/api/tasks/%d/history", habit.ID), map[string]any{"date": "2026-01-18"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, "alice", http.MethodPost, fmt.Sprintf("/api/tasks/%d/history", habit.ID), map[string]any{"date": "2026-01-18"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, "alice", http.MethodPost, fmt.Sprintf("/api/tasks/%d/history", habit.ID), map[string]any{"date": "18.01.2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "alice", http.MethodGet, "/api/tasks/charts?month=2026-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	charts := decode[chartsResponse](t, rec)
	require.Len(t, charts.Habits, 1)
	assert.Equal(t, 2, charts.Habits[0].Completed)
	assert.Len(t, charts.Habits[0].Days, 31)
	assert.Len(t, charts.Categories, len(service.DefaultCategories))

	rec = api.do(t, "alice", http.MethodGet, "/api/tasks/charts?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	charts = decode[chartsResponse](t, rec)
	assert.Len(t, charts.Habits[0].Days, 7)

	rec = api.do(t, "alice", http.MethodGet, "/api/tasks/charts?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForeignTaskLooksMissing(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, "alice", map[string]any{"content": "private"})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, path + "/toggle", nil},
		{http.MethodPatch, path, map[string]any{"content": "hijacked"}},
		{http.MethodDelete, path, nil},
		{http.MethodPost, path + "/history", map[string]any{"date": "2026-01-20"}},
		{http.MethodPost, "/api/tasks/9999/toggle", nil},
	} {
		rec := api.do(t, "bob", tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	stored, err := api.store.Tasks.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Content)
	assert.False(t, stored.Complete)

	rec := api.do(t, "alice", http.MethodDelete, "/api/tasks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTaskReportsRejectedFields(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, "alice", map[string]any{"content": "draft", "due_date": "2026-01-25"})

	rec := api.do(t, "alice", http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"content":  "final",
		"due_date": "not a date",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[editTaskResponse](t, rec)
	assert.Equal(t, "final", resp.Task.Content)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "due_date", resp.Rejected[0].Field)
	require.NotNil(t, resp.Task.DueDate)
	assert.Equal(t, "5d left", resp.Task.DateLabel)

	rec = api.do(t, "alice", http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"due_date": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[editTaskResponse](t, rec)
	assert.Nil(t, resp.Task.DueDate)
	assert.Empty(t, resp.Rejected)
}

func TestDeleteTaskAndVersion(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, "alice", map[string]any{"content": "temp"})

	rec := api.do(t, "alice", http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[versionResponse](t, rec)
	assert.Equal(t, int64(1), before.Version)

	rec = api.do(t, "alice", http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, "alice", http.MethodGet, "/api/version", nil)
	after := decode[versionResponse](t, rec)
	assert.Equal(t, int64(2), after.Version)

	rec = api.do(t, "bob", http.MethodGet, "/api/version", nil)
	assert.Equal(t, int64(0), decode[versionResponse](t, rec).Version)
}

func TestTriggersNeedDeveloperRole(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "alice", http.MethodPost, "/api/trigger/morning", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, api.triggers.fired)

	for _, job := range []string{"morning", "evening", "weekly"} {
		rec = api.do(t, "dev", http.MethodPost, "/api/trigger/"+job, nil)
		assert.Equal(t, http.StatusAccepted, rec.Code, job)
	}
	rec = api.do(t, "dev", http.MethodPost, "/api/trigger/rollover", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checked":2,"reset":1,"orphans":0}`, rec.Body.String())
	assert.Equal(t, []string{"morning", "evening", "weekly", "rollover"}, api.triggers.fired)

	api.triggers.err = errors.New("boom")
	rec = api.do(t, "dev", http.MethodPost, "/api/trigger/weekly", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
