package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

// Triggers are the jobs a developer may fire by hand.
type Triggers interface {
	MorningDigest(ctx context.Context) error
	EveningDigest(ctx context.Context) error
	WeeklyBriefing(ctx context.Context) error
	Rollover(ctx context.Context) (service.RolloverReport, error)
}

type TaskHandler struct {
	tasks *service.TaskService
	stats *service.StatsService
}

func NewTaskHandler(tasks *service.TaskService, stats *service.StatsService) *TaskHandler {
	return &TaskHandler{tasks: tasks, stats: stats}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	user := currentUser(c)
	task, err := h.tasks.CreateTask(c.Request.Context(), user.ID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(*task, h.tasks.Clock()))
}

// List returns the dashboard by default. Any of category, complete, habit or
// recurring switches to a filtered listing.
func (h *TaskHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	filter, filtered, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var list []model.Task
	if filtered {
		list, err = h.tasks.ListTasks(ctx, user.ID, filter)
	} else {
		list, err = h.tasks.ListDashboard(ctx, user.ID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	version, err := h.tasks.Version(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listTasksResponse{Items: tasksToResponses(list, h.tasks.Clock()), Version: version.Version})
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	res, err := h.tasks.EditTask(c.Request.Context(), currentUser(c).ID, id, req.patch())
	if err != nil {
		writeError(c, err)
		return
	}
	rejected := res.Rejected
	if rejected == nil {
		rejected = []service.FieldError{}
	}
	c.JSON(http.StatusOK, editTaskResponse{Task: taskToResponse(*res.Task, h.tasks.Clock()), Rejected: rejected})
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.tasks.ToggleTask(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{
		ID:        res.Task.ID,
		Complete:  res.Complete,
		Priority:  string(res.Priority),
		DateLabel: res.DateLabel,
	})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), currentUser(c).ID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddHistory backfills a habit completion. 201 when written, 200 when the
// day was already recorded.
func (h *TaskHandler) AddHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}
	created, err := h.tasks.AddHistoryForDate(c.Request.Context(), currentUser(c).ID, id, date)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created, "date": date})
}

// Charts returns category completion and the habit grid. The grid covers
// ?month=YYYY-MM, or the last ?days=N days, or the current month.
func (h *TaskHandler) Charts(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	categories, err := h.stats.CategoryCompletion(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	var habits []service.HabitRow
	switch {
	case c.Query("days") != "":
		days, convErr := strconv.Atoi(c.Query("days"))
		if convErr != nil || days < 1 || days > 366 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "days must be between 1 and 366"})
			return
		}
		habits, err = h.stats.HabitGridForWindow(ctx, user.ID, days)
	default:
		month := c.Query("month")
		if month == "" {
			month = h.tasks.Clock().LocalNow().Format("2006-01")
		}
		parsed, parseErr := time.Parse("2006-01", month)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "month must be YYYY-MM"})
			return
		}
		habits, err = h.stats.HabitGridForMonth(ctx, user.ID, parsed.Year(), parsed.Month())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if habits == nil {
		habits = []service.HabitRow{}
	}
	c.JSON(http.StatusOK, chartsResponse{Categories: categories, Habits: habits})
}

func (h *TaskHandler) Version(c *gin.Context) {
	v, err := h.tasks.Version(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, versionResponse{Version: v.Version, UpdatedAt: v.UpdatedAt})
}

type TriggerHandler struct {
	jobs Triggers
}

func NewTriggerHandler(jobs Triggers) *TriggerHandler {
	return &TriggerHandler{jobs: jobs}
}

func (h *TriggerHandler) Morning(c *gin.Context) {
	h.run(c, "morning", h.jobs.MorningDigest)
}

func (h *TriggerHandler) Evening(c *gin.Context) {
	h.run(c, "evening", h.jobs.EveningDigest)
}

func (h *TriggerHandler) Weekly(c *gin.Context) {
	h.run(c, "weekly", h.jobs.WeeklyBriefing)
}

func (h *TriggerHandler) Rollover(c *gin.Context) {
	log.Printf("[info] manual trigger rollover by %s", currentUser(c).Username)
	report, err := h.jobs.Rollover(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checked": report.Checked, "reset": report.Reset, "orphans": report.Orphans})
}

func (h *TriggerHandler) run(c *gin.Context, name string, job func(context.Context) error) {
	log.Printf("[info] manual trigger %s by %s", name, currentUser(c).Username)
	if err := job(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "job": name})
}

func parseFilter(c *gin.Context) (repository.TaskFilter, bool, error) {
	var filter repository.TaskFilter
	filtered := false
	if v := c.Query("category"); v != "" {
		filter.Category = v
		filtered = true
	}
	if v := c.Query("complete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, false, errors.New("complete must be true or false")
		}
		filter.Complete = &b
		filtered = true
	}
	if v := c.Query("habit"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, false, errors.New("habit must be true or false")
		}
		filter.HabitOnly = b
		filtered = true
	}
	if v := c.Query("recurring"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, false, errors.New("recurring must be true or false")
		}
		filter.RecurringOnly = b
		filtered = true
	}
	return filter, filtered, nil
}

func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// writeError maps service errors to status codes. Tasks owned by someone else
// look exactly like missing ones.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		log.Printf("[error] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
