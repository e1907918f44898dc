package httpapi

import (
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

type createTaskRequest struct {
	Content    string `json:"content"`
	Priority   string `json:"priority"`
	Category   string `json:"category"`
	Color      string `json:"color"`
	Recurrence string `json:"recurrence"`
	IsHabit    bool   `json:"is_habit"`
	DueDate    string `json:"due_date"`
}

func (r createTaskRequest) input() service.TaskInput {
	return service.TaskInput{
		Content:    r.Content,
		Priority:   model.Priority(r.Priority),
		Category:   r.Category,
		Color:      r.Color,
		Recurrence: model.Recurrence(r.Recurrence),
		IsHabit:    r.IsHabit,
		DueDate:    r.DueDate,
	}
}

// updateTaskRequest mirrors service.TaskPatch; absent keys stay nil.
type updateTaskRequest struct {
	Content    *string `json:"content"`
	Priority   *string `json:"priority"`
	Category   *string `json:"category"`
	Color      *string `json:"color"`
	Recurrence *string `json:"recurrence"`
	IsHabit    *bool   `json:"is_habit"`
	DueDate    *string `json:"due_date"`
}

func (r updateTaskRequest) patch() service.TaskPatch {
	p := service.TaskPatch{
		Content:  r.Content,
		Category: r.Category,
		Color:    r.Color,
		IsHabit:  r.IsHabit,
		DueDate:  r.DueDate,
	}
	if r.Priority != nil {
		v := model.Priority(*r.Priority)
		p.Priority = &v
	}
	if r.Recurrence != nil {
		v := model.Recurrence(*r.Recurrence)
		p.Recurrence = &v
	}
	return p
}

type historyRequest struct {
	Date string `json:"date" binding:"required"`
}

type taskResponse struct {
	ID            uint       `json:"id"`
	Content       string     `json:"content"`
	Priority      string     `json:"priority"`
	Category      string     `json:"category"`
	Color         string     `json:"color"`
	Complete      bool       `json:"complete"`
	DueDate       *time.Time `json:"due_date"`
	DateLabel     string     `json:"date_label"`
	Recurrence    string     `json:"recurrence"`
	IsHabit       bool       `json:"is_habit"`
	LastCompleted *time.Time `json:"last_completed"`
	CreatedDate   time.Time  `json:"created_date"`
}

type listTasksResponse struct {
	Items   []taskResponse `json:"items"`
	Version int64          `json:"version"`
}

type editTaskResponse struct {
	Task     taskResponse         `json:"task"`
	Rejected []service.FieldError `json:"rejected"`
}

type toggleResponse struct {
	ID        uint   `json:"id"`
	Complete  bool   `json:"complete"`
	Priority  string `json:"priority"`
	DateLabel string `json:"date_label"`
}

type chartsResponse struct {
	Categories []service.CategoryStat `json:"categories"`
	Habits     []service.HabitRow     `json:"habits"`
}

type versionResponse struct {
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

func taskToResponse(t model.Task, clock service.Clock) taskResponse {
	loc := clock.Location()
	resp := taskResponse{
		ID:          t.ID,
		Content:     t.Content,
		Priority:    string(t.Priority),
		Category:    t.Category,
		Color:       t.Color,
		Complete:    t.Complete,
		DateLabel:   service.DueLabel(t.DueDate, clock.Today(), loc),
		Recurrence:  string(t.Recurrence),
		IsHabit:     t.IsHabit,
		CreatedDate: t.CreatedDate.In(loc),
	}
	if t.DueDate != nil {
		v := t.DueDate.In(loc)
		resp.DueDate = &v
	}
	if t.LastCompleted != nil {
		v := t.LastCompleted.In(loc)
		resp.LastCompleted = &v
	}
	return resp
}

func tasksToResponses(list []model.Task, clock service.Clock) []taskResponse {
	out := make([]taskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i], clock)
	}
	return out
}
