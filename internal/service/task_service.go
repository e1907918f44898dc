package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Content    string
	Priority   model.Priority
	Category   string
	Color      string
	Recurrence model.Recurrence
	IsHabit    bool
	// DueDate is the raw user value; empty means no deadline.
	DueDate string
}

// TaskPatch is a partial update. Nil fields are left alone; an empty DueDate
// clears the deadline.
type TaskPatch struct {
	Content    *string
	Priority   *model.Priority
	Category   *string
	Color      *string
	Recurrence *model.Recurrence
	IsHabit    *bool
	DueDate    *string
}

// EditResult carries the saved task and the fields that were not applied.
type EditResult struct {
	Task     *model.Task
	Rejected []FieldError
}

// ToggleResult is what the dashboard needs to redraw a row.
type ToggleResult struct {
	Task      *model.Task
	Complete  bool
	Priority  model.Priority
	DateLabel string
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var dueDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	model.DateLayout,
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store *repository.Store
	clock Clock
}

func NewTaskService(store *repository.Store, clock Clock) *TaskService {
	return &TaskService{store: store, clock: clock}
}

// ParseDueDate reads a user-supplied due date in loc.
func ParseDueDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	verr := &ValidationError{}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		verr.add("content", "is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityNormal
	} else if !priority.Valid() {
		verr.add("priority", fmt.Sprintf("unknown priority %q", priority))
	}
	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceNone
	} else if !recurrence.Valid() {
		verr.add("recurrence", fmt.Sprintf("unknown recurrence %q", recurrence))
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = model.DefaultColor
	} else if !colorPattern.MatchString(color) {
		verr.add("color", "expected #rrggbb")
	}
	var due *time.Time
	if strings.TrimSpace(input.DueDate) != "" {
		parsed, err := ParseDueDate(input.DueDate, s.clock.Location())
		if err != nil {
			verr.add("due_date", err.Error())
		} else {
			due = &parsed
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:      userID,
		Content:     content,
		Priority:    priority,
		Category:    category,
		Color:       color,
		Recurrence:  recurrence,
		IsHabit:     input.IsHabit,
		DueDate:     due,
		CreatedDate: s.clock.Now(),
	}

	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		if err := tx.Tasks.Create(ctx, &task); err != nil {
			return err
		}
		return tx.Versions.Bump(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] task created id=%d user=%d recurrence=%s habit=%t", task.ID, userID, task.Recurrence, task.IsHabit)
	return &task, nil
}

// EditTask applies every valid field of patch and reports the rest. A bad due
// date never blocks a good content change in the same request.
func (s *TaskService) EditTask(ctx context.Context, userID, taskID uint, patch TaskPatch) (*EditResult, error) {
	result := &EditResult{}
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		task, err := loadOwned(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}

		rejected := &ValidationError{}
		changed := s.applyPatch(task, patch, rejected)
		result.Task = task
		result.Rejected = rejected.Fields

		if !changed {
			return nil
		}
		if err := tx.Tasks.Save(ctx, task); err != nil {
			return err
		}
		return tx.Versions.Bump(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	if len(result.Rejected) > 0 {
		log.Printf("[warn] task %d edit rejected fields: %v", taskID, result.Rejected)
	}
	return result, nil
}

func (s *TaskService) applyPatch(task *model.Task, patch TaskPatch, rejected *ValidationError) bool {
	changed := false

	if patch.Content != nil {
		if v := strings.TrimSpace(*patch.Content); v == "" {
			rejected.add("content", "must not be empty")
		} else {
			task.Content = v
			changed = true
		}
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			rejected.add("priority", fmt.Sprintf("unknown priority %q", *patch.Priority))
		} else {
			task.Priority = *patch.Priority
			changed = true
		}
	}
	if patch.Category != nil {
		if v := strings.TrimSpace(*patch.Category); v == "" {
			task.Category = model.DefaultCategory
		} else {
			task.Category = v
		}
		changed = true
	}
	if patch.Color != nil {
		if !colorPattern.MatchString(strings.TrimSpace(*patch.Color)) {
			rejected.add("color", "expected #rrggbb")
		} else {
			task.Color = strings.TrimSpace(*patch.Color)
			changed = true
		}
	}
	if patch.Recurrence != nil {
		if !patch.Recurrence.Valid() {
			rejected.add("recurrence", fmt.Sprintf("unknown recurrence %q", *patch.Recurrence))
		} else {
			task.Recurrence = *patch.Recurrence
			changed = true
		}
	}
	if patch.IsHabit != nil {
		task.IsHabit = *patch.IsHabit
		changed = true
	}
	if patch.DueDate != nil {
		if strings.TrimSpace(*patch.DueDate) == "" {
			task.DueDate = nil
			changed = true
		} else if parsed, err := ParseDueDate(*patch.DueDate, s.clock.Location()); err != nil {
			rejected.add("due_date", err.Error())
		} else {
			task.DueDate = &parsed
			changed = true
		}
	}
	return changed
}

// DeleteTask removes a task and its history.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return s.store.Atomic(ctx, func(tx *repository.Store) error {
		if _, err := loadOwned(ctx, tx, userID, taskID); err != nil {
			return err
		}
		removed, err := tx.History.DeleteForTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := tx.Tasks.Delete(ctx, taskID); err != nil {
			return err
		}
		log.Printf("[info] task deleted id=%d user=%d history=%d", taskID, userID, removed)
		return tx.Versions.Bump(ctx, userID)
	})
}

// ToggleTask flips completion. Each call flips again, so callers must not
// retry blindly; the habit history side is idempotent.
func (s *TaskService) ToggleTask(ctx context.Context, userID, taskID uint) (*ToggleResult, error) {
	return s.setCompletion(ctx, userID, taskID, func(task *model.Task) bool { return !task.Complete })
}

// CompleteTask marks a task done; a task that is already done is left as is.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uint) (*ToggleResult, error) {
	return s.setCompletion(ctx, userID, taskID, func(*model.Task) bool { return true })
}

func (s *TaskService) setCompletion(ctx context.Context, userID, taskID uint, target func(*model.Task) bool) (*ToggleResult, error) {
	now := s.clock.Now()
	today := s.clock.Today()

	var task *model.Task
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		var err error
		task, err = loadOwned(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}

		want := target(task)
		if want == task.Complete {
			return nil
		}

		task.Complete = want
		if want {
			task.LastCompleted = &now
		} else {
			task.LastCompleted = nil
		}
		if err := tx.Tasks.Save(ctx, task); err != nil {
			return err
		}

		if task.IsHabit {
			if want {
				if err := recordHistory(ctx, tx, task, today); err != nil {
					return err
				}
			} else if err := tx.History.DeleteForDate(ctx, task.ID, today); err != nil {
				return err
			}
		}
		return tx.Versions.Bump(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	return &ToggleResult{
		Task:      task,
		Complete:  task.Complete,
		Priority:  task.Priority,
		DateLabel: DueLabel(task.DueDate, today, s.clock.Location()),
	}, nil
}

// AddHistoryForDate backfills a completion for any date. It reports whether a
// row was written; an existing row is not an error.
func (s *TaskService) AddHistoryForDate(ctx context.Context, userID, taskID uint, date model.Date) (bool, error) {
	if date.IsZero() {
		return false, &ValidationError{Fields: []FieldError{{Field: "date", Reason: "is required"}}}
	}
	created := false
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		task, err := loadOwned(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}
		err = tx.History.Insert(ctx, task.ID, task.UserID, date)
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		if err != nil {
			return err
		}
		created = true
		return tx.Versions.Bump(ctx, userID)
	})
	return created, err
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	return loadOwned(ctx, s.store, userID, taskID)
}

// ListDashboard returns what the dashboard shows: open tasks, recurring
// tasks, and one-off tasks completed today, in dashboard order.
func (s *TaskService) ListDashboard(ctx context.Context, userID uint) ([]model.Task, error) {
	tasks, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	todayStart, _ := s.clock.DayBounds(s.clock.Today())
	visible := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		switch {
		case !task.Complete, task.IsRecurring():
			visible = append(visible, task)
		case task.LastCompleted != nil && !task.LastCompleted.Before(todayStart):
			visible = append(visible, task)
		}
	}
	return visible, nil
}

// ListTasks runs an owner-scoped filtered query.
func (s *TaskService) ListTasks(ctx context.Context, userID uint, filter repository.TaskFilter) ([]model.Task, error) {
	filter.UserID = userID
	return s.store.Tasks.List(ctx, filter)
}

// Version returns the user's change counter.
func (s *TaskService) Version(ctx context.Context, userID uint) (model.StateVersion, error) {
	return s.store.Versions.Get(ctx, userID)
}

// Clock exposes the service clock to presentation layers.
func (s *TaskService) Clock() Clock {
	return s.clock
}

func loadOwned(ctx context.Context, store *repository.Store, userID, taskID uint) (*model.Task, error) {
	task, err := store.Tasks.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrUnauthorized
	}
	return task, nil
}

func recordHistory(ctx context.Context, tx *repository.Store, task *model.Task, date model.Date) error {
	err := tx.History.Insert(ctx, task.ID, task.UserID, date)
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}
