package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// dashboardOrder sorts incomplete before complete, then by due date with
// undated tasks last, then urgent > high > normal, then by id.
const dashboardOrder = "complete ASC, due_date IS NULL ASC, due_date ASC, " +
	"CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 ELSE 2 END ASC, id ASC"

// TaskFilter narrows List. Zero values mean "no constraint"; time ranges are
// half-open [From, Before).
type TaskFilter struct {
	UserID          uint
	Complete        *bool
	Category        string
	HabitOnly       bool
	RecurringOnly   bool
	DueFrom         *time.Time
	DueBefore       *time.Time
	CompletedFrom   *time.Time
	CompletedBefore *time.Time
}

// CategoryCount is the per-category completion tally of one owner.
type CategoryCount struct {
	Category  string
	Total     int64
	Completed int64
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	normalize(task)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID loads a task regardless of owner; ownership is checked by callers.
func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	normalize(task)
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Task{}, taskID).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Complete != nil {
		q = q.Where("complete = ?", *filter.Complete)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.HabitOnly {
		q = q.Where("is_habit = ?", true)
	}
	if filter.RecurringOnly {
		q = q.Where("recurrence <> ?", model.RecurrenceNone)
	}
	if filter.DueFrom != nil {
		q = q.Where("due_date >= ?", model.StoredTime(*filter.DueFrom))
	}
	if filter.DueBefore != nil {
		q = q.Where("due_date < ?", model.StoredTime(*filter.DueBefore))
	}
	if filter.CompletedFrom != nil {
		q = q.Where("last_completed >= ?", model.StoredTime(*filter.CompletedFrom))
	}
	if filter.CompletedBefore != nil {
		q = q.Where("last_completed < ?", model.StoredTime(*filter.CompletedBefore))
	}

	var tasks []model.Task
	if err := q.Order(dashboardOrder).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ResetRecurring moves a completed recurring task back to pending with a new
// due date. It only touches the row while it is still complete, so a toggle
// that landed in between wins. It reports whether the row changed.
func (r *TaskRepository) ResetRecurring(ctx context.Context, taskID uint, due time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND complete = ?", taskID, true).
		Updates(map[string]any{
			"complete":       false,
			"last_completed": nil,
			"due_date":       model.StoredTime(due),
		})
	if res.Error != nil {
		return false, fmt.Errorf("reset task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TaskRepository) CategoryCounts(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("category, COUNT(*) AS total, SUM(CASE WHEN complete THEN 1 ELSE 0 END) AS completed").
		Where("user_id = ?", userID).
		Group("category").
		Order("category ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	return counts, nil
}

func normalize(task *model.Task) {
	task.DueDate = model.StoredTimePtr(task.DueDate)
	task.LastCompleted = model.StoredTimePtr(task.LastCompleted)
	if !task.CreatedDate.IsZero() {
		task.CreatedDate = model.StoredTime(task.CreatedDate)
	}
}
