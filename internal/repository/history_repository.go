package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-tracker/internal/model"
)

// HistoryRepository stores per-date habit completions.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert adds a row for (task, date). When the row already exists nothing is
// written and ErrConflict is returned.
func (r *HistoryRepository) Insert(ctx context.Context, taskID, userID uint, date model.Date) error {
	row := model.TaskHistory{TaskID: taskID, UserID: userID, CompletedDate: date}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "completed_date"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return fmt.Errorf("insert history: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *HistoryRepository) Exists(ctx context.Context, taskID uint, date model.Date) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskHistory{}).
		Where("task_id = ? AND completed_date = ?", taskID, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check history: %w", err)
	}
	return count > 0, nil
}

func (r *HistoryRepository) DeleteForDate(ctx context.Context, taskID uint, date model.Date) error {
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND completed_date = ?", taskID, date).
		Delete(&model.TaskHistory{}).Error
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) DeleteForTask(ctx context.Context, taskID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.TaskHistory{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete task history: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListForTasks returns rows for the given tasks with from <= date <= to,
// ordered by task then date.
func (r *HistoryRepository) ListForTasks(ctx context.Context, taskIDs []uint, from, to model.Date) ([]model.TaskHistory, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	var rows []model.TaskHistory
	err := r.db.WithContext(ctx).
		Where("task_id IN ? AND completed_date >= ? AND completed_date <= ?", taskIDs, from, to).
		Order("task_id ASC, completed_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return rows, nil
}

func (r *HistoryRepository) CountForTask(ctx context.Context, taskID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.TaskHistory{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}

// DeleteOrphans removes rows whose task no longer exists. The foreign key
// cascade keeps new orphans from appearing; this cleans up older databases.
func (r *HistoryRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("task_id NOT IN (?)", r.db.Model(&model.Task{}).Select("id")).
		Delete(&model.TaskHistory{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete orphan history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
