package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-tracker/internal/model"
)

// VersionRepository keeps the per-user change counter.
type VersionRepository struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Bump increments the user's version. Call it inside the mutation's transaction.
func (r *VersionRepository) Bump(ctx context.Context, userID uint) error {
	row := model.StateVersion{UserID: userID, Version: 1, UpdatedAt: model.StoredTime(time.Now())}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"version":    gorm.Expr("state_versions.version + 1"),
				"updated_at": row.UpdatedAt,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("bump version: %w", err)
	}
	return nil
}

// Get returns the user's version, zero if nothing was ever changed.
func (r *VersionRepository) Get(ctx context.Context, userID uint) (model.StateVersion, error) {
	var v model.StateVersion
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StateVersion{UserID: userID}, nil
	}
	if err != nil {
		return model.StateVersion{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}
