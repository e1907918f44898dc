package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrConflict is returned when a write hits a unique constraint.
var ErrConflict = errors.New("conflict")

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db       *gorm.DB
	Users    *UserRepository
	Tasks    *TaskRepository
	History  *HistoryRepository
	Versions *VersionRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Tasks:    NewTaskRepository(db),
		History:  NewHistoryRepository(db),
		Versions: NewVersionRepository(db),
	}
}

// Atomic runs fn in a single transaction. Repositories on the Store passed to
// fn are bound to that transaction; fn must not use the outer Store.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}
