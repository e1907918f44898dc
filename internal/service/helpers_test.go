package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// testNow is a Tuesday.
var testNow = time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

func seedUser(t *testing.T, s *repository.Store, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "x", Role: model.RoleGuest}
	require.NoError(t, s.Users.Create(context.Background(), user))
	return user
}

// seedTask writes a task straight through the repository, bypassing
// validation, so tests can set up states the service would not produce.
func seedTask(t *testing.T, s *repository.Store, task model.Task) *model.Task {
	t.Helper()
	if task.Priority == "" {
		task.Priority = model.PriorityNormal
	}
	if task.Recurrence == "" {
		task.Recurrence = model.RecurrenceNone
	}
	if task.Category == "" {
		task.Category = model.DefaultCategory
	}
	if task.Color == "" {
		task.Color = model.DefaultColor
	}
	if task.CreatedDate.IsZero() {
		task.CreatedDate = testNow.AddDate(0, 0, -30)
	}
	require.NoError(t, s.Tasks.Create(context.Background(), &task))
	return &task
}

func reload(t *testing.T, s *repository.Store, id uint) *model.Task {
	t.Helper()
	task, err := s.Tasks.FindByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.January, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

type recordingNotifier struct {
	texts  []string
	photos []string
	images [][]byte
}

func (n *recordingNotifier) Notify(text string) {
	n.texts = append(n.texts, text)
}

func (n *recordingNotifier) NotifyWithImage(caption string, image []byte) {
	n.photos = append(n.photos, caption)
	n.images = append(n.images, image)
}

type recordingAlerter struct {
	ids []uint
	err error
}

func (a *recordingAlerter) SendTaskAlert(_ context.Context, task model.Task) error {
	if a.err != nil {
		return a.err
	}
	a.ids = append(a.ids, task.ID)
	return nil
}
