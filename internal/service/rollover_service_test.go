package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

func TestRollover(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")
	svc := NewRolloverService(s, FixedClock(testNow))
	today := model.DateOf(testNow)

	daily := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "meditate", Recurrence: model.RecurrenceDaily, IsHabit: true,
		Complete: true, LastCompleted: ptr(at(19, 21, 0)), DueDate: ptr(at(19, 7, 30)),
	})
	require.NoError(t, s.History.Insert(ctx, daily.ID, user.ID, today.AddDays(-1)))

	weekly := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "plan week", Recurrence: model.RecurrenceWeekly,
		Complete: true, LastCompleted: ptr(at(14, 10, 0)), DueDate: ptr(at(14, 9, 0)),
	})
	undated := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "water plants", Recurrence: model.RecurrenceDaily,
		Complete: true, LastCompleted: ptr(at(18, 10, 0)),
	})
	doneToday := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "stretch", Recurrence: model.RecurrenceDaily,
		Complete: true, LastCompleted: ptr(at(20, 6, 0)), DueDate: ptr(at(20, 6, 0)),
	})
	oneOff := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "renew passport",
		Complete: true, LastCompleted: ptr(at(10, 10, 0)),
	})

	report, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 3, report.Reset)
	assert.Zero(t, report.Orphans)

	got := reload(t, s, daily.ID)
	assert.False(t, got.Complete)
	assert.Nil(t, got.LastCompleted)
	require.NotNil(t, got.DueDate)
	assert.True(t, at(20, 7, 30).Equal(*got.DueDate), "daily keeps its time of day: %s", got.DueDate)

	got = reload(t, s, weekly.ID)
	assert.False(t, got.Complete)
	require.NotNil(t, got.DueDate)
	assert.True(t, at(21, 9, 0).Equal(*got.DueDate), "weekly moves by whole weeks: %s", got.DueDate)

	got = reload(t, s, undated.ID)
	require.NotNil(t, got.DueDate)
	assert.True(t, at(20, 0, 0).Equal(*got.DueDate))

	assert.True(t, reload(t, s, doneToday.ID).Complete)
	assert.True(t, reload(t, s, oneOff.ID).Complete)

	exists, err := s.History.Exists(ctx, daily.ID, today.AddDays(-1))
	require.NoError(t, err)
	assert.True(t, exists, "rollover keeps habit history")

	v, err := s.Versions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Version)
}

func TestRolloverIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")
	svc := NewRolloverService(s, FixedClock(testNow))

	task := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "floss", Recurrence: model.RecurrenceDaily,
		Complete: true, LastCompleted: ptr(at(19, 22, 0)), DueDate: ptr(at(19, 22, 0)),
	})

	first, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reset)
	afterFirst := reload(t, s, task.ID)

	second, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Checked)
	assert.Zero(t, second.Reset)

	afterSecond := reload(t, s, task.ID)
	assert.Equal(t, afterFirst.Complete, afterSecond.Complete)
	assert.True(t, afterFirst.DueDate.Equal(*afterSecond.DueDate))

	v, err := s.Versions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Version)
}

func TestRolloverUsesConfiguredZone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")

	// 00:30 on the 20th in UTC+2 is still the 19th in UTC.
	loc := time.FixedZone("EET", 2*3600)
	now := time.Date(2026, time.January, 20, 0, 30, 0, 0, loc)
	svc := NewRolloverService(s, FixedClock(now))

	task := seedTask(t, s, model.Task{
		UserID: user.ID, Content: "journal", Recurrence: model.RecurrenceDaily,
		Complete: true, LastCompleted: ptr(time.Date(2026, time.January, 19, 23, 0, 0, 0, loc)),
	})

	report, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reset)

	got := reload(t, s, task.ID)
	require.NotNil(t, got.DueDate)
	assert.True(t, time.Date(2026, time.January, 20, 0, 0, 0, 0, loc).Equal(*got.DueDate))
}

func TestNextDueDate(t *testing.T) {
	today := model.DateOf(testNow)

	daily := model.Task{Recurrence: model.RecurrenceDaily, DueDate: ptr(at(3, 18, 45))}
	assert.True(t, at(20, 18, 45).Equal(NextDueDate(daily, today, time.UTC)))

	weeklyFar := model.Task{Recurrence: model.RecurrenceWeekly, DueDate: ptr(at(1, 8, 0))}
	assert.True(t, at(22, 8, 0).Equal(NextDueDate(weeklyFar, today, time.UTC)))

	weeklyExact := model.Task{Recurrence: model.RecurrenceWeekly, DueDate: ptr(at(13, 8, 0))}
	assert.True(t, at(20, 8, 0).Equal(NextDueDate(weeklyExact, today, time.UTC)))

	weeklyUndated := model.Task{Recurrence: model.RecurrenceWeekly}
	assert.True(t, at(20, 0, 0).Equal(NextDueDate(weeklyUndated, today, time.UTC)))
}
