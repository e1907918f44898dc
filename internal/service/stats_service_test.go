package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

func TestCategoryCompletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")
	svc := NewStatsService(s, FixedClock(testNow))

	seedTask(t, s, model.Task{UserID: user.ID, Content: "a", Category: "work", Complete: true, LastCompleted: ptr(at(19, 9, 0))})
	seedTask(t, s, model.Task{UserID: user.ID, Content: "b", Category: "work"})
	seedTask(t, s, model.Task{UserID: user.ID, Content: "c", Category: "garden"})
	seedTask(t, s, model.Task{UserID: user.ID, Content: "d", Category: "bills"})

	stats, err := svc.CategoryCompletion(ctx, user.ID)
	require.NoError(t, err)

	names := make([]string, 0, len(stats))
	for _, st := range stats {
		names = append(names, st.Category)
	}
	assert.Equal(t, []string{"general", "work", "personal", "dev", "health", "bills", "garden"}, names)

	byName := map[string]CategoryStat{}
	for _, st := range stats {
		byName[st.Category] = st
	}
	assert.Nil(t, byName["general"].Percent, "empty category has no ratio")
	require.NotNil(t, byName["work"].Percent)
	assert.Equal(t, 50, *byName["work"].Percent)
	assert.Equal(t, "Work", byName["work"].Label)
	require.NotNil(t, byName["garden"].Percent)
	assert.Equal(t, 0, *byName["garden"].Percent)
}

func TestHabitGridForMonth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")
	svc := NewStatsService(s, FixedClock(testNow))

	habit := seedTask(t, s, model.Task{UserID: user.ID, Content: "run", IsHabit: true})
	seedTask(t, s, model.Task{UserID: user.ID, Content: "not a habit"})
	for _, day := range []int{1, 2, 20} {
		require.NoError(t, s.History.Insert(ctx, habit.ID, user.ID, model.Date{Year: 2026, Month: time.January, Day: day}))
	}
	require.NoError(t, s.History.Insert(ctx, habit.ID, user.ID, model.Date{Year: 2025, Month: time.December, Day: 31}))

	rows, err := svc.HabitGridForMonth(ctx, user.ID, 2026, time.January)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, habit.ID, row.TaskID)
	assert.Equal(t, "run", row.Name)
	require.Len(t, row.Days, 31)
	assert.Equal(t, 3, row.Completed)
	assert.True(t, row.Days[0].Done)
	assert.False(t, row.Days[2].Done)
	assert.True(t, row.Days[19].Done)
	assert.False(t, row.Days[19].Future)
	assert.True(t, row.Days[20].Future)
	assert.True(t, row.Days[30].Future)
}

func TestHabitGridForWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "owner")
	svc := NewStatsService(s, FixedClock(testNow))

	rows, err := svc.HabitGridForWindow(ctx, user.ID, 7)
	require.NoError(t, err)
	assert.Empty(t, rows)

	seedTask(t, s, model.Task{UserID: user.ID, Content: "floss", IsHabit: true})
	rows, err = svc.HabitGridForWindow(ctx, user.ID, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Days, 7)
	assert.Equal(t, model.Date{Year: 2026, Month: time.January, Day: 14}, rows[0].Days[0].Date)
	assert.Equal(t, model.DateOf(testNow), rows[0].Days[6].Date)
}
