package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpec(t *testing.T) {
	spec, err := buildSpec("08:05", "*")
	require.NoError(t, err)
	assert.Equal(t, "0 5 8 * * *", spec)

	spec, err = buildSpec("20:00", "0")
	require.NoError(t, err)
	assert.Equal(t, "0 0 20 * * 0", spec)

	_, err = buildSpec("25:00", "*")
	assert.Error(t, err)
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	daily, err := s.ScheduleDaily("07:30", func() {})
	require.NoError(t, err)
	weekly, err := s.ScheduleWeekly(time.Sunday, "20:00", func() {})
	require.NoError(t, err)
	assert.NotEqual(t, daily, weekly)

	_, err = s.ScheduleDaily("7.30", func() {})
	assert.Error(t, err)

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return !s.Next(weekly).IsZero() }, time.Second, 10*time.Millisecond)
	next := s.Next(weekly)
	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, 20, next.Hour())
}
