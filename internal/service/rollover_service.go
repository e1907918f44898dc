package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// RolloverReport summarizes one rollover run.
type RolloverReport struct {
	Checked int
	Reset   int
	Orphans int64
}

// RolloverService brings completed recurring tasks back once their
// completion day has passed.
//
// A task is reset when it is complete, recurring, and its last completion
// falls on a calendar day before today. Daily tasks become due today at their
// original time of day; weekly tasks move forward by whole weeks until they
// are due today or later. History rows of live tasks are never touched; rows
// left behind by deleted tasks are purged.
type RolloverService struct {
	store *repository.Store
	clock Clock
}

func NewRolloverService(store *repository.Store, clock Clock) *RolloverService {
	return &RolloverService{store: store, clock: clock}
}

func (s *RolloverService) Rollover(ctx context.Context) (RolloverReport, error) {
	var report RolloverReport
	today := s.clock.Today()
	complete := true

	tasks, err := s.store.Tasks.List(ctx, repository.TaskFilter{Complete: &complete, RecurringOnly: true})
	if err != nil {
		return report, fmt.Errorf("list recurring: %w", err)
	}

	for _, task := range tasks {
		report.Checked++
		if !s.isStale(task, today) {
			continue
		}
		due := NextDueDate(task, today, s.clock.Location())

		var changed bool
		err := s.store.Atomic(ctx, func(tx *repository.Store) error {
			var err error
			changed, err = tx.Tasks.ResetRecurring(ctx, task.ID, due)
			if err != nil || !changed {
				return err
			}
			return tx.Versions.Bump(ctx, task.UserID)
		})
		if err != nil {
			return report, fmt.Errorf("reset task %d: %w", task.ID, err)
		}
		if changed {
			report.Reset++
			log.Printf("[info] rollover task=%d recurrence=%s due=%s", task.ID, task.Recurrence, due.In(s.clock.Location()).Format("2006-01-02 15:04"))
		}
	}

	orphans, err := s.store.History.DeleteOrphans(ctx)
	if err != nil {
		return report, err
	}
	report.Orphans = orphans
	return report, nil
}

func (s *RolloverService) isStale(task model.Task, today model.Date) bool {
	if task.LastCompleted == nil {
		// Complete without a completion time predates the invariant; treat it as stale.
		return true
	}
	return s.clock.DateOf(*task.LastCompleted).Before(today)
}

// NextDueDate computes the due date a recurring task gets when it rolls over
// on today.
func NextDueDate(task model.Task, today model.Date, loc *time.Location) time.Time {
	if task.DueDate == nil {
		return today.In(loc)
	}
	prev := task.DueDate.In(loc)
	atToday := time.Date(today.Year, today.Month, today.Day, prev.Hour(), prev.Minute(), prev.Second(), 0, loc)

	if task.Recurrence != model.RecurrenceWeekly {
		return atToday
	}

	next := prev.AddDate(0, 0, 7)
	for model.DateOf(next).Before(today) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
