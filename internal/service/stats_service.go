package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// DefaultCategories are always reported, in this order, even when empty.
var DefaultCategories = []string{"general", "work", "personal", "dev", "health"}

// CategoryStat is the completion ratio of one category. Percent is nil when
// the category has no tasks.
type CategoryStat struct {
	Category  string `json:"category"`
	Label     string `json:"label"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Percent   *int   `json:"percent"`
}

// HabitDay is one cell of a habit grid.
type HabitDay struct {
	Date   model.Date `json:"date"`
	Done   bool       `json:"done"`
	Future bool       `json:"is_future"`
}

// HabitRow is one habit across the requested window.
type HabitRow struct {
	TaskID    uint       `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Days      []HabitDay `json:"data"`
	Completed int        `json:"completed"`
}

// StatsService answers the chart endpoints.
type StatsService struct {
	store *repository.Store
	clock Clock
}

func NewStatsService(store *repository.Store, clock Clock) *StatsService {
	return &StatsService{store: store, clock: clock}
}

func (s *StatsService) CategoryCompletion(ctx context.Context, userID uint) ([]CategoryStat, error) {
	counts, err := s.store.Tasks.CategoryCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]repository.CategoryCount, len(counts))
	var extra []string
	for _, c := range counts {
		byName[c.Category] = c
		if !isDefaultCategory(c.Category) {
			extra = append(extra, c.Category)
		}
	}
	sort.Strings(extra)

	names := append(append([]string{}, DefaultCategories...), extra...)
	stats := make([]CategoryStat, 0, len(names))
	for _, name := range names {
		c := byName[name]
		stat := CategoryStat{Category: name, Label: capitalize(name), Total: c.Total, Completed: c.Completed}
		if c.Total > 0 {
			pct := int(c.Completed * 100 / c.Total)
			stat.Percent = &pct
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// HabitGrid lists every habit of the user with one cell per date in
// [from, to]. Dates after today are marked as future.
func (s *StatsService) HabitGrid(ctx context.Context, userID uint, from, to model.Date) ([]HabitRow, error) {
	return habitGrid(ctx, s.store, userID, from, to, s.clock.Today())
}

// HabitGridForMonth is HabitGrid over a whole calendar month.
func (s *StatsService) HabitGridForMonth(ctx context.Context, userID uint, year int, month time.Month) ([]HabitRow, error) {
	from := model.Date{Year: year, Month: month, Day: 1}
	to := model.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return s.HabitGrid(ctx, userID, from, to)
}

// HabitGridForWindow is HabitGrid over the last days days, ending today.
func (s *StatsService) HabitGridForWindow(ctx context.Context, userID uint, days int) ([]HabitRow, error) {
	today := s.clock.Today()
	return s.HabitGrid(ctx, userID, today.AddDays(-(days - 1)), today)
}

func habitGrid(ctx context.Context, store *repository.Store, userID uint, from, to, today model.Date) ([]HabitRow, error) {
	habits, err := store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, HabitOnly: true})
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, nil
	}
	sort.SliceStable(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })

	ids := make([]uint, 0, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	history, err := store.History.ListForTasks(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	done := make(map[uint]map[model.Date]bool, len(habits))
	for _, row := range history {
		if done[row.TaskID] == nil {
			done[row.TaskID] = make(map[model.Date]bool)
		}
		done[row.TaskID][row.CompletedDate] = true
	}

	span := to.DaysSince(from) + 1
	rows := make([]HabitRow, 0, len(habits))
	for _, h := range habits {
		row := HabitRow{TaskID: h.ID, Name: h.Content, Color: h.Color, Days: make([]HabitDay, 0, span)}
		for i := 0; i < span; i++ {
			d := from.AddDays(i)
			cell := HabitDay{Date: d, Done: done[h.ID][d], Future: d.After(today)}
			if cell.Done {
				row.Completed++
			}
			row.Days = append(row.Days, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isDefaultCategory(name string) bool {
	for _, c := range DefaultCategories {
		if c == name {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
