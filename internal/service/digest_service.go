package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"habit-tracker/internal/model"
	"habit-tracker/internal/render"
	"habit-tracker/internal/repository"
)

// Digest is a composed message. Image, when set, is a PNG to send with Text
// as its caption. Empty marks the "nothing to report" fallback.
type Digest struct {
	Text  string
	Image []byte
	Empty bool
}

// DigestService builds human-readable summaries for scheduled notifications.
type DigestService struct {
	store       *repository.Store
	clock       Clock
	habitWindow int
}

func NewDigestService(store *repository.Store, clock Clock, habitWindow int) *DigestService {
	if habitWindow < 1 {
		habitWindow = 7
	}
	return &DigestService{store: store, clock: clock, habitWindow: habitWindow}
}

// MorningDigest lists overdue tasks first, then tasks due today.
func (s *DigestService) MorningDigest(ctx context.Context, userID uint) (Digest, error) {
	today := s.clock.Today()
	start, end := s.clock.DayBounds(today)
	pending := false

	overdue, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, Complete: &pending, DueBefore: &start})
	if err != nil {
		return Digest{}, err
	}
	dueToday, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, Complete: &pending, DueFrom: &start, DueBefore: &end})
	if err != nil {
		return Digest{}, err
	}

	if len(overdue) == 0 && len(dueToday) == 0 {
		return Digest{Text: "☀️ <b>Good morning!</b>\nNothing scheduled for today.", Empty: true}, nil
	}

	var b strings.Builder
	b.WriteString(previewLine(append(append([]model.Task{}, overdue...), dueToday...), "🌅", "Today's Agenda"))
	if len(overdue) > 0 {
		b.WriteString(fmt.Sprintf("\n\n⚠️ <b>Overdue (%d)</b>\n", len(overdue)))
		for _, t := range overdue {
			b.WriteString(fmt.Sprintf("• %s — %s\n", escape(t.Content), DueLabel(t.DueDate, today, s.clock.Location())))
		}
	}
	if len(dueToday) > 0 {
		b.WriteString(fmt.Sprintf("\n\n📌 <b>Due today (%d)</b>\n", len(dueToday)))
		for _, t := range dueToday {
			b.WriteString(fmt.Sprintf("• %s%s\n", escape(t.Content), s.timeSuffix(t)))
		}
	}
	return Digest{Text: tidy(b.String())}, nil
}

// EveningDigest reports what was completed today and what is planned for
// tomorrow (open tasks plus recurring ones).
func (s *DigestService) EveningDigest(ctx context.Context, userID uint) (Digest, error) {
	today := s.clock.Today()
	start, end := s.clock.DayBounds(today)
	_, tomorrowEnd := s.clock.DayBounds(today.AddDays(1))

	achieved, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, CompletedFrom: &start, CompletedBefore: &end})
	if err != nil {
		return Digest{}, err
	}
	dueTomorrow, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, DueFrom: &end, DueBefore: &tomorrowEnd})
	if err != nil {
		return Digest{}, err
	}
	focus := dueTomorrow[:0:0]
	for _, t := range dueTomorrow {
		if !t.Complete || t.IsRecurring() {
			focus = append(focus, t)
		}
	}

	if len(achieved) == 0 && len(focus) == 0 {
		return Digest{Text: "🌙 <b>Good night!</b>\nNothing completed today and nothing planned for tomorrow.", Empty: true}, nil
	}

	var b strings.Builder
	b.WriteString(previewLine(focus, "🌙", "Tomorrow's Plan"))
	if len(focus) == 0 {
		b.Reset()
		b.WriteString("🌙 <b>Daily summary</b>")
	}
	if len(achieved) > 0 {
		b.WriteString(fmt.Sprintf("\n\n✅ <b>Achieved today (%d)</b>\n", len(achieved)))
		for _, t := range achieved {
			b.WriteString(fmt.Sprintf("• %s\n", escape(t.Content)))
		}
	}
	if len(focus) > 0 {
		b.WriteString(fmt.Sprintf("\n\n🎯 <b>Tomorrow's focus (%d)</b>\n", len(focus)))
		for _, t := range focus {
			marker := ""
			if t.IsRecurring() {
				marker = " ♻️"
			}
			b.WriteString(fmt.Sprintf("• %s%s%s\n", escape(t.Content), s.timeSuffix(t), marker))
		}
	}
	return Digest{Text: tidy(b.String())}, nil
}

// WeeklyBriefing summarizes habit consistency over the configured window and
// the open tasks due in the coming week. A PNG grid of the habits is attached
// when rendering succeeds.
func (s *DigestService) WeeklyBriefing(ctx context.Context, userID uint) (Digest, error) {
	today := s.clock.Today()
	from := today.AddDays(-(s.habitWindow - 1))

	rows, err := habitGrid(ctx, s.store, userID, from, today, today)
	if err != nil {
		return Digest{}, err
	}

	_, upcomingFrom := s.clock.DayBounds(today)
	_, upcomingTo := s.clock.DayBounds(today.AddDays(7))
	pending := false
	upcoming, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, Complete: &pending, DueFrom: &upcomingFrom, DueBefore: &upcomingTo})
	if err != nil {
		return Digest{}, err
	}

	_, week := today.AddDays(7).In(s.clock.Location()).ISOWeek()
	header := fmt.Sprintf("📅 <b>Weekly Briefing — Week %d</b>", week)

	if len(rows) == 0 && len(upcoming) == 0 {
		return Digest{Text: header + "\nNothing to show this week. Add a habit to start tracking.", Empty: true}, nil
	}

	var b strings.Builder
	b.WriteString(header)

	b.WriteString(fmt.Sprintf("\n\n🔥 <b>Habits, last %d days</b>\n", s.habitWindow))
	if len(rows) == 0 {
		b.WriteString("— no habits tracked yet\n")
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("<code>%s</code> %s %d/%d\n", gridLine(row), escape(row.Name), row.Completed, len(row.Days)))
	}

	if len(upcoming) > 0 {
		b.WriteString("\n🗓 <b>Coming up</b>\n")
		currentDay := ""
		for _, t := range upcoming {
			day := t.DueDate.In(s.clock.Location()).Format("Monday")
			if day != currentDay {
				b.WriteString(fmt.Sprintf("<i>%s</i>\n", day))
				currentDay = day
			}
			b.WriteString(fmt.Sprintf("• %s\n", escape(t.Content)))
		}
	}

	digest := Digest{Text: tidy(b.String())}
	if len(rows) > 0 {
		img, err := render.HabitGrid(renderRows(rows))
		if err != nil {
			log.Printf("[warn] weekly briefing grid: %v", err)
		} else {
			digest.Image = img
		}
	}
	return digest, nil
}

func (s *DigestService) timeSuffix(t model.Task) string {
	if t.DueDate == nil {
		return ""
	}
	local := t.DueDate.In(s.clock.Location())
	if local.Hour() == 0 && local.Minute() == 0 {
		return ""
	}
	return " · " + local.Format("15:04")
}

// previewLine puts the first task up front so chat previews show it:
// "Buy milk (+2) :: 🌅 Today's Agenda".
func previewLine(tasks []model.Task, emoji, label string) string {
	if len(tasks) == 0 {
		return fmt.Sprintf("%s %s", emoji, label)
	}
	first := escape(tasks[0].Content)
	if len(tasks) > 1 {
		first = fmt.Sprintf("%s (+%d)", first, len(tasks)-1)
	}
	return fmt.Sprintf("%s :: %s %s", first, emoji, label)
}

func gridLine(row HabitRow) string {
	var b strings.Builder
	for _, d := range row.Days {
		switch {
		case d.Done:
			b.WriteString("■")
		case d.Future:
			b.WriteString("·")
		default:
			b.WriteString("□")
		}
	}
	return b.String()
}

func renderRows(rows []HabitRow) []render.Row {
	out := make([]render.Row, 0, len(rows))
	for _, row := range rows {
		r := render.Row{Color: row.Color, Cells: make([]render.Cell, 0, len(row.Days))}
		for _, d := range row.Days {
			r.Cells = append(r.Cells, render.Cell{Done: d.Done, Future: d.Future})
		}
		out = append(out, r)
	}
	return out
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func tidy(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n\n\n", "\n\n"))
}

// UrgentOverdue returns open urgent tasks whose deadline has passed.
func (s *DigestService) UrgentOverdue(ctx context.Context, userID uint) ([]model.Task, error) {
	pending := false
	now := s.clock.Now().UTC()
	tasks, err := s.store.Tasks.List(ctx, repository.TaskFilter{UserID: userID, Complete: &pending, DueBefore: &now})
	if err != nil {
		return nil, err
	}
	urgent := tasks[:0]
	for _, t := range tasks {
		if t.Priority == model.PriorityUrgent {
			urgent = append(urgent, t)
		}
	}
	return urgent, nil
}
