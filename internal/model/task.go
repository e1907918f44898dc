package model

import "time"

// Priority orders tasks on the dashboard.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank is lower for more pressing priorities.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// Recurrence is the period after which a completed task comes back.
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

const (
	DefaultCategory = "general"
	DefaultColor    = "#3b5bdb"
)

// Task represents a single to-do item or habit.
type Task struct {
	ID            uint       `gorm:"primaryKey"`
	UserID        uint       `gorm:"index;not null"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE"`
	Content       string     `gorm:"not null"`
	Priority      Priority   `gorm:"size:16;default:normal"`
	Category      string     `gorm:"size:64;index;default:general"`
	Color         string     `gorm:"size:16;default:#3b5bdb"`
	Complete      bool       `gorm:"index;default:false"`
	DueDate       *time.Time `gorm:"index"`
	Recurrence    Recurrence `gorm:"size:16;default:none"`
	IsHabit       bool       `gorm:"index;default:false"`
	LastCompleted *time.Time
	CreatedDate   time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

func (t Task) IsRecurring() bool {
	return t.Recurrence != "" && t.Recurrence != RecurrenceNone
}

// StoredTime normalizes timestamps before they hit the database so that
// text comparisons in SQLite match chronological order.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// StoredTimePtr is StoredTime for optional values.
func StoredTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := StoredTime(*t)
	return &v
}
