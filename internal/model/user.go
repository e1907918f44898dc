package model

import "time"

const (
	RoleGuest = "guest"
	RoleDev   = "dev"
	RoleAdmin = "admin"
)

// User owns tasks and their history.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	Username     string  `gorm:"size:100;uniqueIndex;not null"`
	Email        *string `gorm:"size:255;uniqueIndex"`
	PasswordHash string  `gorm:"size:200;not null"`
	Role         string  `gorm:"size:50;default:guest"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanTrigger reports whether the user may fire scheduled jobs by hand.
func (u User) CanTrigger() bool {
	return u.Role == RoleDev || u.Role == RoleAdmin
}
