package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config keeps runtime settings for the tracker, its bot and its jobs.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL" env-default:"habit_tracker.db"`
	Timezone    string `env:"TIMEZONE" env-default:"Europe/Warsaw"`
	HTTPAddr    string `env:"HTTP_ADDR" env-default:":8080"`
	// CORSOrigins lists browser origins allowed to call the API; empty disables CORS.
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:","`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" env-default:"0"`
	EnableBot      bool   `env:"ENABLE_BOT" env-default:"false"`

	OwnerUsername string `env:"OWNER_USERNAME" env-default:"admin"`
	OwnerPassword string `env:"OWNER_PASSWORD"`

	MorningDigestAt   string        `env:"MORNING_DIGEST_AT" env-default:"08:00"`
	EveningDigestAt   string        `env:"EVENING_DIGEST_AT" env-default:"22:00"`
	WeeklyBriefingAt  string        `env:"WEEKLY_BRIEFING_AT" env-default:"20:00"`
	WeeklyBriefingDay string        `env:"WEEKLY_BRIEFING_DAY" env-default:"sun"`
	RolloverAt        string        `env:"ROLLOVER_AT" env-default:"00:05"`
	HabitWindowDays   int           `env:"HABIT_WINDOW_DAYS" env-default:"7"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" env-default:"30s"`

	location *time.Location
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot check on its own and resolves the zone.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	for name, value := range map[string]string{
		"MORNING_DIGEST_AT":  c.MorningDigestAt,
		"EVENING_DIGEST_AT":  c.EveningDigestAt,
		"WEEKLY_BRIEFING_AT": c.WeeklyBriefingAt,
		"ROLLOVER_AT":        c.RolloverAt,
	} {
		if _, _, err := ParseClock(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, ok := weekdays[strings.ToLower(c.WeeklyBriefingDay)]; !ok {
		return fmt.Errorf("WEEKLY_BRIEFING_DAY %q: expected one of sun, mon, tue, wed, thu, fri, sat", c.WeeklyBriefingDay)
	}
	if c.HabitWindowDays < 1 || c.HabitWindowDays > 366 {
		return fmt.Errorf("HABIT_WINDOW_DAYS must be between 1 and 366, got %d", c.HabitWindowDays)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if c.EnableBot && c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required when ENABLE_BOT is set")
	}
	if c.OwnerUsername == "" {
		return fmt.Errorf("OWNER_USERNAME is required")
	}
	return nil
}

// Location is the single zone every calendar-date decision is made in.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// BriefingWeekday returns WEEKLY_BRIEFING_DAY as a time.Weekday.
func (c Config) BriefingWeekday() time.Weekday {
	return weekdays[strings.ToLower(c.WeeklyBriefingDay)]
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
