package service

import (
	"context"
	"log"

	"habit-tracker/internal/model"
)

// Notifier hands composed messages to the chat channel without blocking.
type Notifier interface {
	Notify(text string)
	NotifyWithImage(caption string, image []byte)
}

// Alerter pushes an actionable alert for a single task.
type Alerter interface {
	SendTaskAlert(ctx context.Context, task model.Task) error
}

// Jobs are the scheduled triggers. Each one can also be run by hand (dev
// panel, bot command, tests); cron bindings live in main.
type Jobs struct {
	digests  *DigestService
	rollover *RolloverService
	notifier Notifier
	alerter  Alerter
	ownerID  uint
}

// NewJobs wires the jobs for the owner account. alerter may be nil when no
// interactive channel is configured.
func NewJobs(digests *DigestService, rollover *RolloverService, notifier Notifier, alerter Alerter, ownerID uint) *Jobs {
	return &Jobs{digests: digests, rollover: rollover, notifier: notifier, alerter: alerter, ownerID: ownerID}
}

// MorningDigest sends today's agenda, or a short "nothing scheduled" note.
func (j *Jobs) MorningDigest(ctx context.Context) error {
	d, err := j.digests.MorningDigest(ctx, j.ownerID)
	if err != nil {
		return err
	}
	j.send(d)
	return nil
}

// EveningDigest sends the day's summary; it stays quiet on empty days.
func (j *Jobs) EveningDigest(ctx context.Context) error {
	d, err := j.digests.EveningDigest(ctx, j.ownerID)
	if err != nil {
		return err
	}
	if d.Empty {
		log.Printf("[info] evening digest: nothing to report")
		return nil
	}
	j.send(d)
	return nil
}

// WeeklyBriefing sends the habit summary with its grid image.
func (j *Jobs) WeeklyBriefing(ctx context.Context) error {
	d, err := j.digests.WeeklyBriefing(ctx, j.ownerID)
	if err != nil {
		return err
	}
	j.send(d)
	return nil
}

// UrgentAlerts sends one alert per overdue urgent task. It returns the number
// of alerts sent.
func (j *Jobs) UrgentAlerts(ctx context.Context) (int, error) {
	if j.alerter == nil {
		return 0, nil
	}
	tasks, err := j.digests.UrgentOverdue(ctx, j.ownerID)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, task := range tasks {
		if err := j.alerter.SendTaskAlert(ctx, task); err != nil {
			log.Printf("[warn] urgent alert task=%d: %v", task.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Rollover resets recurring tasks whose completion day has passed.
func (j *Jobs) Rollover(ctx context.Context) (RolloverReport, error) {
	report, err := j.rollover.Rollover(ctx)
	if err != nil {
		return report, err
	}
	log.Printf("[info] rollover checked=%d reset=%d orphans=%d", report.Checked, report.Reset, report.Orphans)
	return report, nil
}

func (j *Jobs) send(d Digest) {
	if len(d.Image) > 0 {
		j.notifier.NotifyWithImage(d.Text, d.Image)
		return
	}
	j.notifier.Notify(d.Text)
}
