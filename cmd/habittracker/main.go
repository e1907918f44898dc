package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"habit-tracker/internal/bot"
	"habit-tracker/internal/config"
	"habit-tracker/internal/httpapi"
	"habit-tracker/internal/model"
	"habit-tracker/internal/notify"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)
	clock := service.SystemClock(cfg.Location())

	userSvc := service.NewUserService(store)
	owner, err := userSvc.EnsureUser(ctx, cfg.OwnerUsername, cfg.OwnerPassword, model.RoleAdmin)
	if err != nil {
		log.Fatalf("owner account: %v", err)
	}

	taskSvc := service.NewTaskService(store, clock)
	statsSvc := service.NewStatsService(store, clock)
	categorySvc := service.NewCategoryService(store)
	digestSvc := service.NewDigestService(store, clock, cfg.HabitWindowDays)
	rolloverSvc := service.NewRolloverService(store, clock)

	var (
		sender      notify.Sender = notify.LogSender{}
		alerter     service.Alerter
		telegramBot *bot.Bot
	)
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, cfg.TelegramChatID, owner.ID, taskSvc, digestSvc, categorySvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		sender = telegramBot
		alerter = telegramBot
	} else {
		log.Println("[warn] TELEGRAM_TOKEN is empty, notifications go to the log")
	}

	notifier := notify.New(sender, cfg.JobTimeout)
	defer notifier.Wait()
	jobs := service.NewJobs(digestSvc, rolloverSvc, notifier, alerter, owner.ID)

	scheduler := service.NewSchedulerService(cfg.Location())
	if err := scheduleJobs(scheduler, cfg, jobs); err != nil {
		log.Fatalf("schedule: %v", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Tasks:       taskSvc,
		Stats:       statsSvc,
		Users:       userSvc,
		Jobs:        jobs,
		Health:      store.Ping,
		CORSOrigins: cfg.CORSOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		return httpapi.Serve(gctx, cfg.HTTPAddr, router)
	})
	if telegramBot != nil && cfg.EnableBot {
		g.Go(func() error {
			return telegramBot.Start(gctx)
		})
	}

	log.Printf("[info] habit tracker started owner=%s tz=%s", owner.Username, cfg.Timezone)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[error] stopped with error: %v", err)
	}
	log.Println("[info] shutdown complete")
}

func scheduleJobs(scheduler *service.SchedulerService, cfg config.Config, jobs *service.Jobs) error {
	if _, err := scheduler.ScheduleDaily(cfg.MorningDigestAt, runJob(cfg, "morning digest", func(ctx context.Context) error {
		if err := jobs.MorningDigest(ctx); err != nil {
			return err
		}
		_, err := jobs.UrgentAlerts(ctx)
		return err
	})); err != nil {
		return err
	}
	if _, err := scheduler.ScheduleDaily(cfg.EveningDigestAt, runJob(cfg, "evening digest", jobs.EveningDigest)); err != nil {
		return err
	}
	if _, err := scheduler.ScheduleDaily(cfg.RolloverAt, runJob(cfg, "rollover", func(ctx context.Context) error {
		_, err := jobs.Rollover(ctx)
		return err
	})); err != nil {
		return err
	}
	_, err := scheduler.ScheduleWeekly(cfg.BriefingWeekday(), cfg.WeeklyBriefingAt, runJob(cfg, "weekly briefing", jobs.WeeklyBriefing))
	return err
}

func runJob(cfg config.Config, name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
		defer cancel()
		log.Printf("[info] job %s started", name)
		if err := job(ctx); err != nil {
			log.Printf("[error] job %s: %v", name, err)
			return
		}
		log.Printf("[info] job %s done", name)
	}
}
