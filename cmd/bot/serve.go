package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uwcourse/course-watch/internal/application/command"
	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/infrastructure/export"
	tgapi "github.com/uwcourse/course-watch/internal/infrastructure/external/telegram"
	"github.com/uwcourse/course-watch/internal/infrastructure/scheduler"
	"github.com/uwcourse/course-watch/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/uwcourse/course-watch/internal/interface/http"
	"github.com/uwcourse/course-watch/internal/interface/http/handlers"
	"github.com/uwcourse/course-watch/internal/interface/telegram"
)

type serveOptions struct {
	noHTTP bool
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var sopts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the poll loop and the ops HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, sopts)
		},
	}
	cmd.Flags().BoolVar(&sopts.noHTTP, "no-http", false, "do not start the ops HTTP server")
	return cmd
}

func newTelegramClient(a *app) *tgapi.Client {
	cfg := tgapi.DefaultClientConfig(a.cfg.Telegram.Token)
	cfg.BaseURL = a.cfg.Telegram.BaseURL
	cfg.PollingTimeout = int(a.cfg.Telegram.PollingTimeout / time.Second)
	cfg.Logger = a.logger
	return tgapi.NewClient(cfg)
}

func newPollJob(a *app, notifier course.Notifier) *jobs.PollCoursesJob {
	cfg := jobs.DefaultPollCoursesConfig()
	cfg.CourseDelay = a.cfg.Poller.CourseDelay
	cfg.Logger = a.logger
	return jobs.NewPollCoursesJob(a.store, a.terms, a.uw, notifier, cfg)
}

// newScheduler registers job to repeat CycleDelay after each run ends.
func newScheduler(a *app, job scheduler.Job) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   a.logger,
		FailFast: true,
	})
	if err := sched.Register(job, scheduler.NewFixedDelaySchedule(a.cfg.Poller.CycleDelay)); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", job.Name(), err)
	}
	return sched, nil
}

// lastRunCheck fails while the most recent run of the job ended in an error.
func lastRunCheck(sched *scheduler.Scheduler, jobName string) handlers.Check {
	return func(context.Context) error {
		info, err := sched.GetJobInfo(jobName)
		if err != nil {
			return err
		}
		if r := info.LastResult; r != nil && !r.Success && !r.Cancelled {
			return fmt.Errorf("run at %s failed: %w", r.StartedAt.UTC().Format(time.RFC3339), r.Error)
		}
		return nil
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions, sopts serveOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	log.Info("starting course watch",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Backend,
	)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// Telegram
	// ─────────────────────────────────────────────────────────────────────────
	client := newTelegramClient(a)

	notifierCfg := tgapi.DefaultNotifierConfig(cfg.Telegram.OwnerID)
	notifierCfg.Logger = log
	notifier := tgapi.NewNotifier(client, notifierCfg)

	botCfg := telegram.DefaultBotConfig(cfg.Telegram.OwnerID)
	botCfg.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botCfg.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botCfg.Logger = log

	bot, err := telegram.NewBot(client, botCfg, telegram.BotDependencies{
		AddCourse:    command.NewAddCourseHandler(a.store, a.terms, a.uw, log),
		RemoveCourse: command.NewRemoveCourseHandler(a.store, a.terms, log),
		ListCourses:  command.NewListCoursesHandler(a.store),
		ClearCourses: command.NewClearCoursesHandler(a.store, log),
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Poll loop
	// ─────────────────────────────────────────────────────────────────────────
	pollJob := newPollJob(a, notifier)
	sched, err := newScheduler(a, pollJob)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Start(gctx)
	})

	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	g.Go(func() error {
		defer func() { _ = sched.Stop() }()
		select {
		case <-gctx.Done():
			return nil
		case err := <-sched.Errors():
			return fmt.Errorf("poll loop stopped: %w", err)
		}
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Ops HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.HTTP.Enabled && !sopts.noHTTP {
		health := handlers.NewChecker(cfg.App.Version)
		health.Add("store", handlers.PingCheck(a.store))
		health.Add("bot", handlers.RunningCheck("bot", bot))
		health.Add("scheduler", handlers.RunningCheck("scheduler", sched))
		health.Add("poll", lastRunCheck(sched, pollJob.Name()))
		if a.db != nil {
			health.Add("postgres", handlers.PingCheck(a.db))
		}
		if a.cache != nil {
			health.Add("redis", handlers.PingCheck(a.cache))
		}

		icsCfg := export.DefaultICSConfig()
		icsCfg.Logger = log

		httpCfg := httpserver.DefaultConfig()
		httpCfg.Addr = cfg.HTTP.Addr
		httpCfg.ShutdownTimeout = cfg.App.ShutdownTimeout
		httpCfg.Logger = log

		server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
			Health:   health,
			Calendar: export.NewICSExporter(a.store, a.terms, icsCfg),
		})
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	log.Info("course watch is running",
		"owner_id", cfg.Telegram.OwnerID,
		"cycle_delay", cfg.Poller.CycleDelay.String(),
	)

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("course watch stopped with error", "error", err)
		return err
	}

	log.Info("course watch stopped")
	return nil
}
