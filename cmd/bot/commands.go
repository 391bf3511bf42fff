package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/infrastructure/export"
	tgapi "github.com/uwcourse/course-watch/internal/infrastructure/external/telegram"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/postgres"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// withApp loads configuration without the named sections and runs fn
// against a freshly wired app.
func withApp(cmd *cobra.Command, opts *rootOptions, skip []string, fn func(ctx context.Context, a *app) error) error {
	cfg, log, err := opts.load(skip...)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// ─────────────────────────────────────────────────────────────────────────────
// list
// ─────────────────────────────────────────────────────────────────────────────

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the tracked courses and their last observed sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, []string{"Telegram", "UWaterloo"}, func(ctx context.Context, a *app) error {
				entries, err := a.store.List(ctx)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), entries)
			})
		},
	}
}

func printEntries(w io.Writer, entries []course.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Course list is empty!")
		return err
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, e.Key)
		for _, s := range e.Sections {
			fmt.Fprintf(w, "  %s\n", html.UnescapeString(course.DescribeSection(s)))
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// terms
// ─────────────────────────────────────────────────────────────────────────────

func newTermsCmd(opts *rootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Show the terms known to the UW API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, []string{"Telegram"}, func(ctx context.Context, a *app) error {
				if refresh {
					a.terms.Refresh(ctx)
				}
				terms, err := a.terms.Terms(ctx)
				if err != nil {
					return err
				}
				current, err := a.terms.CurrentTerm(ctx)
				if err != nil {
					return err
				}
				def, err := a.terms.DefaultTerm(ctx)
				if err != nil {
					return err
				}
				return printTerms(cmd.OutOrStdout(), terms, current, def)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached term data before listing")
	return cmd
}

func printTerms(w io.Writer, terms []course.Term, current, def course.Term) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCODE\tSTART\tEND\t")
	for _, t := range terms {
		var marks []string
		if t.Code == current.Code {
			marks = append(marks, "current")
		}
		if t.Code == def.Code {
			marks = append(marks, "default")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.Name, t.Code,
			t.StartDate.Format(time.DateOnly), t.EndDate.Format(time.DateOnly),
			strings.Join(marks, ","),
		)
	}
	return tw.Flush()
}

// ─────────────────────────────────────────────────────────────────────────────
// export-ics
// ─────────────────────────────────────────────────────────────────────────────

func newExportICSCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write the tracked sections as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, []string{"Telegram"}, func(ctx context.Context, a *app) error {
				icsCfg := export.DefaultICSConfig()
				icsCfg.Logger = a.logger
				exporter := export.NewICSExporter(a.store, a.terms, icsCfg)

				if output == "" || output == "-" {
					return exporter.Export(ctx, cmd.OutOrStdout())
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				if err := exporter.Export(ctx, f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				a.logger.Info("calendar exported", "path", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// poll
// ─────────────────────────────────────────────────────────────────────────────

// printNotifier writes change reports to a terminal instead of Telegram.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintf(n.w, "%s\n\n", text)
	return err
}

func newPollCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a single poll cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			skip := []string{}
			if dryRun {
				skip = append(skip, "Telegram")
			}
			return withApp(cmd, opts, skip, func(ctx context.Context, a *app) error {
				var notifier course.Notifier = printNotifier{w: cmd.OutOrStdout()}
				if !dryRun {
					notifierCfg := tgapi.DefaultNotifierConfig(a.cfg.Telegram.OwnerID)
					notifierCfg.Logger = a.logger
					notifier = tgapi.NewNotifier(newTelegramClient(a), notifierCfg)
				}

				job := newPollJob(a, notifier)
				sched, err := newScheduler(a, job)
				if err != nil {
					return err
				}
				if _, err := sched.RunNow(ctx, job.Name()); err != nil {
					return fmt.Errorf("poll cycle failed: %w", err)
				}
				if stats := job.LastStats(); stats != nil {
					a.logger.Info("poll cycle finished",
						"courses", stats.Courses,
						"changed", stats.Changed,
						"duration", stats.Duration.String(),
					)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print change reports instead of sending them")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// migrate
// ─────────────────────────────────────────────────────────────────────────────

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Manage the PostgreSQL schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, log, err := opts.load("Telegram", "UWaterloo")
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}

			ctx := cmd.Context()
			conn, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			migrator := postgres.NewMigrator(conn)

			switch action {
			case "up":
				applied, err := migrator.Migrate(ctx)
				if err != nil {
					return err
				}
				log.Info("migrations applied", "count", applied)
			case "down":
				if err := migrator.Rollback(ctx); err != nil {
					return err
				}
				log.Info("last migration rolled back")
			case "status":
				status, err := migrator.Status(ctx)
				if err != nil {
					return err
				}
				return printMigrations(cmd.OutOrStdout(), status)
			}
			return nil
		},
	}
}

func printMigrations(w io.Writer, migrations []postgres.Migration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, m := range migrations {
		applied := "pending"
		if m.IsApplied {
			applied = m.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, applied)
	}
	return tw.Flush()
}
