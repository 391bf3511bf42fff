// Command bot runs the course watch Telegram bot and its maintenance tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uwcourse/course-watch/config"
	"github.com/uwcourse/course-watch/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configFile string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "course-watch",
		Short:         "Watch UW course enrollment and report changes on Telegram",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveOptions{})
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newPollCmd(opts),
		newListCmd(opts),
		newTermsCmd(opts),
		newExportICSCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// load reads configuration, validates everything but the skipped sections
// and installs the default logger.
func (o *rootOptions) load(skip ...string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Observability.LogLevel = o.logLevel
	}
	if err := cfg.ValidateExcept(skip...); err != nil {
		return nil, nil, err
	}

	format := cfg.Observability.LogFormat
	if cfg.IsDevelopment() && os.Getenv("LOG_FORMAT") == "" {
		format = "text"
	}
	log := logger.Setup(logger.Options{
		Level:   logger.ParseLevel(cfg.Observability.LogLevel),
		Format:  format,
		Output:  os.Stderr,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	})
	return cfg, log, nil
}
