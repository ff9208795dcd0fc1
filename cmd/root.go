// Package cmd defines the wkreport command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/wanikani-report/internal/app"
	"github.com/JakeFAU/wanikani-report/internal/clock/system"
	"github.com/JakeFAU/wanikani-report/internal/config"
	collyfetcher "github.com/JakeFAU/wanikani-report/internal/fetcher/colly"
	"github.com/JakeFAU/wanikani-report/internal/hash/sha256"
	"github.com/JakeFAU/wanikani-report/internal/id/uuid"
	"github.com/JakeFAU/wanikani-report/internal/logging"
	"github.com/JakeFAU/wanikani-report/internal/metrics"
	"github.com/JakeFAU/wanikani-report/internal/profile"
	"github.com/JakeFAU/wanikani-report/internal/publisher/stdout"
	"github.com/JakeFAU/wanikani-report/internal/publisher/webhook"
)

// flagBindings maps CLI flags onto config keys so flags, env, and file share one namespace.
var flagBindings = map[string]string{
	"username":        "profile.username",
	"webhook-url":     "webhook.url",
	"dry-run":         "dry_run",
	"log-dev":         "logging.development",
	"log-level":       "logging.level",
	"pushgateway-url": "metrics.pushgateway_url",
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "wkreport",
		Short: "Post a WaniKani public profile summary to a chat webhook.",
		Long: `wkreport fetches a public WaniKani profile page, extracts SRS progress
from it, and posts a Markdown summary to a Mattermost-compatible incoming
webhook. Without a webhook URL (or with --dry-run) the summary is printed
to stdout instead.

Every flag can also be set with a WKREPORT_ environment variable, for
example WKREPORT_WEBHOOK_URL, or in the file given by --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), v, cfgFile, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml, or json)")
	flags.String("username", "", "WaniKani username whose public profile is reported (required)")
	flags.String("webhook-url", "", "incoming webhook URL; report is printed when empty")
	flags.Bool("dry-run", false, "print the report instead of posting it")
	flags.Bool("log-dev", false, "human-readable development logging")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("pushgateway-url", "", "Prometheus Pushgateway to push run metrics to")

	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
	return cmd
}

func runReport(ctx context.Context, v *viper.Viper, cfgFile string, out io.Writer) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	runner := buildRunner(cfg, out, logger)
	if _, err := runner.Run(ctx); err != nil {
		return err
	}
	return nil
}

func buildRunner(cfg config.Config, out io.Writer, logger *zap.Logger) *app.Runner {
	fetcher := collyfetcher.New(collyfetcher.Config{
		BaseURL:   cfg.Profile.BaseURL,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	return app.New(
		fetcher,
		buildPublisher(cfg, out, logger),
		sha256.New(),
		system.New(),
		uuid.New(),
		metrics.NewRecorder(),
		app.Config{
			Username:       cfg.Profile.Username,
			PushgatewayURL: cfg.Metrics.PushgatewayURL,
			MetricsJob:     cfg.Metrics.Job,
		},
		logger,
	)
}

func buildPublisher(cfg config.Config, out io.Writer, logger *zap.Logger) profile.Publisher {
	if cfg.DryRun || cfg.Webhook.URL == "" {
		logger.Info("writing report to stdout", zap.Bool("dry_run", cfg.DryRun))
		return stdout.New(out)
	}
	return webhook.New(webhook.Config{
		URL:      cfg.Webhook.URL,
		Username: cfg.Webhook.Username,
		IconURL:  cfg.Webhook.IconURL,
		Timeout:  cfg.WebhookTimeout(),
	}, nil)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wkreport:", err)
		os.Exit(1)
	}
}
