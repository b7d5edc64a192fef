package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/pkg/google"
	"github.com/spf13/cobra"
)

var ErrSyncProblems = errors.New("sync finished with skipped records or failed actions")

// NewRootCommand builds the calsync command line.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "calsync",
		Short: "Mirror a Notion planning database into Google Calendar",
		Long: `calsync reads upcoming entries from a Notion database and makes a Google calendar
match them: missing events are created, changed ones updated and stale ones deleted.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")

	root.AddCommand(
		newRunCommand(&configPath),
		newServeCommand(&configPath),
		newCalendarsCommand(&configPath),
	)
	return root
}

func newRunCommand(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single sync and print its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := loadDependencies(ctx, *configPath)
			if err != nil {
				return err
			}

			report, err := deps.SyncJob.Run(ctx, dryRun)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return err
			}
			if report.HasProblems() {
				return ErrSyncProblems
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the changes without writing to the calendar")
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sync on the configured schedule until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			deps, err := BuildDependencies(ctx, cfg)
			if err != nil {
				return err
			}
			application, err := NewApplication(cfg, deps)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}
}

func newCalendarsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the Google calendars the credentials can access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			service, err := google.NewCalendarService(cmd.Context(), cfg.Google)
			if err != nil {
				return err
			}
			calendars, err := google.ListCalendars(cmd.Context(), service)
			if err != nil {
				return err
			}
			for _, cal := range calendars {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", cal.ID, cal.Summary)
			}
			return nil
		},
	}
}

func loadDependencies(ctx context.Context, configPath string) (*Dependencies, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return BuildDependencies(ctx, cfg)
}
