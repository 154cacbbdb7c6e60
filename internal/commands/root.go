// Package commands defines the statements-parser CLI.
package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/buildinfo"
	"github.com/chakri-sirigiri/go-statements-parser/internal/cloudsync"
	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/institution"
	"github.com/chakri-sirigiri/go-statements-parser/internal/pdftext"
	"github.com/chakri-sirigiri/go-statements-parser/internal/processor"
	"github.com/chakri-sirigiri/go-statements-parser/internal/store"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

// loadConfig loads the configuration and applies the log settings.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if o.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{})
	}
	return cfg, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "statements-parser",
		Short:   "Parse payslip statements into tracked transaction records",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newOrganizeCommand(opts))
	rootCmd.AddCommand(newExtractCommand(opts))
	rootCmd.AddCommand(newReconcileCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newPurgeCommand(opts))
	rootCmd.AddCommand(newRunsCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// newStore opens the configured record store, migrating the postgres
// schema first when that driver is selected.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := store.MigrateUp(cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
		return store.NewPostgres(ctx, cfg.Store.DSN)
	default:
		return store.NewCSV(cfg.Store.Path), nil
	}
}

func newProcessor(cfg *config.Config, st store.Store) *processor.Processor {
	p := processor.New(cfg, institution.DefaultRegistry(), st, pdftext.NewTool())
	if cfg.Cloud.Project != "" || cfg.Cloud.Bucket != "" {
		p.Syncer = &cloudsync.Syncer{
			Project: cfg.Cloud.Project,
			Dataset: cfg.Cloud.Dataset,
			Table:   cfg.Cloud.Table,
			Bucket:  cfg.Cloud.Bucket,
		}
	}
	return p
}
