package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/gitops"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and statement directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts.configPath, useGit)
		},
	}

	cmd.Flags().BoolVar(&useGit, "git", false, "version the data directory with git and enable auto-commit")

	return cmd
}

func runInit(cmd *cobra.Command, configPath string, useGit bool) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	cfg := config.Default()
	cfg.Git.AutoCommit = useGit
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	for _, dir := range []string{cfg.Folders.Inbox, cfg.Folders.Organized, cfg.Folders.Export, cfg.Store.Path} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if useGit {
		if err := gitops.Init(cfg.Store.Path); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized statements-parser: config at %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Drop statements into %s and run `statements-parser extract`\n", cfg.Folders.Inbox)
	return nil
}
