package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/institution"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a year's transactions to a CSV in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runExport(cmd, cfg, year)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year to export")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config, year int) error {
	period, err := model.ParsePeriod(strconv.Itoa(year))
	if err != nil {
		return err
	}

	h := institution.DefaultRegistry().Get(cfg.Institution)
	if h == nil {
		return fmt.Errorf("unknown institution %q", cfg.Institution)
	}

	st, err := newStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.QueryPeriod(cmd.Context(), cfg.Institution, period)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Folders.Export, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(cfg.Folders.Export, fmt.Sprintf("%s-%d.csv", cfg.Institution, year))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := h.WriteExport(f, records); err != nil {
		f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d record(s) to %s\n", len(records), path)
	return nil
}
