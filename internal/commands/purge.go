package commands

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
)

func newPurgeCommand(opts *rootOptions) *cobra.Command {
	var dateStr string
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored records for the institution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runPurge(cmd, cfg, dateStr, yes)
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "delete only this statement date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	return cmd
}

func runPurge(cmd *cobra.Command, cfg *config.Config, dateStr string, yes bool) error {
	var date *time.Time
	scope := "all statement dates"
	if dateStr != "" {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
		date = &d
		scope = dateStr
	}

	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete %s records for %s? [y/N] ", cfg.Institution, scope)
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(line), "y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	st, err := newStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Purge(cmd.Context(), cfg.Institution, date)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", n)
	return nil
}
