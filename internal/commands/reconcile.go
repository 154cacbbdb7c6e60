package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/cloudsync"
	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
	"github.com/chakri-sirigiri/go-statements-parser/internal/reconcile"
)

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var periodStr string
	var cloud bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Sum stored transactions for a period and check the totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runReconcile(cmd, cfg, periodStr, cloud)
		},
	}

	cmd.Flags().StringVar(&periodStr, "period", "", "period to reconcile, MM-YYYY or YYYY")
	_ = cmd.MarkFlagRequired("period")
	cmd.Flags().BoolVar(&cloud, "cloud", false, "also report the BigQuery mirror row count for the year")

	return cmd
}

func runReconcile(cmd *cobra.Command, cfg *config.Config, periodStr string, cloud bool) error {
	period, err := model.ParsePeriod(periodStr)
	if err != nil {
		return err
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

	report := reconcile.Aggregate(period, records)
	fmt.Fprint(cmd.OutOrStdout(), reconcile.FormatText(report))

	if cloud {
		syncer := &cloudsync.Syncer{
			Project: cfg.Cloud.Project,
			Dataset: cfg.Cloud.Dataset,
			Table:   cfg.Cloud.Table,
		}
		if cfg.Cloud.Project == "" {
			return errors.New("--cloud requires cloud.project in the config")
		}
		n, err := syncer.MirrorCount(cmd.Context(), cfg.Institution, period.Year)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "BigQuery mirror: %d row(s) for %d\n", n, period.Year)
	}
	return nil
}
