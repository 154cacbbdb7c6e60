package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chakri-sirigiri/go-statements-parser/internal/config"
	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/institution"
	"github.com/chakri-sirigiri/go-statements-parser/internal/processor"
)

func newOrganizeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "organize",
		Short: "Rename inbox statements to their canonical names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runOrganize(cmd, cfg)
		},
	}
}

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var institutionName string
	var file string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Organize, extract, and store every pending statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if institutionName != "" {
				cfg.Institution = institutionName
			}
			if file != "" {
				return runExtractFile(cmd, cfg, file)
			}
			return runExtract(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&institutionName, "institution", "", "institution handler (default from config)")
	cmd.Flags().StringVar(&file, "file", "", "process a single document without organizing it")

	return cmd
}

func runOrganize(cmd *cobra.Command, cfg *config.Config) error {
	st, err := newStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := newProcessor(cfg, st).Organize(cmd.Context())
	if err != nil {
		return err
	}

	for _, name := range res.Organized {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Organized %d statement(s), left %d in the inbox\n",
		len(res.Organized), len(res.Skipped))
	return nil
}

func runExtract(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := newProcessor(cfg, st).Run(ctx)

	var verr *institution.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed on %s: expected net pay %s, statement says %s (off by %s)\n",
			verr.SourceFile, verr.Expected.StringFixed(2), verr.Actual.StringFixed(2), verr.Diff().StringFixed(2))
		fmt.Fprintln(cmd.ErrOrStderr(), "The failing record was stored for inspection; later statements were not processed.")
		return verr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d statement(s), skipped %d, duplicates %d\n",
		len(res.Stored), res.Skipped, res.Duplicates)
	return nil
}

func runExtractFile(cmd *cobra.Command, cfg *config.Config, path string) error {
	ctx := cmd.Context()
	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := newProcessor(cfg, st).ExtractFile(ctx, path)
	if errors.Is(err, processor.ErrDuplicate) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already stored (statement date %s)\n",
			filepath.Base(path), rec.StatementDate.Format("2006-01-02"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s: net pay $%s\n",
		filepath.Base(path), rec.AmountOrZero(fields.NetPay).StringFixed(2))
	return nil
}
