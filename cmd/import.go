package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/ingest"
)

var (
	importFile      string
	importSheet     string
	importDelimiter string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import observations from CSV or XLSX into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		opts := ingest.Options{SheetName: importSheet}
		if importDelimiter != "" {
			opts.Delimiter = []rune(importDelimiter)[0]
		}
		obs, err := ingest.ReadObservations(ctx, importFile, opts)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.UpsertObservations(ctx, obs)
		if err != nil {
			return eris.Wrap(err, "import observations")
		}
		run, err := st.RecordImport(ctx, filepath.Base(importFile), n)
		if err != nil {
			return eris.Wrap(err, "record import")
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int64("rows", n),
			zap.String("import_id", run.ID),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "csv delimiter (default ,)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
