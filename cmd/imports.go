package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/regioniq/insight-cli/internal/store"
)

var importsLimit int

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List recent observation imports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("import"); err != nil {
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

		runs, err := st.ListImports(ctx, importsLimit)
		if err != nil {
			return eris.Wrap(err, "list imports")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No imports found.")
			return nil
		}

		formatImports(os.Stdout, runs)
		return nil
	},
}

func init() {
	importsCmd.Flags().IntVar(&importsLimit, "limit", 20, "maximum number of imports to show")
	rootCmd.AddCommand(importsCmd)
}

// formatImports writes a tabular representation of import runs to w.
func formatImports(out io.Writer, runs []store.ImportRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tROWS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t----\t-------")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Source, r.Rows, r.CreatedAt.Format(time.DateTime))
	}
	_ = w.Flush()
}
