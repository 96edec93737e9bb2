package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/regioniq/insight-cli/internal/export"
	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/region"
	"github.com/regioniq/insight-cli/internal/store"
)

var (
	obsRegions   []string
	obsMetrics   []string
	obsScenarios []string
	obsFrom      int
	obsTo        int
	obsLimit     int
	obsOut       string
)

var observationsCmd = &cobra.Command{
	Use:   "observations",
	Short: "Export stored observations as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("insight"); err != nil {
			return err
		}

		filter := store.ObservationFilter{
			Metrics:  obsMetrics,
			FromYear: obsFrom,
			ToYear:   obsTo,
			Limit:    obsLimit,
		}
		for _, r := range obsRegions {
			filter.Regions = append(filter.Regions, region.ToDBCode(r))
		}
		for _, s := range obsScenarios {
			sc := model.Scenario(s)
			if !sc.Valid() {
				return eris.Errorf("unknown scenario %q", s)
			}
			filter.Scenarios = append(filter.Scenarios, sc)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		obs, err := st.QueryObservations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "query observations")
		}

		table := export.ObservationsTable(obs)
		if obsOut != "" {
			if err := export.WriteXLSX(obsOut, []export.Table{table}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(obs), obsOut)
			return nil
		}
		return export.WriteCSV(os.Stdout, table)
	},
}

func init() {
	observationsCmd.Flags().StringSliceVar(&obsRegions, "region", nil, "region codes (repeatable)")
	observationsCmd.Flags().StringSliceVar(&obsMetrics, "metric", nil, "metric ids (repeatable)")
	observationsCmd.Flags().StringSliceVar(&obsScenarios, "scenario", nil, "scenarios (repeatable)")
	observationsCmd.Flags().IntVar(&obsFrom, "from", 0, "first period")
	observationsCmd.Flags().IntVar(&obsTo, "to", 0, "last period")
	observationsCmd.Flags().IntVar(&obsLimit, "limit", store.DefaultLimit, "maximum rows")
	observationsCmd.Flags().StringVar(&obsOut, "out", "", "write an xlsx workbook instead of csv to stdout")
	rootCmd.AddCommand(observationsCmd)
}
