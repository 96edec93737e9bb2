package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/model"
	"github.com/regioniq/insight-cli/internal/region"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema and seed the ITL1 regions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		regions := seedRegions()
		if err := st.UpsertRegions(ctx, regions); err != nil {
			return eris.Wrap(err, "seed regions")
		}

		zap.L().Info("migration complete", zap.String("driver", cfg.Store.Driver), zap.Int("regions", len(regions)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// seedRegions returns the UK and ITL1 rows keyed by their store codes.
func seedRegions() []model.Region {
	out := []model.Region{{Code: region.UKONSCode, Name: region.UKName, Level: model.LevelUK}}
	for _, r := range region.ITL1Regions() {
		out = append(out, model.Region{
			Code:       region.ToDBCode(r.Code),
			Name:       r.Name,
			Level:      r.Level,
			ParentCode: region.UKONSCode,
		})
	}
	return out
}
