package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/geo"
)

var geoOutDir string

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Boundary file tools",
	Long:  "Convert ONS boundary shapefiles into WGS84 GeoJSON for web maps.",
}

var geoConvertCmd = &cobra.Command{
	Use:   "convert <file.shp|file.zip|url>",
	Short: "Convert a shapefile or zipped shapefile to GeoJSON",
	Long:  "Convert a local shapefile, a zipped shapefile or a downloadable zip URL to WGS84 GeoJSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		if geo.IsURL(input) {
			tmp, err := os.MkdirTemp("", "regioniq-download-*")
			if err != nil {
				return eris.Wrap(err, "create download dir")
			}
			defer os.RemoveAll(tmp) //nolint:errcheck

			input, err = geo.NewDownloader(geo.DownloadOptions{}).Fetch(cmd.Context(), input, tmp)
			if err != nil {
				return err
			}
		}

		written, err := geo.ConvertFile(input, geoOutDir)
		if err != nil {
			return err
		}
		for _, p := range written {
			_, _ = fmt.Fprintln(os.Stdout, p)
		}
		zap.L().Info("geo convert complete", zap.Int("files", len(written)))
		return nil
	},
}

func init() {
	geoConvertCmd.Flags().StringVar(&geoOutDir, "out", "public/boundaries", "output directory")
	geoCmd.AddCommand(geoConvertCmd)
	rootCmd.AddCommand(geoCmd)
}
