package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/regioniq/insight-cli/internal/export"
	"github.com/regioniq/insight-cli/internal/insight"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/model"
)

var (
	insightRegion string
	insightYear   int
	insightMetric string
	insightLens   string
	insightFormat string
	insightOut    string
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Build the regional insight for one region and year",
	Long:  "Computes signals, archetype, persistence, peer ranking and asset-lens implications for a region.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("insight"); err != nil {
			return err
		}

		lensName := insightLens
		if lensName == "" {
			lensName = cfg.Engine.DefaultLens
		}
		l, err := lens.ParseAssetLens(lensName)
		if err != nil {
			return err
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Insights.Build(ctx, insight.Request{
			Region: insightRegion,
			Year:   insightYear,
			Metric: insightMetric,
			Lens:   l,
		})
		if err != nil {
			return eris.Wrap(err, "insight")
		}

		return writeInsight(os.Stdout, resp, insightFormat, insightOut)
	},
}

func init() {
	insightCmd.Flags().StringVar(&insightRegion, "region", "", "region code, e.g. UKI or TLI31 (required)")
	insightCmd.Flags().IntVar(&insightYear, "year", 0, "evaluation year (required)")
	insightCmd.Flags().StringVar(&insightMetric, "metric", model.MetricJobs, "metric to rank against peers")
	insightCmd.Flags().StringVar(&insightLens, "lens", "", "asset lens (default from config)")
	insightCmd.Flags().StringVar(&insightFormat, "format", "table", "output format: table, json, csv or xlsx")
	insightCmd.Flags().StringVar(&insightOut, "out", "", "output path for xlsx")
	_ = insightCmd.MarkFlagRequired("region")
	_ = insightCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(insightCmd)
}

// writeInsight renders a response in the requested format.
func writeInsight(w io.Writer, resp *insight.Response, format, out string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "encode insight")
	case "csv":
		for i, t := range export.InsightTables(resp) {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "# %s\n", t.Name)
			if err := export.WriteCSV(w, t); err != nil {
				return err
			}
		}
		return nil
	case "xlsx":
		if out == "" {
			out = fmt.Sprintf("insight_%s_%d.xlsx", resp.RegionCode, resp.Year)
		}
		if err := export.WriteXLSX(out, export.InsightTables(resp)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "wrote %s\n", out)
		return nil
	case "table", "":
		formatInsight(w, resp)
		return nil
	default:
		return eris.Errorf("unknown format %q (want table, json, csv or xlsx)", format)
	}
}

// formatInsight writes a human-readable summary of a response.
func formatInsight(out io.Writer, resp *insight.Response) {
	_, _ = fmt.Fprintf(out, "%s (%s) %d, %s lens\n", resp.RegionCode, resp.Level, resp.Year, resp.Lens)
	if resp.PeerContext.PeerGroupLabel != "" {
		_, _ = fmt.Fprintf(out, "Peers: %d %s\n", resp.PeerContext.PeerCount, resp.PeerContext.PeerGroupLabel)
	}
	if resp.Archetype != nil {
		_, _ = fmt.Fprintf(out, "Archetype: %s\n", resp.Archetype.Label)
	}
	if mi := resp.MetricInsights; mi != nil {
		for _, h := range mi.Highlights {
			_, _ = fmt.Fprintf(out, "  - %s\n", h)
		}
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SIGNAL\tOUTCOME\tHOLDS\tCONCLUSION")
	_, _ = fmt.Fprintln(w, "------\t-------\t-----\t----------")
	for i, s := range resp.Signals {
		holds := "-"
		if i < len(resp.Persistence) {
			holds = string(resp.Persistence[i].HoldsIn)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Label, s.Outcome, holds, s.Conclusion)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	writeImplications(out, "Logistics", resp.Logistics)
	writeImplications(out, strings.ToUpper(string(resp.Lens[:1]))+string(resp.Lens[1:]), resp.Positioning)
}

func writeImplications(out io.Writer, title string, imp lens.Implications) {
	_, _ = fmt.Fprintf(out, "%s:\n", title)
	for i, item := range imp.Items() {
		marker := "  -"
		if i == 0 {
			marker = "  *"
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", marker, item.Text)
	}
}
