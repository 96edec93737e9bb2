package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/archetype"
	"github.com/regioniq/insight-cli/internal/lens"
	"github.com/regioniq/insight-cli/internal/signal"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Inspect and validate the signal catalogue",
}

var signalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured signals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		formatSignals(os.Stdout, cat)
		return nil
	},
}

var signalsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalogue against the archetype and lens tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("offline"); err != nil {
			return err
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		if err := validateTables(cat); err != nil {
			return err
		}
		zap.L().Info("signal catalogue valid",
			zap.String("version", cat.Version),
			zap.Int("signals", len(cat.Signals)),
		)
		return nil
	},
}

var signalsDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the active catalogue as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		data, err := signal.MarshalCatalog(cat)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	signalsCmd.AddCommand(signalsListCmd, signalsValidateCmd, signalsDumpCmd)
	rootCmd.AddCommand(signalsCmd)
}

// validateTables checks the catalogue and every rule table that references it.
func validateTables(cat signal.Catalog) error {
	if err := cat.Validate(); err != nil {
		return err
	}
	if err := archetype.ValidateRules(archetype.DefaultRules(), cat); err != nil {
		return eris.Wrap(err, "archetype rules")
	}
	if err := lens.ValidateRules(lens.LogisticsRules(), cat); err != nil {
		return eris.Wrap(err, "logistics rules")
	}
	for _, l := range lens.Lenses {
		if err := lens.ValidateRules(lens.RulesFor(l), cat); err != nil {
			return eris.Wrapf(err, "%s lens rules", l)
		}
	}
	return nil
}

// formatSignals writes a table of signal ids, kinds and inputs.
func formatSignals(out io.Writer, cat signal.Catalog) {
	_, _ = fmt.Fprintf(out, "catalog version %s\n\n", cat.Version)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLABEL\tKIND\tMETRICS")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t-------")
	for _, s := range cat.Signals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Label, s.Kind, strings.Join(s.Metrics(), ","))
	}
	_ = w.Flush()
}
