package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diewo77/go-deliveries/internal/export"
	"github.com/diewo77/go-deliveries/internal/ledger"
)

var (
	exportLocation int64
	exportStart    string
	exportEnd      string
	exportOut      string
	exportLang     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a location's deliveries to an .xlsx file",
	Long: `Export writes the delivery log of one location, optionally bounded
by inclusive start/end dates, together with the period and all-time totals.

Example:
  deliveries export --location 3
  deliveries export --location 3 --start 2024-05-01 --end 2024-05-31 -o may.xlsx
  deliveries export --location 3 -o - > log.xlsx`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Int64Var(&exportLocation, "location", 0, "location id (required)")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "first day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "last day, YYYY-MM-DD")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file, - for stdout (default deliveries-<id>-<date>.xlsx)")
	exportCmd.Flags().StringVar(&exportLang, "lang", "", "label language (sr or en; default APP_LANG)")
	_ = exportCmd.MarkFlagRequired("location")
}

func runExport(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	ctrl := newController(st)

	ctrl.Locations.FetchAll(ctx)
	if ctrl.Session.Snapshot().LocationsFailed {
		return errors.New("could not load locations; see the log")
	}
	if err := ctrl.Deliveries.Select(ctx, exportLocation); err != nil {
		return fmt.Errorf("location %d: %w", exportLocation, err)
	}
	if exportStart != "" || exportEnd != "" {
		if err := ctrl.Deliveries.ApplyFilter(ctx, exportStart, exportEnd); err != nil {
			return err
		}
	}
	snap := ctrl.Session.Snapshot()
	if snap.Panel.ListFailed {
		return errors.New("could not load deliveries; see the log")
	}

	lang := exportLang
	if lang == "" {
		lang = cfg.App.Lang
	}
	out := exportOut
	if out == "" {
		out = export.FileName(*snap.Selected, ctrl.Today())
	}
	if err := writeExport(cmd.OutOrStdout(), out, snap, ctrl.Formatter(lang)); err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d deliveries to %s\n", len(snap.Panel.Deliveries), out)
	}
	return nil
}

func writeExport(stdout io.Writer, out string, snap ledger.Snapshot, f ledger.Formatter) error {
	if out == "-" {
		return export.WriteDeliveries(stdout, *snap.Selected, snap.Panel, f)
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := export.WriteDeliveries(file, *snap.Selected, snap.Panel, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
