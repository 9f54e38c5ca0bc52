package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/sheets"
	reportingsvc "github.com/mamadbah2/stockroom/internal/service/reporting"
)

var (
	reportSave bool
	reportLast bool
)

// stockctl report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an inventory report",
	Long:  "Generate a report from the current inventory and print it as JSON. --save stores it; --last prints the last stored report instead.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportSave && reportLast {
			return fmt.Errorf("--save and --last cannot be combined")
		}

		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		svc := reportingsvc.NewService(a.repo, a.repo, nil, a.logger)

		var report models.InventoryReport
		if reportLast {
			report, err = svc.Latest(cmd.Context())
		} else {
			report, err = svc.Generate(cmd.Context())
		}
		if err != nil {
			return err
		}

		if reportSave {
			if err := svc.Save(cmd.Context(), report); err != nil {
				return err
			}
		}
		return printReport(cmd.OutOrStdout(), report)
	},
}

// stockctl export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inventory to Google Sheets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if !a.cfg.Sheets.Enabled() {
			return reportingsvc.ErrSheetsDisabled
		}
		sheetsRepo, err := sheets.NewGoogleSheetRepository(cmd.Context(), a.cfg.Sheets, a.logger.Named("sheets"))
		if err != nil {
			return err
		}

		if err := reportingsvc.NewService(a.repo, a.repo, sheetsRepo, a.logger).Export(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "inventory exported")
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "store the generated report in MongoDB")
	reportCmd.Flags().BoolVar(&reportLast, "last", false, "print the last stored report")
}

func printReport(w io.Writer, report models.InventoryReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nvalue at cost %s, at retail %s\n",
		inventory.FormatCurrency(report.CostValue), inventory.FormatCurrency(report.RetailValue))
	if alert := reportingsvc.LowStockAlert(report); alert != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, alert)
	}
	return nil
}
