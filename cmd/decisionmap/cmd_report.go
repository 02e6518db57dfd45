package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"decisionmap/application/queries"
	"decisionmap/domain/history"
	pkgerrors "decisionmap/pkg/errors"
)

var reportFlags struct {
	json bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the hidden-rule report over stored decisions",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportFlags.json, "json", false, "Print the report as JSON")
}

func runReport(cmd *cobra.Command, _ []string) error {
	container, cleanup, err := loadContainer(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if !container.Service.HistoryEnabled() {
		return pkgerrors.ErrHistoryDisabled
	}
	res, err := container.QueryBus.Ask(cmd.Context(), queries.HiddenRuleReportQuery{})
	if err != nil {
		return err
	}
	report := res.(history.HiddenRuleReport)

	out := cmd.OutOrStdout()
	if reportFlags.json {
		return writeJSON(out, report, true)
	}

	fmt.Fprintf(out, "Decisions: %d\n", report.TotalRecords)
	if len(report.Rules) == 0 {
		fmt.Fprintln(out, "No recurring patterns yet.")
		return nil
	}
	for _, r := range report.Rules {
		fmt.Fprintf(out, "  %-40s %3d records  %-6s  loss %d%%\n", r.Title, len(r.Evidence.Records), r.Confidence, r.Impact.AvgOptionLossPct)
	}
	return nil
}
