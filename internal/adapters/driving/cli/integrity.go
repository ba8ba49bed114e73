package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

var integrityJSON bool

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check and repair store consistency",
}

var integrityCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare document counts against the derived indices",
	Long: `Counts documents by status and compares indexed documents against the
search and vector index entry counts. Flags indexed documents missing index
ids and documents stuck in processing. Never changes anything.`,
	Args: cobra.NoArgs,
	RunE: runIntegrityCheck,
}

var integrityRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Requeue drifted documents and fail stuck ones",
	Long: `Resets indexed documents that are missing a search or vector index id
to pending and resubmits them for ingestion. Marks documents stuck in
processing as failed. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runIntegrityRepair,
}

func init() {
	integrityCmd.PersistentFlags().BoolVar(&integrityJSON, "json", false, "output the report as JSON")
	integrityCmd.AddCommand(integrityCheckCmd)
	integrityCmd.AddCommand(integrityRepairCmd)
	rootCmd.AddCommand(integrityCmd)
}

func runIntegrityCheck(cmd *cobra.Command, _ []string) error {
	if integrityService == nil {
		return errors.New("integrity service not configured")
	}

	report, err := integrityService.RunIntegrityCheck(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if integrityJSON {
		return outputJSON(cmd, report)
	}
	printIntegrityReport(cmd, report)
	return nil
}

func printIntegrityReport(cmd *cobra.Command, report *domain.IntegrityReport) {
	st := newStyles(cmd.OutOrStdout())

	status := string(report.Status)
	switch report.Status {
	case domain.IntegrityHealthy:
		status = st.ok.Render(status)
	case domain.IntegrityStatusWarning:
		status = st.warn.Render(status)
	default:
		status = st.bad.Render(status)
	}
	cmd.Printf("%s %s\n\n", st.title.Render("Integrity:"), status)

	c := report.Counts
	cmd.Printf("  Documents: %d (indexed %d, stored %d, in flight %d, failed %d)\n",
		c.Total, c.Indexed, c.Stored, c.InFlight, c.Failed)
	cmd.Printf("  Search entries: %d\n", report.SearchCount)
	cmd.Printf("  Vector entries: %d\n", report.VectorCount)

	if len(report.Issues) > 0 {
		cmd.Println()
		cmd.Println(st.title.Render("Issues"))
		for _, issue := range report.Issues {
			cmd.Printf("  %s\n", st.truncate(issue.Message, 2))
		}
	}
	if len(report.Warnings) > 0 {
		cmd.Println()
		cmd.Println(st.title.Render("Warnings"))
		for _, w := range report.Warnings {
			cmd.Printf("  %-18s %s %s\n", w.Type, w.DocumentID, st.dim.Render(string(w.Status)))
		}
	}
}

func runIntegrityRepair(cmd *cobra.Command, _ []string) error {
	if repairService == nil {
		return errors.New("repair service not configured")
	}

	report, err := repairService.RunAutoRepair(commandContext(cmd))
	if report != nil {
		if integrityJSON {
			if jsonErr := outputJSON(cmd, report); jsonErr != nil {
				return jsonErr
			}
		} else {
			printRepairReport(cmd, report)
		}
	}
	if err != nil {
		return fmt.Errorf("auto-repair failed: %w", err)
	}
	return nil
}

func printRepairReport(cmd *cobra.Command, report *domain.RepairReport) {
	st := newStyles(cmd.OutOrStdout())

	if report.Total() == 0 && len(report.Errors) == 0 {
		cmd.Println("Nothing to repair.")
		return
	}
	cmd.Printf("Requeued: %d\n", len(report.Requeued))
	for _, id := range report.Requeued {
		cmd.Printf("  %s\n", id)
	}
	cmd.Printf("Marked failed: %d\n", len(report.MarkedFailed))
	for _, id := range report.MarkedFailed {
		cmd.Printf("  %s\n", id)
	}
	if len(report.Errors) > 0 {
		cmd.Printf("%s %d\n", st.bad.Render("Errors:"), len(report.Errors))
		for _, e := range report.Errors {
			cmd.Printf("  %s\n", st.truncate(e, 2))
		}
	}
}
