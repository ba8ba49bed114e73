package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

var (
	auditManual   bool
	auditDocument string
	auditLimit    int
	auditRepairs  bool
	auditJSON     bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deletion attempts or repair actions",
	Long: `Lists deletion attempts, most recent first. Use --manual to show only
attempts whose rollback failed, and --repairs to list auto-repair actions
instead.`,
	Args: cobra.NoArgs,
	RunE: runAuditList,
}

func init() {
	auditListCmd.Flags().BoolVar(&auditManual, "manual", false, "only attempts requiring manual intervention")
	auditListCmd.Flags().StringVarP(&auditDocument, "document", "d", "", "only attempts for this document")
	auditListCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "maximum number of records (0 = all)")
	auditListCmd.Flags().BoolVar(&auditRepairs, "repairs", false, "list repair actions instead of deletions")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "output records as JSON")
	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, _ []string) error {
	if auditService == nil {
		return errors.New("audit service not configured")
	}
	ctx := commandContext(cmd)

	if auditRepairs {
		actions, err := auditService.ListRepairs(ctx, auditLimit)
		if err != nil {
			return fmt.Errorf("failed to list repairs: %w", err)
		}
		if auditJSON {
			return outputJSON(cmd, actions)
		}
		printRepairActions(cmd, actions)
		return nil
	}

	audits, err := auditService.ListDeletions(ctx, domain.AuditFilter{
		DocumentID: auditDocument,
		ManualOnly: auditManual,
		Limit:      auditLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list deletions: %w", err)
	}
	if auditJSON {
		return outputJSON(cmd, audits)
	}
	printDeletionAudits(cmd, audits)
	return nil
}

func printDeletionAudits(cmd *cobra.Command, audits []domain.DeletionAudit) {
	if len(audits) == 0 {
		cmd.Println("No deletion records found.")
		return
	}
	st := newStyles(cmd.OutOrStdout())

	for i := range audits {
		a := &audits[i]
		status := string(a.Status)
		switch a.Status {
		case domain.AuditSuccess:
			status = st.ok.Render(status)
		case domain.AuditRollbackFailed:
			status = st.bad.Render(status)
		default:
			status = st.warn.Render(status)
		}
		cmd.Printf("%s  %s  %s\n", a.CompletedAt.Local().Format(time.DateTime), a.DocumentID, status)
		cmd.Printf("  Tenant: %s  Actor: %s\n", a.TenantID, a.Actor)
		if a.Filename != "" {
			cmd.Printf("  File: %s\n", a.Filename)
		}
		if a.Error != "" {
			cmd.Printf("  Error: %s\n", st.truncate(a.Error, 9))
		}
		if a.RequiresManualIntervention {
			cmd.Printf("  %s\n", st.bad.Render("Requires manual intervention"))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d records\n", len(audits))
}

func printRepairActions(cmd *cobra.Command, actions []domain.RepairAction) {
	if len(actions) == 0 {
		cmd.Println("No repair records found.")
		return
	}
	for i := range actions {
		a := &actions[i]
		cmd.Printf("%s  %-13s %s (was %s)\n", a.At.Local().Format(time.DateTime), a.Action, a.DocumentID, a.PreviousStatus)
	}
	cmd.Printf("Total: %d records\n", len(actions))
}
