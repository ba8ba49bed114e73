package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

var (
	deleteTenant string
	deleteActor  string
	deleteJSON   bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document from every store",
	Long: `Deletes a document from the relational store, search index, vector index,
local blob storage and remote blob storage as one operation.

If any store fails, every change already made is reverted and the command
exits non-zero. A failed revert is recorded in the audit trail as requiring
manual intervention.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteTenant, "tenant", "t", "", "tenant that owns the document (required)")
	deleteCmd.Flags().StringVar(&deleteActor, "actor", "", "who is deleting, recorded in the audit trail (default $USER)")
	deleteCmd.Flags().BoolVar(&deleteJSON, "json", false, "output the outcome as JSON")
	_ = deleteCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deletionService == nil {
		return errors.New("deletion service not configured")
	}

	actor := deleteActor
	if actor == "" {
		actor = os.Getenv("USER")
	}
	if actor == "" {
		actor = "cli"
	}

	outcome, err := deletionService.DeleteDocument(commandContext(cmd), domain.DeletionRequest{
		DocumentID: args[0],
		TenantID:   deleteTenant,
		Actor:      actor,
	})
	if outcome != nil {
		if deleteJSON {
			if jsonErr := outputJSON(cmd, outcome); jsonErr != nil {
				return jsonErr
			}
		} else {
			printDeletionOutcome(cmd, args[0], outcome)
		}
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}
	return nil
}

func printDeletionOutcome(cmd *cobra.Command, documentID string, outcome *domain.DeletionOutcome) {
	st := newStyles(cmd.OutOrStdout())

	switch outcome.State {
	case domain.StateFinalized:
		cmd.Printf("%s %s\n", st.ok.Render("Deleted"), documentID)
	case domain.StateRollbackFailed:
		cmd.Printf("%s %s: rollback failed, manual intervention required\n", st.bad.Render("FAILED"), documentID)
	default:
		cmd.Printf("%s %s (%s)\n", st.warn.Render("Not deleted"), documentID, outcome.State)
	}

	if outcome.Audit == nil {
		return
	}
	if outcome.Audit.ID != "" {
		cmd.Printf("  Audit: %s\n", st.dim.Render(outcome.Audit.ID))
	}
	for _, p := range outcome.Audit.Phases {
		store := string(p.Store)
		if store == "" {
			store = "-"
		}
		var result string
		switch {
		case p.Skipped:
			result = st.dim.Render("skipped")
		case p.Success && p.Warning != "":
			result = st.warn.Render("warning: " + st.truncate(p.Warning, 40))
		case p.Success:
			result = st.ok.Render("ok")
		default:
			result = st.bad.Render("error: " + st.truncate(p.Error, 40))
		}
		cmd.Printf("  %-9s %-12s %s\n", p.Phase, store, result)
	}
}
