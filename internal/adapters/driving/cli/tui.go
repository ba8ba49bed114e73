package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive operator console",
	Long: `Opens a terminal console showing the latest integrity report and the
deletion audit trail. Press a to run auto-repair, tab to switch views and
? for help.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app, err := tui.NewApp(commandContext(cmd), &tui.Ports{
		Integrity: integrityService,
		Audit:     auditService,
		Repair:    repairService,
	})
	if err != nil {
		return err
	}
	return app.Run()
}
