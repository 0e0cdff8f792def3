package cmd

import (
	"fmt"

	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse categories and search assets interactively",
	Long:  "Queued assets are printed as drag payloads on exit, ready for 'simready drop -'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stderr lines would tear the alt screen; only a log file survives
		if settings.Log.File == "" {
			logger = log.Nop()
		}
		h, err := openCatalog()
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		policy, err := settings.Policy()
		if err != nil {
			return err
		}
		startWatch(cmd, h)

		m := tui.NewModel(cmd.Context(), h.Index, policy, settings.DefaultPhysics)
		final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		if err != nil {
			return err
		}
		for _, line := range final.(tui.Model).Dropped() {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().BoolVar(&watchLocal, "watch", false, "Reload folders when their listing changes")
	rootCmd.AddCommand(browseCmd)
}
