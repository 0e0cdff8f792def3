package cmd

import (
	"fmt"
	"strings"

	"github.com/agentic-research/simready/internal/search"
	"github.com/spf13/cobra"
)

var searchCategory string

var searchCmd = &cobra.Command{
	Use:   "search [words...]",
	Short: "Find assets whose name or tags contain every word",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		policy, err := settings.Policy()
		if err != nil {
			return err
		}
		session := search.NewSession(h.Index, policy)
		if searchCategory != "" {
			session.SelectCategory(searchCategory)
		}
		res := session.Search(args)
		if res.Reset && searchCategory != "" {
			logger.Info("category %s does not apply to %q, searched ALL", searchCategory, strings.Join(args, " "))
		}

		out := cmd.OutOrStdout()
		if err := printAssets(out, res.Records); err != nil {
			return err
		}
		if !jsonOutput && len(res.Suggestions) > 0 {
			_, err = fmt.Fprintf(out, "tags: %s\n", strings.Join(res.Suggestions, ", "))
		}
		return err
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Search within a category label, e.g. furniture/seat")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	rootCmd.AddCommand(searchCmd)
}
