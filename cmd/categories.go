package cmd

import (
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [label]",
	Short: "List categories with asset counts",
	Long:  "Without a label, lists ALL and the top-level labels. With a label, lists its subcategories.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		if len(args) == 0 {
			return printCategories(cmd.OutOrStdout(), h.Index.Categories())
		}
		cats, err := h.Index.SubCategories(args[0])
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), cats)
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets [label]",
	Short: "List the assets of a category, sorted by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		label := ""
		if len(args) > 0 {
			label = args[0]
		}
		return printAssets(cmd.OutOrStdout(), h.Index.Assets(label))
	},
}

func init() {
	categoriesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	assetsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	rootCmd.AddCommand(categoriesCmd, assetsCmd)
}
