package cmd

import (
	"fmt"

	"github.com/agentic-research/simready/internal/catalog"
	"github.com/spf13/cobra"
)

var payloadPhysics string

var payloadCmd = &cobra.Command{
	Use:   "payload [url...]",
	Short: "Print the drag payload for one or more assets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		byLocator := map[string]*catalog.Item{}
		for _, it := range catalog.Items(h.Index.Assets(""), settings.DefaultPhysics) {
			byLocator[it.Record.Locator] = it
		}

		items := make([]*catalog.Item, 0, len(args))
		for _, url := range args {
			it, ok := byLocator[url]
			if !ok {
				return fmt.Errorf("no asset with url %s", url)
			}
			if payloadPhysics != "" {
				if err := it.SetPhysics(payloadPhysics); err != nil {
					return err
				}
			}
			items = append(items, it)
		}

		data, err := catalog.DragData(items)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), data)
		return err
	},
}

func init() {
	payloadCmd.Flags().StringVar(&payloadPhysics, "physics", "", "Physics variant value, or "+catalog.NoPhysics)
	rootCmd.AddCommand(payloadCmd)
}
