package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/simready/internal/scene"
	"github.com/spf13/cobra"
)

var (
	dropParent  string
	dropNear    []string
	dropReplace bool
)

var dropCmd = &cobra.Command{
	Use:   "drop [payload|-]",
	Short: "Decode drag payloads and record the insertions they describe",
	Long: "Reads newline-separated SimReady drag payloads from the argument or stdin and " +
		"prints one JSON line per inserted asset. Lines that fail are reported and skipped.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := args[0]
		if data == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			data = string(b)
		}

		prims := make([]scene.Prim, 0, len(dropNear))
		for _, s := range dropNear {
			p, err := scene.ParsePrim(s)
			if err != nil {
				return err
			}
			prims = append(prims, p)
		}

		journal := scene.NewJournal(cmd.OutOrStdout())
		var (
			paths []string
			err   error
		)
		if len(prims) > 0 {
			paths, err = scene.AddNearPrims(cmd.Context(), journal, data, prims, dropParent, dropReplace, logger)
		} else {
			paths, err = scene.AddFromDrag(cmd.Context(), journal, data, dropParent, logger)
		}
		if len(paths) == 0 && err != nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "added %d assets, some lines failed\n", len(paths))
		}
		return nil
	},
}

func init() {
	dropCmd.Flags().StringVar(&dropParent, "parent", "", "Parent prim path (default scene root)")
	dropCmd.Flags().StringArrayVar(&dropNear, "near", nil, "Selected prim as /path@x,y,z[:reference|:payload]; assets go to the prims' average position (repeatable)")
	dropCmd.Flags().BoolVar(&dropReplace, "replace", false, "With --near, insert under the selected prims' common parent")
	rootCmd.AddCommand(dropCmd)
}
