package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/agentic-research/simready/internal/source"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [output.db]",
	Short: "Export the traversed catalog listings into a SQLite database",
	Long: "Traverses every root and writes each listing plus a flat asset table into a SQLite file. " +
		"The file can be served back with source kind sqlite.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := args[0]
		start := time.Now()

		// 1. Traverse
		h, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		// 2. Setup writer
		_ = os.Remove(output) // Overwrite
		writer, err := source.NewSQLiteWriter(output)
		if err != nil {
			return err
		}

		// 3. Export
		n, err := h.Index.Export(cmd.Context(), h.Source, h.Traverser.ListingLocator, writer)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d folders, %d assets to %s in %v.\n",
			n, h.Index.Snapshot().Len(), output, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
