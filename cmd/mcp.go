package cmd

import (
	"github.com/agentic-research/simready/internal/catalog"
	"github.com/agentic-research/simready/internal/mcpserver"
	"github.com/agentic-research/simready/internal/source"
	"github.com/spf13/cobra"
)

var watchLocal bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the catalog as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openCatalog()
		if err != nil {
			return err
		}
		defer func() { _ = h.Close() }()

		policy, err := settings.Policy()
		if err != nil {
			return err
		}
		h.Index.Start(cmd.Context())
		startWatch(cmd, h)

		return mcpserver.New(h.Index, policy, settings.DefaultPhysics, logger).ServeStdio()
	},
}

// startWatch reloads folders on listing changes for local sources.
func startWatch(cmd *cobra.Command, h *catalogHandle) {
	if !watchLocal {
		return
	}
	if kind := settings.Source.Kind; kind != "" && kind != source.KindLocal {
		logger.Warn("--watch needs a local source, not %s", kind)
		return
	}
	base := settings.Source.LocalRoot
	if base == "" {
		base = "/"
	}
	go func() {
		ctx := cmd.Context()
		if err := h.Index.Wait(ctx); err != nil {
			return
		}
		w := &catalog.Watcher{Index: h.Index, Base: base, ListingFile: settings.ListingFile, Log: logger}
		if err := w.Run(ctx); err != nil {
			logger.Error("watch: %v", err)
		}
	}()
}

func init() {
	mcpCmd.Flags().BoolVar(&watchLocal, "watch", false, "Reload folders when their listing changes")
	rootCmd.AddCommand(mcpCmd)
}
