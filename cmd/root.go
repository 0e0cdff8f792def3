package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/catalog"
	"github.com/agentic-research/simready/internal/config"
	"github.com/agentic-research/simready/internal/graph"
	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/source"
	"github.com/spf13/cobra"
)

var (
	configPath string
	rootFlags  []string
	logLevel   string

	settings *config.Settings
	logger   *log.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to settings file (default ~/.simready/simready.yaml)")
	rootCmd.PersistentFlags().StringSliceVarP(&rootFlags, "root", "r", nil, "Catalog root folder (repeatable, overrides settings)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

var rootCmd = &cobra.Command{
	Use:           "simready",
	Short:         "SimReady: index and search 3D asset catalogs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. Resolve settings path
		if configPath == "" {
			if home, err := os.UserHomeDir(); err == nil {
				configPath = filepath.Join(home, ".simready", "simready.yaml")
			}
		}

		// 2. Load settings, then apply flag overrides
		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(rootFlags) > 0 {
			s.Roots = rootFlags
		}
		if logLevel != "" {
			s.Log.Level = logLevel
		}
		if err := s.Validate(); err != nil {
			return err
		}
		settings = s

		// 3. Logger; stdout belongs to command output
		logger = log.New(s.LogOptions("simready"))
		return nil
	},
}

// catalogHandle bundles an index with the resources it holds open.
type catalogHandle struct {
	Index     *catalog.Index
	Source    source.Source
	Traverser *ingest.Traverser
	closer    io.Closer
}

func (h *catalogHandle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

func openCatalog() (*catalogHandle, error) {
	if len(settings.Roots) == 0 {
		return nil, fmt.Errorf("no catalog roots configured; use --root or set roots in %s", configPath)
	}
	src, closer, err := source.Open(settings.Source)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	tr, err := ingest.NewTraverser(src, asset.DefaultRegistry(logger.Named("registry")), graph.NewInterner(), settings.Selector)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	tr.ListingFile = settings.ListingFile
	tr.Recurse = settings.Recurse
	tr.Log = logger

	x := catalog.New(tr, settings.Roots, catalog.Options{
		Concurrency: settings.Concurrency,
		Log:         logger,
	})
	return &catalogHandle{Index: x, Source: src, Traverser: tr, closer: closer}, nil
}

// loadCatalog opens the catalog and waits until every folder is traversed.
func loadCatalog(ctx context.Context) (*catalogHandle, error) {
	h, err := openCatalog()
	if err != nil {
		return nil, err
	}
	h.Index.Start(ctx)
	if err := h.Index.Wait(ctx); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
