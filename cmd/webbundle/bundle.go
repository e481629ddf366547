package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webbundle/internal/config"
	"webbundle/internal/engine"
	"webbundle/internal/store"
	"webbundle/internal/urlmap"
	"webbundle/internal/watch"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Run one build and write the bundled file set",
	Long: `Ingests every file under the project root, builds the dependency
graph, partitions it into bundles, inlines them, and writes the reconciled
file set to the output directory.

Example:
  webbundle bundle --root src --entrypoint index.html --entrypoint admin.html --shell shell.html --out dist`,
	RunE: runBundle,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever files under the project root change",
	RunE:  runWatch,
}

// loadConfig merges the project file, CLI flags, and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("root") {
		cfg.Root = flagRoot
	}
	if cmd.Flags().Changed("out") {
		cfg.OutDir = flagOut
	}
	if cmd.Flags().Changed("entrypoint") {
		cfg.Entrypoints = flagEntrypoints
	}
	if cmd.Flags().Changed("shell") {
		cfg.Shell = flagShell
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = flagExclude
	}
	if flagNoScripts {
		cfg.InlineScripts = false
	}
	if flagNoCSS {
		cfg.InlineStylesheets = false
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOnce runs the full pipeline: ingest, seal, build, write.
func buildOnce(ctx context.Context, cfg *config.Config) (*engine.Result, error) {
	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New()
	if err := engine.IngestTree(cfg.Root, st, cfg.Exclude, logger); err != nil {
		st.Discard()
		return nil, fmt.Errorf("ingestion aborted: %w", err)
	}
	st.Seal()

	res, err := engine.Build(ctx, st, opts, logger)
	if err != nil {
		return nil, err
	}
	if err := engine.WriteFiles(cfg.OutDir, res.Files); err != nil {
		return nil, err
	}
	return res, nil
}

// engineOptions maps the config's root-relative paths into the engine's URL
// space.
func engineOptions(cfg *config.Config) (engine.Options, error) {
	opts := engine.Options{
		InlineScripts:     cfg.InlineScripts,
		InlineStylesheets: cfg.InlineStylesheets,
	}
	for _, e := range cfg.Entrypoints {
		u, err := urlmap.PathToURL(cfg.Root, e)
		if err != nil {
			return engine.Options{}, err
		}
		opts.Entrypoints = append(opts.Entrypoints, u)
	}
	if cfg.Shell != "" {
		u, err := urlmap.PathToURL(cfg.Root, cfg.Shell)
		if err != nil {
			return engine.Options{}, err
		}
		opts.Shell = u
	}
	return opts, nil
}

func runBundle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := buildOnce(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Println(renderReport(cfg, res))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rebuild := func() {
		res, err := buildOnce(ctx, cfg)
		if err != nil {
			logger.Error("build failed", zap.Error(err))
			return
		}
		fmt.Println(renderReport(cfg, res))
	}

	// Initial build, then rebuild on change.
	rebuild()

	w, err := watch.New(cfg.Root, []string{cfg.OutDir}, rebuild, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "shutting down")
	return nil
}
