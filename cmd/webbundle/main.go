package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Per-build flags, merged over the config file
	flagRoot        string
	flagOut         string
	flagEntrypoints []string
	flagShell       string
	flagExclude     []string
	flagNoScripts   bool
	flagNoCSS       bool

	// Logger
	logger *zap.Logger
)

const version = "1.0.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "webbundle",
	Short: "webbundle - multi-document web application bundler",
	Long: `webbundle merges the HTML documents, scripts and stylesheets of a
multi-document web application into a minimal set of delivery bundles.

It discovers the dependency graph between documents, partitions it per
entrypoint (optionally hoisting shared dependencies into a shell document),
inlines each bundle into a single file, and emits the reconciled file set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the webbundle version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("webbundle %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "webbundle.yaml", "project configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	for _, cmd := range []*cobra.Command{bundleCmd, watchCmd} {
		cmd.Flags().StringVar(&flagRoot, "root", "", "project root directory")
		cmd.Flags().StringVar(&flagOut, "out", "", "output directory for the bundled file set")
		cmd.Flags().StringArrayVar(&flagEntrypoints, "entrypoint", nil, "entrypoint document (repeatable, order is the bundle tie-break)")
		cmd.Flags().StringVar(&flagShell, "shell", "", "shell document for the shell-merge strategy")
		cmd.Flags().StringArrayVar(&flagExclude, "exclude", nil, "glob pattern to skip during ingestion (repeatable)")
		cmd.Flags().BoolVar(&flagNoScripts, "no-inline-scripts", false, "leave script references external")
		cmd.Flags().BoolVar(&flagNoCSS, "no-inline-css", false, "leave stylesheet references external")
	}

	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
