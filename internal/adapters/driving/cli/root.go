// Package cli provides the docdex command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/docdex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docdex/internal/app"
	"github.com/custodia-labs/docdex/internal/logger"
)

var (
	flagVerbose bool
	flagConfig  string
	flagRoot    string

	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Documentation retrieval service for multi-release corpora",
	Long: `docdex indexes a Markdown corpus organized by release and document
type, serves ranked section search and grounded answers with citations,
and proposes documentation edits with duplicate and conflict detection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		configPath := flagConfig
		if configPath == "" {
			var err error
			configPath, err = configfile.DefaultPath()
			if err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
		}
		cfg, err := configfile.Load(configPath)
		if err != nil {
			return err
		}
		if flagRoot != "" {
			cfg.Corpus.Root = flagRoot
		}
		if cfg.Corpus.Root == "" {
			return fmt.Errorf("corpus root is required (set --root or corpus.root in %s)", configPath)
		}
		if info, err := os.Stat(cfg.Corpus.Root); err != nil || !info.IsDir() {
			return fmt.Errorf("corpus root %s is not a readable directory", cfg.Corpus.Root)
		}

		application, err = app.New(cfg)
		return err
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if application != nil {
			application.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.docdex/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "corpus root directory (overrides config)")
}

// Execute runs the root command. A startup failure exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
