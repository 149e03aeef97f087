package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdex/internal/corpus"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the corpus index and print its stats",
	RunE:  runIndex,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Invalidate every cache for the corpus root",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := application.Corpus.Refresh(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Caches invalidated.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(refreshCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	index, err := application.Index.Get(application.Cfg.Corpus.Root, corpus.GetOptions{})
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	cmd.Printf("Fingerprint: %s\n", index.Fingerprint)
	cmd.Printf("Files:       %d\n", index.FileCount)
	cmd.Printf("Sections:    %d\n", len(index.Sections))
	return nil
}
