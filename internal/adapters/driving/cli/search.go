package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

var (
	searchRelease  string
	searchService  string
	searchDocTypes []string
	searchMax      int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search documentation sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchRelease, "release", "", "restrict to one release (e.g. R2)")
	searchCmd.Flags().StringVar(&searchService, "service", "", "restrict to sections mentioning a service")
	searchCmd.Flags().StringSliceVar(&searchDocTypes, "doc-type", nil, "restrict to document types")
	searchCmd.Flags().IntVarP(&searchMax, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	hits, err := application.Search.Search(cmd.Context(), args[0], domain.SearchOptions{
		Filters: domain.SearchFilters{
			Release:  searchRelease,
			Service:  searchService,
			DocTypes: searchDocTypes,
		},
		MaxResults: searchMax,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("  [%d] %s  %s:%d-%d (%.0f)\n", i+1,
			hit.Section.Heading, hit.Section.File,
			hit.Section.LineStart, hit.Section.LineEnd, hit.Score)
		for _, reason := range hit.MatchReasons {
			cmd.Printf("      %s\n", reason)
		}
	}
	return nil
}
