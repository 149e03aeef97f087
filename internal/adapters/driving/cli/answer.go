package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driving"
)

var (
	answerRelease   string
	answerK         int
	answerMaxTokens int
	answerJSON      bool
)

var answerCmd = &cobra.Command{
	Use:   "answer [question]",
	Short: "Answer a question with citations from the documentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnswer,
}

func init() {
	answerCmd.Flags().StringVar(&answerRelease, "release", "", "restrict retrieval to one release")
	answerCmd.Flags().IntVarP(&answerK, "k", "k", 0, "number of chunks to retrieve")
	answerCmd.Flags().IntVar(&answerMaxTokens, "max-tokens", 0, "answer length bound")
	answerCmd.Flags().BoolVar(&answerJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := application.VectorStore.Connect(ctx); err != nil {
		return fmt.Errorf("connecting vector store: %w", err)
	}
	if _, err := application.Indexer.Sync(ctx); err != nil {
		return fmt.Errorf("syncing vector store: %w", err)
	}

	response, err := application.RAG.Answer(ctx, driving.AnswerRequest{
		Query:     args[0],
		Filters:   domain.SearchFilters{Release: answerRelease},
		MaxTokens: answerMaxTokens,
		K:         answerK,
	})
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if answerJSON {
		data, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(response.Answer)
	if len(response.Citations) > 0 {
		cmd.Println("\nSources:")
		for i, c := range response.Citations {
			cmd.Printf("  [%d] %s, lines %d-%d (%s)\n", i+1, c.File, c.LineStart, c.LineEnd, c.Heading)
		}
	}
	if response.InsufficientEvidence {
		cmd.Println("\nNote: the documentation may not fully cover this question.")
	}
	return nil
}
