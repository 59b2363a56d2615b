package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the library",
	Long: `Runs a single full-text search over book titles and descriptions.

Terms joined with AND must all match; groups joined with OR are
alternatives, e.g. "CAN AND LIN OR FlexRay". Results pass through the
configured post-processing chain.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", driving.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	hits, err := libraryService.FulltextSearch(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.Hit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		// Format: [N] Title (ISBN)
		cmd.Printf("  [%d] %s", i+1, hits[i].Title)
		if hits[i].ISBN != "" {
			cmd.Printf(" (ISBN %s)", hits[i].ISBN)
		}
		cmd.Println()
		if hits[i].Snippet != "" {
			cmd.Printf("      %s\n", hits[i].Snippet)
		}
		cmd.Println()
	}
	return nil
}
