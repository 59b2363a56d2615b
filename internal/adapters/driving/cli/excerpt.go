package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
)

var (
	excerptMaxChars int
	excerptAround   string
	excerptJSON     bool
)

var excerptCmd = &cobra.Command{
	Use:   "excerpt [isbn]",
	Short: "Show an excerpt of a book",
	Long: `Prints the description of the book carrying the given ISBN, truncated
to --max-chars. Hyphens and spaces in the ISBN are ignored. With --around
the excerpt is centred on the first occurrence of that text.`,
	Args: cobra.ExactArgs(1),
	RunE: runExcerpt,
}

func init() {
	excerptCmd.Flags().IntVar(&excerptMaxChars, "max-chars", driving.DefaultExcerptChars, "maximum excerpt length")
	excerptCmd.Flags().StringVar(&excerptAround, "around", "", "centre the excerpt on this text")
	excerptCmd.Flags().BoolVar(&excerptJSON, "json", false, "output the excerpt as JSON")
	rootCmd.AddCommand(excerptCmd)
}

func runExcerpt(cmd *cobra.Command, args []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	excerpt, err := libraryService.GetExcerpt(cmd.Context(), args[0], excerptAround, excerptMaxChars)
	if err != nil {
		return fmt.Errorf("excerpt failed: %w", err)
	}

	if excerptJSON {
		return outputJSON(cmd, excerpt)
	}

	cmd.Println(excerpt.Title)
	if excerpt.ISBN != "" {
		cmd.Printf("ISBN %s\n", excerpt.ISBN)
	}
	cmd.Println()
	cmd.Println(excerpt.Text)
	return nil
}
