package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

const defaultWrapWidth = 80

var (
	askConversation string
	askJSON         bool
	askChat         bool
	askPlain        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a research question",
	Long: `Runs a research session: plans keyword queries, searches the library
over up to research.max_search_rounds rounds, gathers excerpts and prints
a cited answer.

Pass --conversation with the ID printed by a previous answer to ask a
follow-up question. --chat starts an interactive session that carries the
conversation automatically; type "exit" or press Ctrl-D to leave.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if askChat {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "continue a conversation")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full result as JSON")
	askCmd.Flags().BoolVar(&askChat, "chat", false, "interactive follow-up session")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print markdown without terminal rendering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireResearch(); err != nil {
		return err
	}

	if askChat {
		return runChat(cmd, cmd.InOrStdin(), strings.Join(args, " "))
	}

	result, err := ask(cmd, strings.Join(args, " "), askConversation)
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func ask(cmd *cobra.Command, question, conversationID string) (*domain.ResearchResult, error) {
	result, err := researchService.Research(cmd.Context(), domain.ResearchRequest{
		Question:       question,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("research failed: %w", err)
	}
	return result, nil
}

// runChat reads questions line by line until EOF or "exit", carrying the
// conversation between turns. first, when set, is asked before reading.
func runChat(cmd *cobra.Command, in io.Reader, first string) error {
	conversationID := askConversation
	defer func() {
		if conversationID == "" {
			return
		}
		if err := researchService.EndConversation(cmd.Context(), conversationID); err != nil {
			logger.Debug("ending conversation %s: %v", conversationID, err)
		}
	}()

	turn := func(question string) error {
		result, err := ask(cmd, question, conversationID)
		if err != nil {
			return err
		}
		conversationID = result.ConversationID
		return printResult(cmd, result)
	}

	if strings.TrimSpace(first) != "" {
		if err := turn(first); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := turn(question); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
}

func printResult(cmd *cobra.Command, result *domain.ResearchResult) error {
	if askJSON {
		return outputJSON(cmd, result)
	}

	md := answerMarkdown(result)
	if !askPlain {
		if width, ok := terminalWidth(cmd.OutOrStdout()); ok {
			rendered, err := renderMarkdown(md, width)
			if err == nil {
				cmd.Print(rendered)
				return nil
			}
			logger.Debug("markdown rendering failed: %v", err)
		}
	}
	cmd.Println(md)
	return nil
}

// answerMarkdown formats the answer, its sources and any warnings.
func answerMarkdown(result *domain.ResearchResult) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(result.Answer))
	b.WriteString("\n")

	if len(result.Sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		for i, src := range result.Sources {
			fmt.Fprintf(&b, "%d. %s", i+1, src.Title)
			if src.ISBN != "" {
				fmt.Fprintf(&b, " (ISBN %s)", src.ISBN)
			}
			b.WriteString("\n")
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\n> %s\n", w)
	}

	fmt.Fprintf(&b, "\n_conversation %s, %d round(s), %d hit(s)_\n",
		result.ConversationID, result.Rounds, len(result.Hits))
	return b.String()
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWrapWidth, true
	}
	return width, true
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
