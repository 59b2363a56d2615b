package language

import "github.com/custodia-labs/shelfsearch/internal/core/ports/driven"

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
// They seed the editable prompt files and serve as fallback when a file
// cannot be read.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptSystem: `You help people research questions using the books in their personal library.
Only rely on the search results you are given. Never invent titles, authors or ISBNs.`,

		driven.PromptKeywordExtraction: `Extract search keywords for a full-text search over book titles and descriptions.
Return only the keywords separated by spaces on a single line, most important first.
Use the language of the question. Do not add explanations.

Question: %s
Hint: %s
Keywords:`,

		driven.PromptQueryRefinement: `A library search for the question below found too few relevant books.
Suggest alternative search queries: synonyms, broader or narrower terms, related concepts.
Return one query per line, at most three words each, nothing else.

Question: %s

Books found so far:
%s

Hint: %s
Queries:`,

		driven.PromptAnswerComposition: `Answer the question using the search results from the library.
Refer to books by title and explain how each result contributes to the answer.
If the results do not answer the question, say so.

QUESTION:
%s

LIBRARY CONTEXT:
%s

Style: %s`,
	}
}
