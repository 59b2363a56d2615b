package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// A missing prompt returns an error; callers fall back to built-ins.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptKeywordExtraction turns a question into search keywords.
	// Placeholders: %s (question), %s (hint).
	PromptKeywordExtraction = "keyword_extraction"

	// PromptQueryRefinement proposes follow-up queries.
	// Placeholders: %s (question), %s (hits so far), %s (hint).
	PromptQueryRefinement = "query_refinement"

	// PromptAnswerComposition writes the final answer.
	// Placeholders: %s (question), %s (search results), %s (style hint).
	PromptAnswerComposition = "answer_composition"

	// PromptSystem is the system prompt for every chat call. No placeholders.
	PromptSystem = "system"
)

// AllPromptNames lists every prompt the application loads.
func AllPromptNames() []string {
	return []string{
		PromptKeywordExtraction,
		PromptQueryRefinement,
		PromptAnswerComposition,
		PromptSystem,
	}
}
