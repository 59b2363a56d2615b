// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - MetadataStore: Read-only lookups against the book library
//   - ConfigStore: Application configuration
//   - ConversationStore: Context carried between turns of a conversation
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LanguageService: Keyword extraction, refinement and answer prose.
//     Without it, planning is heuristic and answers are templated.
//   - LLMService: Raw model access used to build a LanguageService.
//   - PromptStore: Editable prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
