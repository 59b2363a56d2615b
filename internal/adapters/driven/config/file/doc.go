// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.shelfsearch/config.toml
//   - PromptStore: editable prompt templates under ~/.shelfsearch/prompts/,
//     reloaded when the files change
package file
