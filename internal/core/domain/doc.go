// Package domain defines the core research entities for shelfsearch.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Question: a user question, optionally blended with the previous turn
//   - SearchQuery: one lookup issued against the metadata store
//   - RawHit / Hit: store rows and their deduplicated aggregate
//   - Excerpt: a short text fragment for one book
//   - SessionContext: the carryover from the previous turn
//   - ResearchConfig: the validated limits of one research session
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
