// Package sqlite provides read-only access to a Calibre library's metadata.db.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It implements driven.MetadataStore over the Calibre
// schema (books, comments, identifiers). The database is opened with
// mode=ro; the adapter never writes to the library.
//
// # Query Language
//
// SearchByTerm accepts a small boolean language: words separated by
// whitespace, commas or semicolons, combined with AND / OR
// (case-insensitive). Adjacent words are implicitly ANDed and there are
// no parentheses or NOT. "a b OR c" matches books containing both a and
// b, or containing c. Each word is matched with LIKE against the title,
// the legacy isbn column and the comments. Matching is case-insensitive
// through SQLite's lower(), which folds ASCII letters only: "Übersicht"
// matches "übersicht" nowhere, but always matches itself.
//
// # Thread Safety
//
// All operations are safe for concurrent use.
package sqlite
