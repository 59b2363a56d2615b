// Package html converts HTML fragments to readable plain text.
// Book comments in a Calibre library are stored as HTML; snippets and
// excerpts are built from their text form.
package html
