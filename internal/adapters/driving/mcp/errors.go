// Package mcp provides an MCP (Model Context Protocol) server adapter for shelfsearch.
// It exposes the book library to AI assistants as search, excerpt and research tools.
package mcp

import (
	"encoding/json"
	"errors"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// ErrMissingLibraryService is returned when the library service is not provided.
var ErrMissingLibraryService = errors.New("mcp: library service is required")

// CallError is a tool failure reported to the caller as a {code, message}
// JSON object in an error result.
type CallError struct {
	domain.ToolError
	err error
}

// Error returns the JSON form of the tool error.
func (e *CallError) Error() string {
	data, err := json.Marshal(e.ToolError)
	if err != nil {
		return e.ToolError.Error()
	}
	return string(data)
}

// Unwrap returns the underlying failure.
func (e *CallError) Unwrap() error {
	return e.err
}

// newCallError classifies err into a tool error.
func newCallError(err error) *CallError {
	return &CallError{
		ToolError: domain.ToolError{Code: domain.ClassifyError(err), Message: err.Error()},
		err:       err,
	}
}
