package mcp

import (
	"net/http"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
)

// Metrics records tool calls and serves the metrics endpoint.
type Metrics interface {
	ToolCalled(tool, code string)
	Handler() http.Handler
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library answers fulltext_search and get_excerpt.
	Library driving.LibraryService

	// Research runs research sessions. Optional; the research tool is
	// only registered when set.
	Research driving.ResearchService

	// Settings backs the settings resource. Optional.
	Settings driving.SettingsService

	// Metrics is optional.
	Metrics Metrics
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	return nil
}
