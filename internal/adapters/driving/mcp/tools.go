package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Tool names.
const (
	ToolFulltextSearch = "fulltext_search"
	ToolGetExcerpt     = "get_excerpt"
	ToolResearch       = "research"
)

// FulltextSearchInput is the input schema for the fulltext_search tool.
type FulltextSearchInput struct {
	Query string `json:"query" jsonschema:"keywords to look up; join terms with AND or OR, e.g. CAN OR LIN"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of hits, 1 to 100 (default 10)"`
}

// FulltextSearchOutput is the output schema for the fulltext_search tool.
type FulltextSearchOutput struct {
	Hits  []HitOutput `json:"hits"`
	Count int         `json:"count"`
}

// HitOutput is a single book matching a search.
type HitOutput struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	ISBN    string `json:"isbn,omitempty"`
	Snippet string `json:"snippet"`
}

// GetExcerptInput is the input schema for the get_excerpt tool.
type GetExcerptInput struct {
	ISBN     string `json:"isbn" jsonschema:"ISBN-10 or ISBN-13 of the book, hyphens allowed"`
	Around   string `json:"around,omitempty" jsonschema:"optional phrase to centre the excerpt on"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"maximum excerpt length, 200 to 8000 (default 1500)"`
}

// GetExcerptOutput is the output schema for the get_excerpt tool.
type GetExcerptOutput struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	ISBN    string `json:"isbn,omitempty"`
	Excerpt string `json:"excerpt"`
	Source  string `json:"source,omitempty"`
}

// ResearchInput is the input schema for the research tool.
type ResearchInput struct {
	Question       string `json:"question" jsonschema:"the question to research in the library"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to continue for follow-up questions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolFulltextSearch,
		Description: "Search book titles, ISBNs and descriptions in the Calibre library",
	}, s.handleFulltextSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGetExcerpt,
		Description: "Get a text excerpt from the description of the book with the given ISBN",
	}, s.handleGetExcerpt)

	if s.ports.Research != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        ToolResearch,
			Description: "Research a question across the library and answer it with cited sources",
		}, s.handleResearch)
	}
}

// handleFulltextSearch handles the fulltext_search tool invocation.
func (s *Server) handleFulltextSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FulltextSearchInput,
) (*mcp.CallToolResult, FulltextSearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, FulltextSearchOutput{}, s.fail(ToolFulltextSearch,
			fmt.Errorf("query is required: %w", domain.ErrInvalidInput))
	}
	limit := input.Limit
	if limit == 0 {
		limit = driving.DefaultSearchLimit
	}
	if limit < driving.MinSearchLimit || limit > driving.MaxSearchLimit {
		return nil, FulltextSearchOutput{}, s.fail(ToolFulltextSearch,
			fmt.Errorf("limit must be between %d and %d: %w",
				driving.MinSearchLimit, driving.MaxSearchLimit, domain.ErrInvalidInput))
	}

	hits, err := s.ports.Library.FulltextSearch(ctx, query, limit)
	if err != nil {
		return nil, FulltextSearchOutput{}, s.fail(ToolFulltextSearch, err)
	}

	output := FulltextSearchOutput{
		Hits:  make([]HitOutput, len(hits)),
		Count: len(hits),
	}
	for i := range hits {
		output.Hits[i] = HitOutput{
			BookID:  hits[i].BookID,
			Title:   hits[i].Title,
			ISBN:    hits[i].ISBN,
			Snippet: hits[i].Snippet,
		}
	}

	s.record(ToolFulltextSearch, "ok")
	return nil, output, nil
}

// handleGetExcerpt handles the get_excerpt tool invocation.
func (s *Server) handleGetExcerpt(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetExcerptInput,
) (*mcp.CallToolResult, GetExcerptOutput, error) {
	isbn := strings.TrimSpace(input.ISBN)
	if isbn == "" {
		return nil, GetExcerptOutput{}, s.fail(ToolGetExcerpt,
			fmt.Errorf("isbn is required: %w", domain.ErrInvalidInput))
	}
	maxChars := input.MaxChars
	if maxChars == 0 {
		maxChars = driving.DefaultExcerptChars
	}
	if maxChars < driving.MinExcerptChars || maxChars > driving.MaxExcerptChars {
		return nil, GetExcerptOutput{}, s.fail(ToolGetExcerpt,
			fmt.Errorf("max_chars must be between %d and %d: %w",
				driving.MinExcerptChars, driving.MaxExcerptChars, domain.ErrInvalidInput))
	}

	ex, err := s.ports.Library.GetExcerpt(ctx, isbn, input.Around, maxChars)
	if err != nil {
		return nil, GetExcerptOutput{}, s.fail(ToolGetExcerpt, err)
	}

	s.record(ToolGetExcerpt, "ok")
	return nil, GetExcerptOutput{
		BookID:  ex.BookID,
		Title:   ex.Title,
		ISBN:    ex.ISBN,
		Excerpt: ex.Text,
		Source:  string(ex.SourceHint),
	}, nil
}

// handleResearch handles the research tool invocation.
func (s *Server) handleResearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInput,
) (*mcp.CallToolResult, domain.ResearchResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.ResearchResult{}, s.fail(ToolResearch,
			fmt.Errorf("question is required: %w", domain.ErrInvalidInput))
	}

	result, err := s.ports.Research.Research(ctx, domain.ResearchRequest{
		Question:       question,
		ConversationID: strings.TrimSpace(input.ConversationID),
	})
	if err != nil {
		return nil, domain.ResearchResult{}, s.fail(ToolResearch, err)
	}

	s.record(ToolResearch, "ok")
	return nil, *result, nil
}

// fail converts err into a structured tool error and records it.
func (s *Server) fail(tool string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.record(tool, "cancelled")
		return err
	}
	callErr := newCallError(err)
	if callErr.Code == domain.ToolErrInternal || callErr.Code == domain.ToolErrStoreUnavailable {
		logger.Error("Tool %s failed: %v", tool, err)
	} else {
		logger.Debug("Tool %s rejected: %v", tool, err)
	}
	s.record(tool, string(callErr.Code))
	return callErr
}

func (s *Server) record(tool, code string) {
	if s.ports.Metrics != nil {
		s.ports.Metrics.ToolCalled(tool, code)
	}
}
