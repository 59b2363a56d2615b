package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for shelfsearch resources.
	uriScheme = "shelfsearch://"

	settingsURI = uriScheme + "settings"
)

// settingsView is the public part of the settings. API keys are never exposed.
type settingsView struct {
	LibraryPath          string                    `json:"library_path"`
	Research             researchView              `json:"research"`
	LLM                  llmView                   `json:"llm"`
	PostProcessors       []string                  `json:"post_processors"`
	PostProcessorOptions map[string]map[string]any `json:"post_processor_options,omitempty"`
	Conversation         map[string]any            `json:"conversation"`
}

type researchView struct {
	MaxQueryVariants       int    `json:"max_query_variants"`
	MaxHitsPerQuery        int    `json:"max_hits_per_query"`
	MaxHitsTotal           int    `json:"max_hits_total"`
	TargetSources          int    `json:"target_sources"`
	MaxExcerpts            int    `json:"max_excerpts"`
	MaxExcerptChars        int    `json:"max_excerpt_chars"`
	MinHitsRequired        int    `json:"min_hits_required"`
	MaxSearchRounds        int    `json:"max_search_rounds"`
	ContextInfluence       int    `json:"context_influence"`
	MaxSearchKeywords      int    `json:"max_search_keywords"`
	KeywordBooleanOperator string `json:"keyword_boolean_operator"`
	LLMPlanning            bool   `json:"llm_planning"`
	EnableRefinement       bool   `json:"enable_refinement"`
}

type llmView struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	Configured bool   `json:"configured"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Settings == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         settingsURI,
		Name:        "settings",
		Description: "Research limits and language provider in effect",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleSettingsResource returns the current settings without secrets.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil || req.Params.URI != settingsURI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	rc := settings.Research
	view := settingsView{
		LibraryPath: settings.LibraryPath,
		Research: researchView{
			MaxQueryVariants:       rc.MaxQueryVariants,
			MaxHitsPerQuery:        rc.MaxHitsPerQuery,
			MaxHitsTotal:           rc.MaxHitsTotal,
			TargetSources:          rc.TargetSources,
			MaxExcerpts:            rc.MaxExcerpts,
			MaxExcerptChars:        rc.MaxExcerptChars,
			MinHitsRequired:        rc.MinHitsRequired,
			MaxSearchRounds:        rc.MaxSearchRounds,
			ContextInfluence:       rc.ContextInfluence,
			MaxSearchKeywords:      rc.MaxSearchKeywords,
			KeywordBooleanOperator: string(rc.KeywordBooleanOperator),
			LLMPlanning:            rc.LLMPlanning,
			EnableRefinement:       rc.EnableRefinement,
		},
		LLM: llmView{
			Provider:   string(settings.LLM.Provider),
			Model:      settings.LLM.Model,
			BaseURL:    settings.LLM.BaseURL,
			Configured: settings.LLM.IsConfigured(),
		},
		PostProcessors:       settings.PostProcessors,
		PostProcessorOptions: settings.PostProcessorOptions,
		Conversation: map[string]any{
			"backend": settings.Conversation.Backend,
			"ttl":     settings.Conversation.TTL.String(),
		},
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
