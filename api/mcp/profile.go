package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/profile"
)

var (
	getProfileToolName    = "get_profile"
	getProfileDescription = "Fetch the portfolio owner's resume: basics, work experience, skills, projects, education, languages and certifications. Returns the resume as Markdown plus the structured document."
)

// GetProfileInput takes no arguments.
type GetProfileInput struct{}

// GetProfileOutput is the resume as Markdown and as its JSON document.
type GetProfileOutput struct {
	Markdown string         `json:"markdown"`
	Profile  map[string]any `json:"profile"`
}

// handleGetProfile fetches the profile from the backend.
func (s *Server) handleGetProfile(ctx context.Context, _ *mcp.CallToolRequest, _ GetProfileInput) (*mcp.CallToolResult, GetProfileOutput, error) {
	logger := s.config.Logger

	p, err := s.config.Backend.GetProfile(ctx)
	if err != nil {
		logger.Error("failed to fetch profile", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to fetch profile: %v", err)), GetProfileOutput{}, nil
	}

	doc, err := profileDocument(p)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize profile: %v", err)), GetProfileOutput{}, nil
	}

	markdown := profile.Markdown(p)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: markdown},
		},
	}, GetProfileOutput{Markdown: markdown, Profile: doc}, nil
}

// profileDocument converts p to its generic JSON form.
func profileDocument(p *profile.Profile) (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
