// Package mcp provides an MCP (Model Context Protocol) server that lets
// agents read the portfolio and ask its assistant.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/profile"
	"github.com/frantai/folio/pkg/utils"
)

// Backend is the part of the backend client the tools use.
// *client.Client implements it.
type Backend interface {
	chat.Backend
	GetProfile(ctx context.Context) (*profile.Profile, error)
}

type Config struct {
	// Backend answers the tool calls
	Backend Backend

	// Recorder receives every exchange made through the ask tool (optional)
	Recorder chat.Recorder

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the profile and ask tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "folio",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// an empty MCP server with no tools configured
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getProfileToolName,
		Description: getProfileDescription,
	}, s.handleGetProfile)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError is a tool result reporting a failure to the calling agent.
func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
