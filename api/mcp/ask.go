package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/session"
)

var (
	askToolName    = "ask"
	askDescription = "Ask the portfolio assistant a question about the portfolio owner. Pass the returned session_id back to continue the same conversation."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to ask, at most 500 characters"`
	SessionID string `json:"session_id,omitempty" jsonschema:"a session id from an earlier answer to continue that conversation"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer         string `json:"answer"`
	SessionID      string `json:"session_id"`
	ResponseTimeMS int64  `json:"response_time_ms,omitempty"`
}

// handleAsk streams one reply from the backend and returns it whole.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	store := session.NewMemoryStore()
	if input.SessionID != "" {
		id, err := uuid.Parse(input.SessionID)
		if err != nil {
			return toolError(fmt.Sprintf("Invalid session_id %q: %v", input.SessionID, err)), AskOutput{}, nil
		}
		_ = store.Set(id)
	}

	opts := []chat.Option{chat.WithLogger(logger)}
	if s.config.Recorder != nil {
		opts = append(opts, chat.WithRecorder(s.config.Recorder))
	}
	runner := chat.NewRunner(s.config.Backend, store, opts...)

	logger.Debug("MCP ask request",
		zap.String("session_id", input.SessionID),
		zap.Int("question_length", len(input.Question)),
	)

	reply, err := runner.Ask(ctx, input.Question, nil)
	if err != nil {
		logger.Error("ask failed", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to get answer: %v", err)), AskOutput{}, nil
	}

	sessionID, _ := runner.SessionID()
	output := AskOutput{
		Answer:         reply.Content,
		ResponseTimeMS: reply.ResponseTime.Milliseconds(),
	}
	if sessionID != uuid.Nil {
		output.SessionID = sessionID.String()
	}

	// Structured output is also serialized into a text block for clients
	// that only read content.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize answer: %v", err)), AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
