package api

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/client"
)

// detailResponse is the backend's error body.
type detailResponse struct {
	Detail any `json:"detail"`
}

// validationDetail is one entry of a request validation failure.
type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// messageRequest is the body of the chat message route.
type messageRequest struct {
	Message   *string `json:"message"`
	SessionID *string `json:"session_id"`
}

func validationError(c *fiber.Ctx, msg, kind string, loc ...string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(detailResponse{
		Detail: []validationDetail{{Loc: loc, Msg: msg, Type: kind}},
	})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleProfile returns the complete profile document.
func (s *Server) handleProfile(c *fiber.Ctx) error {
	return c.JSON(s.Profile())
}

// handleNewSession opens a chat session.
func (s *Server) handleNewSession(c *fiber.Ctx) error {
	session := s.sessions.create()
	s.logger.Debug("created session", zap.Stringer("session_id", session.SessionID))
	return c.JSON(session)
}

// handleGetSession returns a chat session by id.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return validationError(c, "Input should be a valid UUID", "uuid_parsing", "path", "session_id")
	}

	session, ok := s.sessions.get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(detailResponse{Detail: "Session not found"})
	}

	return c.JSON(session)
}

// handleMessage streams the reply to a chat message as server-sent events.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	start := time.Now()

	var req messageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return validationError(c, "JSON decode error", "json_invalid", "body")
	}
	if req.Message == nil {
		return validationError(c, "Field required", "missing", "body", "message")
	}
	message := *req.Message
	if message == "" {
		return validationError(c, "String should have at least 1 character", "string_too_short", "body", "message")
	}
	if utf8.RuneCountInString(message) > client.MaxMessageLength {
		return validationError(c, "String should have at most 500 characters", "string_too_long", "body", "message")
	}
	if strings.TrimSpace(message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(detailResponse{Detail: "Message cannot be empty"})
	}

	var sessionID uuid.UUID
	if req.SessionID == nil {
		sessionID = s.sessions.create().SessionID
		s.logger.Info("created new session", zap.Stringer("session_id", sessionID))
	} else {
		id, err := uuid.Parse(*req.SessionID)
		if err != nil {
			return validationError(c, "Input should be a valid UUID", "uuid_parsing", "body", "session_id")
		}
		if _, ok := s.sessions.get(id); !ok {
			return c.Status(fiber.StatusNotFound).JSON(detailResponse{Detail: "Session not found"})
		}
		sessionID = id
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(s.replyWriter(sessionID, message, start))
	return nil
}
