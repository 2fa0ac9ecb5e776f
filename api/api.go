package api

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/profile"
)

// Server is the preview server for the portfolio backend routes.
type Server struct {
	config   Config
	content  atomic.Pointer[content]
	sessions *sessionRegistry
	logger   *zap.Logger
	app      *fiber.App
}

// content is the profile being served and the responder answering from it.
// It is swapped as a whole by SetProfile.
type content struct {
	profile   *profile.Profile
	responder Responder
}

// NewServer creates a new preview server.
func NewServer(config Config, logger *zap.Logger) *Server {
	if config.APIPrefix == "" {
		config.APIPrefix = client.DefaultAPIPrefix
	}
	config.APIPrefix = "/" + strings.Trim(config.APIPrefix, "/")

	if config.Profile == nil {
		config.Profile = profile.Sample()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: newSessionRegistry(),
		logger:   logger,
		app:      app,
	}
	s.SetProfile(config.Profile)

	app.Get("/ping", s.handlePing)

	v1 := app.Group(config.APIPrefix)
	v1.Get("/profile", s.handleProfile)
	v1.Post("/chat/session/new", s.handleNewSession)
	v1.Get("/chat/session/:id", s.handleGetSession)
	v1.Post("/chat/message", s.handleMessage)

	return s
}

// SetProfile replaces the served profile. Replies already streaming keep
// the profile they started with. Without a configured Responder the
// scripted replies follow the new profile.
func (s *Server) SetProfile(p *profile.Profile) {
	if p == nil {
		p = profile.Sample()
	}

	responder := s.config.Responder
	if responder == nil {
		responder = NewScriptedResponder(p)
	}
	s.content.Store(&content{profile: p, responder: responder})
}

// Profile returns the profile currently served.
func (s *Server) Profile() *profile.Profile {
	return s.content.Load().profile
}

// Handler returns the server as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Run starts the preview server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting preview server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("prefix", s.config.APIPrefix),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the preview server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
