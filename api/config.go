// Package api provides a preview HTTP server that speaks the portfolio
// backend's wire contract so folio can be exercised offline.
package api

import (
	"time"

	"github.com/frantai/folio/pkg/profile"
)

// Config is the preview server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// APIPrefix is the path prefix of every backend route. Defaults to
	// client.DefaultAPIPrefix.
	APIPrefix string

	// Profile is the document served by the profile route. Defaults to
	// profile.Sample().
	Profile *profile.Profile

	// Responder writes the chat replies. Defaults to a ScriptedResponder
	// over the profile being served.
	Responder Responder

	// FragmentSize, when positive, splits the reply stream into writes of
	// at most this many bytes.
	FragmentSize int

	// TokenDelay pauses between tokens.
	TokenDelay time.Duration
}
