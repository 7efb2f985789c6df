// Package websocket adapts a raw WebSocket handshake into corvid's
// endpoint pipeline. It deliberately stops at handing the caller a live
// *websocket.Conn: connection lifetime, message framing, and any
// pub/sub fan-out are the application's concern (via corvid.EventBus if
// it wants one), not the framework's — spec.md's Non-goals exclude
// "own I/O primitives" and a fixed hub/room abstraction is exactly that.
package websocket

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// AuthHandler authenticates a WebSocket handshake's extracted token,
// returning the identity to associate with the connection.
type AuthHandler func(ctx context.Context, token string) (userID string, err error)

// Config holds WebSocket handshake configuration.
type Config struct {
	// Buffer sizes
	ReadBufferSize  int
	WriteBufferSize int

	// Origin check function
	CheckOrigin func(r *http.Request) bool

	// Authentication token extraction
	TokenExtractor func(r *http.Request) string

	// AuthHandler validates the extracted token, if set. A handshake
	// with no AuthHandler configured skips authentication entirely.
	AuthHandler AuthHandler

	// Enable compression
	EnableCompression bool
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		TokenExtractor: func(r *http.Request) string {
			if token := r.URL.Query().Get("token"); token != "" {
				return token
			}
			return r.Header.Get("Authorization")
		},
		EnableCompression: false,
	}
}

// Upgrader performs the HTTP-to-WebSocket handshake for one route,
// optionally gating it on AuthHandler.
type Upgrader struct {
	config   *Config
	upgrader *websocket.Upgrader
}

// NewUpgrader creates an Upgrader from config (DefaultConfig() if nil).
func NewUpgrader(config *Config) *Upgrader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Upgrader{
		config: config,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			CheckOrigin:       config.CheckOrigin,
			EnableCompression: config.EnableCompression,
		},
	}
}

// Upgrade authenticates r (if an AuthHandler is configured) and upgrades
// the connection, returning the live *websocket.Conn and the
// authenticated user ID (empty if no AuthHandler is configured).
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, string, error) {
	var userID string
	if u.config.AuthHandler != nil {
		token := u.config.TokenExtractor(r)
		if token == "" {
			return nil, "", fmt.Errorf("websocket: missing authentication token")
		}
		var err error
		userID, err = u.config.AuthHandler(r.Context(), token)
		if err != nil {
			return nil, "", fmt.Errorf("websocket: authentication failed: %w", err)
		}
	}

	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, "", fmt.Errorf("websocket: upgrade failed: %w", err)
	}
	return conn, userID, nil
}
