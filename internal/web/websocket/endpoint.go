package websocket

import (
	"context"
	"net/http"

	"github.com/corvid-http/corvid"
	"github.com/gorilla/websocket"
)

// HandshakeRequest is the request shape a WebSocket handshake handler
// declares: the raw request/response pair, bound as primitives exactly
// like any HTTP endpoint's *http.Request/http.ResponseWriter fields.
type HandshakeRequest struct {
	Request        *http.Request
	ResponseWriter http.ResponseWriter
}

// Endpoint adapts an Upgrader into a handler suitable for App.WebSocket:
// registering it against the framework's synthetic "UPGRADE" method
// routes the handshake through the same signature analysis, dependency
// resolution, and plugin chain as any other endpoint, so a rate-limit or
// auth plugin registered on the app runs before the handshake completes.
// Once upgraded, onConnect owns conn's entire lifetime (read/write pumps,
// any pub/sub fan-out it wants to do via corvid.EventBus); Endpoint
// itself returns once onConnect does.
func Endpoint(u *Upgrader, onConnect func(ctx context.Context, conn *websocket.Conn, userID string)) func(context.Context, HandshakeRequest) (corvid.Empty, error) {
	return func(ctx context.Context, req HandshakeRequest) (corvid.Empty, error) {
		conn, userID, err := u.Upgrade(req.ResponseWriter, req.Request)
		if err != nil {
			return corvid.Empty{}, err
		}
		onConnect(ctx, conn, userID)
		return corvid.Empty{}, nil
	}
}
