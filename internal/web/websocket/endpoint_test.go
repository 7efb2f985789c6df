package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func TestEndpointHandsOffConnection(t *testing.T) {
	u := NewUpgrader(nil)

	var mu sync.Mutex
	var connected bool
	handler := Endpoint(u, func(ctx context.Context, conn *websocket.Conn, userID string) {
		mu.Lock()
		connected = true
		mu.Unlock()
		conn.Close()
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := handler(r.Context(), HandshakeRequest{Request: r, ResponseWriter: w}); err != nil {
			t.Errorf("handler returned error: %v", err)
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	conn.Close()

	mu.Lock()
	defer mu.Unlock()
	if !connected {
		t.Fatal("expected onConnect to run")
	}
}
