package ws

import (
	"context"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/vedran77/circle/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// ServeWS upgrades to a WebSocket. Auth is the ?token= query param since browsers can't set headers
// on the upgrade request. allowedOrigin is the CORS origin; "*" accepts any.
func ServeWS(hub *Hub, jwtSecret, allowedOrigin string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{InsecureSkipVerify: allowedOrigin == "" || allowedOrigin == "*"}
	if u, err := url.Parse(allowedOrigin); err == nil && u.Host != "" {
		opts.OriginPatterns = []string{u.Host}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, _, err := middleware.ParseToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			log.Warn("ws accept", "err", err)
			return
		}

		client := NewClient(hub, conn, userID)
		if !hub.join(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
