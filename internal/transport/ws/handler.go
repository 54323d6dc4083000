package ws

import (
	"log"
	"net/http"

	"github.com/vedran77/feedline/internal/service"
	"nhooyr.io/websocket"
)

// TokenVerifier validates the JWT passed on the upgrade request.
type TokenVerifier interface {
	Authenticate(token string) (*service.Claims, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, verifier TokenVerifier, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := verifier.Authenticate(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, conn, claims.UserID)
		if !hub.join(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		// The request context lives until ReadPump returns.
		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
