package events

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/rlanders/choreward/internal/auth"
)

// Handler returns an HTTP handler that upgrades connections to WebSocket
// and runs them as hub clients scoped to the authenticated family.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID := auth.FamilyID(r.Context())
		if familyID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // same-household LAN clients
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, familyID)
		client.Run(r.Context())
	}
}
