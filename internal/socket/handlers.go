package socket

import (
	"log"
	"net/http"

	"engage-service/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServeWsGin upgrades an authenticated request to a websocket connection and
// registers it with the hub. The connection starts with no room memberships;
// the client joins rooms explicitly.
func ServeWsGin(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(constants.UserID)
		if userID == "" {
			c.Status(http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Error upgrading to WebSocket: %v", err)
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 512),
			id:     uuid.NewString(),
			userID: userID,
			token:  c.GetString(constants.Token),
			rooms:  make(map[string]bool),
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()

		log.Printf("WebSocket connection established for user %s", userID)
	}
}
