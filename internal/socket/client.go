package socket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"engage-service/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 15 * time.Second

	pongWait = 120 * time.Second

	pingPeriod = (pongWait * 8) / 10

	maxMessageSize = 4096
)

var newLine = []byte{'\n'}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	id     string
	userID string
	token  string

	roomsMu   sync.Mutex
	rooms     map[string]bool
	closeOnce sync.Once
}

func (c *Client) addRoom(roomKey string) {
	c.roomsMu.Lock()
	c.rooms[roomKey] = true
	c.roomsMu.Unlock()
}

func (c *Client) removeRoom(roomKey string) {
	c.roomsMu.Lock()
	delete(c.rooms, roomKey)
	c.roomsMu.Unlock()
}

func (c *Client) roomList() []string {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error client %s: %v", c.userID, err)
			break
		}

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Printf("Invalid command from client %s: %v", c.userID, err)
			continue
		}
		metrics.MessagesProcessed.Inc()

		switch cmd.Action {
		case actionPing:
			pongMessage, _ := json.Marshal(map[string]string{"action": "pong"})
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, pongMessage); err != nil {
				log.Printf("Pong send error: %v", err)
				return
			}

		case actionJoin:
			if !c.hub.checkRateLimit(c.userID) {
				log.Printf("Rate limit exceeded for user %s", c.userID)
				continue
			}
			c.hub.JoinRoom(c, cmd.Room)

		case actionLeave:
			c.hub.LeaveRoom(c, cmd.Room)

		default:
			log.Printf("Unknown action from client %s: %s", c.userID, cmd.Action)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			for i := 0; i < len(c.send); i++ {
				_, _ = w.Write(newLine)
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
