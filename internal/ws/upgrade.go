package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"curanet/config"
	"curanet/internal/auth"
	"curanet/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationSync replays join-time state and handles read-state events
// arriving over the socket.
type NotificationSync interface {
	Resync(userID uint)
	MarkRead(userID, id uint) error
	MarkAllRead(userID uint) error
}

// PresenceTracker flips the user's online flag on connect/disconnect.
type PresenceTracker interface {
	SetOnline(userID uint)
	SetOffline(userID uint)
}

// UpgradeNotificationWS authenticates and upgrades the realtime connection.
// A bad or missing token is rejected before the connection ever joins a
// room. After the join, the client gets a point-in-time unread count and a
// replay of notifications missed while offline.
func UpgradeNotificationWS(cfg *config.JWTConfig, hub *Hub, sync NotificationSync, presence PresenceTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &Client{
			UserID: claims.UserID,
			Role:   claims.Role,
			Send:   make(chan []byte, 256),
		}
		hub.Register(client)
		presence.SetOnline(claims.UserID)
		defer func() {
			client.Close()
			// a user with another live device stays online
			if !hub.IsUserConnected(claims.UserID) {
				presence.SetOffline(claims.UserID)
			}
		}()

		go writePump(client, conn)
		sync.Resync(claims.UserID)
		readPump(conn, client, sync)
	}
}

// writePump copies messages from client.Send to the connection and keeps the
// connection alive with pings.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client events until the connection drops. Unknown events
// are ignored.
func readPump(conn *websocket.Conn, client *Client, sync NotificationSync) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg struct {
			Event string `json:"event"`
			Data  struct {
				ID uint `json:"id"`
			} `json:"data"`
		}
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		switch msg.Event {
		case domain.EventMarkRead:
			_ = sync.MarkRead(client.UserID, msg.Data.ID)
		case domain.EventMarkAllRead:
			_ = sync.MarkAllRead(client.UserID)
		case domain.EventRequestSync:
			sync.Resync(client.UserID)
		}
	}
}
