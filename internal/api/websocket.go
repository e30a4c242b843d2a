package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tcstacks/crosscsp/internal/auth"
	"github.com/tcstacks/crosscsp/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// JobEvents upgrades to a WebSocket and streams the job's Event Log,
// token-authenticated via query param the way the teacher's room
// websocket endpoint is.
func (h *Handlers) JobEvents(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if _, err := authService.ValidateToken(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		jobID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("JobEvents: upgrade failed: %v", err)
			return
		}

		sub := &realtime.Subscriber{
			ID:    uuid.New(),
			JobID: jobID,
			Conn:  conn,
			Send:  make(chan []byte, 32),
		}

		h.hub.Register(sub)
		go writePump(sub)
		go readPump(h.hub, sub)
	}
}

// writePump relays queued messages to the WebSocket connection and pings
// to keep it alive, closing it once Send is closed by the hub.
func writePump(sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Send:
			sub.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			sub.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains (and discards) client frames purely to detect
// disconnects; this endpoint is server-to-client only.
func readPump(hub *realtime.Hub, sub *realtime.Subscriber) {
	defer hub.Unregister(sub)

	sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.Conn.SetPongHandler(func(string) error {
		sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
