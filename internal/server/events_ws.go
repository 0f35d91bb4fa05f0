package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"displayd/internal/events"
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is always served from the same origin as the API.
	CheckOrigin: func(r *http.Request) bool {
		return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == "https://"+r.Host
	},
}

// handleEventsStream upgrades the connection and relays session-state
// transitions until the client disconnects.
func (s *Server) handleEventsStream(c *gin.Context) {
	conn, err := eventsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARN: server: events websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := s.bus.Subscribe(events.TopicSessionStateChange, 16)
	for evt := range ch {
		payload, ok := evt.Payload.(events.SessionStateChange)
		if !ok {
			continue
		}
		data, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
