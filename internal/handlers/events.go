package handlers

import (
	"net/http"
	"time"

	"cryptopath-gateway/internal/events"
	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// Slow consumers are dropped rather than backing up the hub
	eventBuffer = 16
)

// EventsHandler streams wallet session events over a websocket so clients
// can react to disconnects and account swaps without polling
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new EventsHandler instance
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Stream handles GET /api/wallet/events requests
func (h *EventsHandler) Stream(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	deliveries := make(chan models.SessionEvent, eventBuffer)
	unsubscribe := h.hub.Subscribe(func(event models.SessionEvent) {
		select {
		case deliveries <- event:
		default:
			log.Warn("Dropping session event for slow subscriber",
				zap.String("event_type", event.Type),
			)
		}
	})

	log.Info("Event stream subscriber connected",
		zap.String("client_ip", c.ClientIP()),
	)

	// Reader goroutine drains control frames and detects client close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		unsubscribe()
		conn.Close()
		log.Info("Event stream subscriber disconnected")
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-deliveries:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
