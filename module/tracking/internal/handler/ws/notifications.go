package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/truckmate/fleet-tracking/module/tracking/domain"
	"github.com/truckmate/fleet-tracking/module/tracking/internal/repository/publisher"
)

var _ publisher.NotificationPublisher = (*NotificationHub)(nil)

type envelope struct {
	Urgent       bool                      `json:"urgent"`
	Notification *domain.NotificationEvent `json:"notification"`
}

// NotificationHub streams every notification to connected UI clients.
// Urgent events carry a flag so the client can render a blocking alert
// instead of a toast. A slow or dead client is dropped, not waited on.
type NotificationHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *NotificationHub) Register(r *gin.RouterGroup) {
	r.GET("/ws/notifications", h.handleWebSocket)
}

func (h *NotificationHub) handleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	h.add(conn)
	go h.readPump(conn)
}

func (h *NotificationHub) Publish(_ context.Context, event *domain.NotificationEvent) error {
	h.broadcast(&envelope{Notification: event})
	return nil
}

func (h *NotificationHub) PublishUrgent(_ context.Context, event *domain.NotificationEvent) error {
	h.broadcast(&envelope{Urgent: true, Notification: event})
	return nil
}

func (h *NotificationHub) broadcast(env *envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal notification: %v", err)
		return
	}
	h.mu.Lock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}
	h.mu.Unlock()
}

func (h *NotificationHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *NotificationHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *NotificationHub) readPump(c *websocket.Conn) {
	defer func() {
		h.remove(c)
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *NotificationHub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
}
