package realtime

import (
	"net/http"
	"sync"

	"clinicportal_backend/platform/httpkit"
	"clinicportal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Event is one SSE payload pushed to connected clients of a clinic.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	clinicID uuid.UUID
	events   chan Event
}

// Hub manages SSE connections keyed by clinic and broadcasts change events
// to every session watching that clinic.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.clinicID] = append(h.clients[c.clinicID], c)
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.clinicID]
	for i, cl := range clients {
		if cl == c {
			h.clients[c.clinicID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[c.clinicID]) == 0 {
		delete(h.clients, c.clinicID)
	}

	close(c.events)
}

// Broadcast delivers an event to every session of the clinic. A slow client
// whose buffer is full is skipped; it will resync on its next snapshot load.
func (h *Hub) Broadcast(clinicID uuid.UUID, event Event) {
	h.mu.RLock()
	clients := h.clients[clinicID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			h.log.Warn("dropping realtime event for slow client",
				"clinicId", clinicID, "event", event.Type)
		}
	}
}

// Handler streams events for the acting clinic until the client disconnects.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, ok := httpkit.CurrentClinicID(c)
		if !ok {
			httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			clinicID: clinicID,
			events:   make(chan Event, 32),
		}
		h.addClient(cl)
		defer h.removeClient(cl)

		c.SSEvent("connected", gin.H{"clinicId": clinicID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				c.SSEvent(event.Type, event)
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client, used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	h.clients = make(map[uuid.UUID][]*client)
}
