package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roadsafe-quiz/internal/quiz"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
)

// Event is the envelope pushed to presentation clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session state out to every websocket watching that session. It
// implements session.Listener; broadcasts never block the session.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*client
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string][]*client)}
}

// HandleWebSocket upgrades the request and subscribes it to sessionID,
// sending current first. alive is checked once the client is registered; a
// session that ended in between is reported closed straight away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, sessionID string, current quiz.State, alive func() bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := json.Marshal(Event{Type: "session_state", Payload: current}); err == nil {
		c.send <- data
	}
	h.registerConnection(sessionID, c)

	go h.writePump(c)

	if alive != nil && !alive() {
		h.SessionClosed(sessionID)
		return
	}

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sessionID, c)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) registerConnection(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)
	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			close(c.send)
			break
		}
	}
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
	}

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[sessionID] {
		select {
		case c.send <- data:
		default:
			log.Printf("WebSocket client for session %s is too slow, dropping update", sessionID)
		}
	}
}

func (h *Hub) SessionChanged(sessionID string, st quiz.State) {
	h.Send(sessionID, Event{Type: "session_state", Payload: st})
}

// SessionClosed tells watchers the session is gone and disconnects them.
func (h *Hub) SessionClosed(sessionID string) {
	h.Send(sessionID, Event{Type: "session_closed"})

	h.mu.Lock()
	conns := h.connections[sessionID]
	delete(h.connections, sessionID)
	h.mu.Unlock()

	for _, c := range conns {
		close(c.send)
	}
}

// Send delivers msg to every client watching sessionID.
func (h *Hub) Send(sessionID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(sessionID, data)
}

// Count reports how many clients watch sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}
