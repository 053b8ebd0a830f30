package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is what event stream clients receive.
type Message struct {
	Type  string      `json:"type"`            // hello / event / pong
	Event string      `json:"event,omitempty"` // status
	Data  interface{} `json:"data,omitempty"`
	TS    string      `json:"ts"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans status events out to websocket clients. Slow clients are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{Conn: conn, Send: make(chan []byte, 64)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.Send)
		return c
	}
	h.clients[c] = struct{}{}
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(event string, data interface{}) {
	b := encode(Message{Type: "event", Event: event, Data: data})
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.Send <- b:
		default:
			h.dropLocked(c)
		}
	}
}

func (h *Hub) Hello(c *Client, data interface{}) {
	h.send(c, encode(Message{Type: "hello", Data: data}))
}

// send queues b for one registered client.
func (h *Hub) send(c *Client, b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.Send <- b:
	default:
		h.dropLocked(c)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func encode(m Message) []byte {
	m.TS = time.Now().Format(time.RFC3339)
	b, _ := json.Marshal(m)
	return b
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents upgrades to a websocket, greets with the current status and
// then streams every status change.
func handleEvents(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if deps.Hub == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "event stream not configured")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already replied
	}
	client := deps.Hub.Register(conn)
	deps.Hub.Hello(client, newStatusResponse(deps.Device.ConnectionState(), deps.Device.IsReady(), deps.Device.Message()))

	go writePump(client)
	defer deps.Hub.Unregister(client)
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			deps.Hub.send(client, encode(Message{Type: "pong"}))
		}
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for b := range c.Send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.Conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
