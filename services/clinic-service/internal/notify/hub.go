package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is the JSON pushed to live subscribers.
type Message struct {
	ID            string    `json:"id"`
	AppointmentID *string   `json:"appointment_id"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	Status        string    `json:"status"`
	SentAt        time.Time `json:"sent_at"`
}

func messageFrom(n model.Notification) Message {
	m := Message{ID: n.ID, Type: n.Type, Content: n.Content, Status: n.Status, SentAt: n.SentAt.UTC()}
	if n.AppointmentID != "" {
		id := n.AppointmentID
		m.AppointmentID = &id
	}
	return m
}

type client struct {
	accountID string
	send      chan []byte
}

// Hub fans notifications out to the websocket connections of their recipient.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		logger:   logger,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: checkOrigin},
		clients:  map[string]map[*client]struct{}{},
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.accountID]
	if set == nil {
		set = map[*client]struct{}{}
		h.clients[c.accountID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.accountID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.accountID)
	}
}

// Subscribers reports how many live connections an account has.
func (h *Hub) Subscribers(accountID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[accountID])
}

// Publish queues n for every connection of its recipient. Slow connections
// whose buffer is full are dropped.
func (h *Hub) Publish(n model.Notification) {
	raw, err := json.Marshal(messageFrom(n))
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[n.RecipientID] {
		select {
		case c.send <- raw:
		default:
			delete(h.clients[n.RecipientID], c)
			close(c.send)
		}
	}
}

// Serve upgrades the request and streams notifications for accountID until
// the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, accountID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{accountID: accountID, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		_ = conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
