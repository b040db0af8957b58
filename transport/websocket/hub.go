package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/tilematch/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Broadcasts queued before new ones are dropped.
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event names sent to clients
const (
	EventStateUpdate = "state_update"
)

// Message represents a WebSocket message
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// Hub maintains the set of active clients and broadcasts messages.
// The sessions map is owned by the Run goroutine.
type Hub struct {
	// Registered clients by lower-cased session ID
	sessions map[string]map[*Client]bool

	// Last state delivered per session, used to drop snapshots that arrive
	// after a newer one
	latest map[string]*engine.GameState

	// Outbound messages for a session's clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Client count queries
	counts chan countRequest

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		latest:     make(map[string]*engine.GameState),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
	}
}

func sessionKey(id string) string {
	return strings.ToLower(id)
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.send)
				}
			}
			h.sessions = make(map[string]map[*Client]bool)
			h.latest = make(map[string]*engine.GameState)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.sessions[sessionKey(req.sessionID)])
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession queues a game state update for all clients in a session.
// It never blocks: when the queue is full the update is dropped, since a
// newer state will follow.
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		GameState: state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent queues a custom event for all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Warn().Str("session", message.SessionID).Str("event", message.Event).Msg("broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{sessionID: sessionID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	key := sessionKey(client.sessionID)
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true

	log.Debug().Str("session", client.sessionID).Int("clients", len(h.sessions[key])).Msg("client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	key := sessionKey(client.sessionID)
	if clients, ok := h.sessions[key]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.sessions, key)
				delete(h.latest, key)
			}

			log.Debug().Str("session", client.sessionID).Int("clients", len(clients)).Msg("client unregistered")
		}
	}
}

// olderState reports whether a was taken before b. Within an epoch the
// selection count and then the cleared count only grow.
func olderState(a, b *engine.GameState) bool {
	if a.Epoch != b.Epoch {
		return a.Epoch < b.Epoch
	}
	if a.Selections != b.Selections {
		return a.Selections < b.Selections
	}
	return a.MatchedCount < b.MatchedCount
}

// broadcastMessage sends a message to all clients in a session. A state
// older than the last one sent is dropped: a delayed clear can be pushed
// before the response snapshot of the selection that caused it.
func (h *Hub) broadcastMessage(message *Message) {
	key := sessionKey(message.SessionID)
	if state := message.GameState; state != nil {
		if last, ok := h.latest[key]; ok && olderState(state, last) {
			log.Debug().Str("session", message.SessionID).Int("epoch", state.Epoch).Int("selections", state.Selections).Msg("dropping stale state")
			return
		}
		if _, watched := h.sessions[key]; watched {
			h.latest[key] = state
		}
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("session", message.SessionID).Msg("failed to marshal broadcast message")
		return
	}

	if clients, ok := h.sessions[key]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Slow client, drop it
				h.unregisterClient(client)
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("session", c.sessionID).Msg("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
