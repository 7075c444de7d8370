// Package handlers carries the websocket transport: a room-based hub
// that fans engine events out to connected clients, and the game
// endpoint that feeds client actions into the engine.
package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"unotable/internal/game"
)

// wsClient is one live connection. Writes go through a buffered channel
// so a slow consumer never blocks a broadcast; overflow is dropped.
type wsClient struct {
	playerID uuid.UUID
	conn     *websocket.Conn
	out      chan []byte
	closed   chan struct{}
}

func newWSClient(playerID uuid.UUID, conn *websocket.Conn) *wsClient {
	return &wsClient{
		playerID: playerID,
		conn:     conn,
		out:      make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (c *wsClient) send(msg []byte) {
	select {
	case c.out <- msg:
	default:
		log.WithField("player", c.playerID).Warn("ws send buffer full, dropping message")
	}
}

// writePump drains the send channel into the connection until the client
// closes or a write fails.
func (c *wsClient) writePump(ctx context.Context) {
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.out:
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

// envelope is the wire shape of every outgoing event.
type envelope struct {
	Type    string        `json:"type"`
	Payload []interface{} `json:"payload,omitempty"`
}

// Hub tracks which connections subscribe to which session and implements
// game.EventBus by fanning events out to the session's room.
type Hub struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[*wsClient]struct{}
	all   map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*wsClient]struct{}),
		all:   make(map[*wsClient]struct{}),
	}
}

// Publish broadcasts an event to every subscriber of the session.
func (h *Hub) Publish(sessionID uuid.UUID, ev game.Event, payload ...interface{}) {
	data, err := json.Marshal(envelope{Type: string(ev), Payload: payload})
	if err != nil {
		log.WithError(err).WithField("event", ev).Error("encode event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[sessionID] {
		c.send(data)
	}
}

// BroadcastSessionList nudges every connected client to refresh its
// session list.
func (h *Hub) BroadcastSessionList() {
	data, err := json.Marshal(envelope{Type: "GameListUpdated"})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.all {
		c.send(data)
	}
}

func (h *Hub) join(sessionID uuid.UUID, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*wsClient]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
	h.all[c] = struct{}{}
}

func (h *Hub) leave(sessionID uuid.UUID, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	delete(h.all, c)
	c.close()
}
