package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 64 << 10
)

type seatKey struct {
	gameID uuid.UUID
	player roster.PlayerRef
}

// Hub fans game updates out to the websocket clients seated in each game.
// It implements game.Publisher.
type Hub struct {
	logger       *zap.Logger
	sendQueue    int
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[seatKey]map[*Client]struct{}
}

// NewHub creates a hub whose clients buffer sendQueue messages before they are
// dropped as too slow.
func NewHub(logger *zap.Logger, sendQueue int, writeTimeout time.Duration) *Hub {
	if sendQueue <= 0 {
		sendQueue = 32
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		logger:       logger,
		sendQueue:    sendQueue,
		writeTimeout: writeTimeout,
		clients:      make(map[seatKey]map[*Client]struct{}),
	}
}

// Publish implements game.Publisher. It never blocks: a client whose queue is
// full is disconnected.
func (h *Hub) Publish(gameID uuid.UUID, player roster.PlayerRef, update game.Update) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("failed to encode update",
			zap.String("game_id", gameID.String()),
			zap.Int("player", int(player)),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[seatKey{gameID, player}] {
		h.deliverLocked(c, data)
	}
}

// Clients returns the number of connections seated at player in gameID.
func (h *Hub) Clients(gameID uuid.UUID, player roster.PlayerRef) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[seatKey{gameID, player}])
}

// CloseGame disconnects every client of gameID.
func (h *Hub) CloseGame(gameID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, set := range h.clients {
		if key.gameID != gameID {
			continue
		}
		for c := range set {
			close(c.send)
		}
		delete(h.clients, key)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := seatKey{c.gameID, c.player}
	if h.clients[key] == nil {
		h.clients[key] = make(map[*Client]struct{})
	}
	h.clients[key][c] = struct{}{}
	c.logger.Debug("client registered")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// send queues data for c alone.
func (h *Hub) send(c *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[seatKey{c.gameID, c.player}][c]; ok {
		h.deliverLocked(c, data)
	}
}

func (h *Hub) deliverLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client send queue full, disconnecting")
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *Client) {
	key := seatKey{c.gameID, c.player}
	set, ok := h.clients[key]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, key)
	}
	close(c.send)
	c.logger.Debug("client unregistered")
}

// Client is one websocket connection bound to a seat.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID uuid.UUID
	player roster.PlayerRef
	logger *zap.Logger
}

func (h *Hub) newClient(conn *websocket.Conn, gameID uuid.UUID, player roster.PlayerRef) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendQueue),
		gameID: gameID,
		player: player,
		logger: h.logger.With(
			zap.String("game_id", gameID.String()),
			zap.Int("player", int(player)),
			zap.String("remote_addr", conn.RemoteAddr().String()),
		),
	}
}

// readPump hands every inbound frame to handle until the connection fails.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		handle(c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
