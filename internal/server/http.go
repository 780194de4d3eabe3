// Package server exposes running games over HTTP and websockets, and reports
// health over gRPC.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/config"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

const requestTimeout = 5 * time.Second

// Inbound and outbound websocket message types besides game updates.
const (
	MessageSetSelection = "set_selection"
	MessageResync       = "resync"
	MessageRejected     = "rejected"
	MessageError        = "error"
)

// Server serves game creation and the per-seat websocket.
type Server struct {
	ctx      context.Context
	cfg      *config.Config
	logger   *zap.Logger
	manager  *game.Manager
	hub      *Hub
	seats    *SeatStore
	upgrader websocket.Upgrader
}

// NewServer wires the HTTP surface to manager. Calls made on behalf of
// websocket clients are bounded by ctx.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, manager *game.Manager, hub *Hub, seats *SeatStore) *Server {
	s := &Server{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		hub:     hub,
		seats:   seats,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.Server.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.Server.WebSocket.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("DELETE /games/{id}", s.handleCloseGame)
	mux.HandleFunc("GET "+s.cfg.Server.WebSocket.Path, s.handleWebSocket)
	return mux
}

// checkOrigin accepts any origin when none are configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.cfg.Server.WebSocket.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(allowed, origin)
}

type createGameRequest struct {
	Names    []string `json:"names"`
	RoleList []string `json:"roleList,omitempty"`
	Seed     *uint64  `json:"seed,omitempty"`
}

// createGameResponse carries one token per seat, in seat order. Seat 0 is the
// host and may close the game.
type createGameResponse struct {
	GameID string   `json:"gameId"`
	Seed   uint64   `json:"seed"`
	Tokens []string `json:"tokens"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessage)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if limit := s.cfg.Server.MaxGames; limit > 0 && s.manager.Count() >= limit {
		writeError(w, http.StatusServiceUnavailable, "too many running games")
		return
	}

	resp, err := s.createGame(req)
	if err != nil {
		s.logger.Info("game creation rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) createGame(req createGameRequest) (createGameResponse, error) {
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	entries := req.RoleList
	if len(entries) == 0 {
		entries = s.cfg.Game.RoleList
	}

	outlines, err := game.ParseOutlines(entries)
	if err != nil {
		return createGameResponse{}, err
	}
	roles, err := game.GenerateRoles(outlines, len(req.Names), rand.New(rand.NewPCG(seed, ^seed)))
	if err != nil {
		return createGameResponse{}, err
	}

	id, err := s.manager.Create(game.Settings{
		Names:     req.Names,
		Roles:     roles,
		Seed:      seed,
		Durations: s.cfg.Game.Durations.Phases(),
	})
	if err != nil {
		return createGameResponse{}, err
	}
	tokens, err := s.seats.Issue(id, len(req.Names))
	if err != nil {
		s.manager.Close(id)
		return createGameResponse{}, err
	}
	return createGameResponse{GameID: id.String(), Seed: seed, Tokens: tokens}, nil
}

func (s *Server) handleCloseGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if err := s.seats.Verify(id, 0, bearerToken(r)); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	s.manager.Close(id)
	s.hub.CloseGame(id)
	s.seats.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleWebSocket binds a connection to ?game=&player= after checking the
// seat's token, sent as ?token= or a bearer header.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID, err := uuid.Parse(query.Get("game"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	seat, err := strconv.Atoi(query.Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player")
		return
	}
	player := roster.PlayerRef(seat)
	token := query.Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if err := s.seats.Verify(gameID, player, token); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := s.hub.newClient(conn, gameID, player)
	s.hub.register(client)
	go client.writePump()

	if err := s.resync(client); err != nil {
		client.logger.Info("initial snapshot failed", zap.Error(err))
		s.hub.unregister(client)
		return
	}
	go client.readPump(s.handleMessage)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	ID        controller.ID   `json:"id"`
	Selection json.RawMessage `json:"selection"`
}

type rejectedMessage struct {
	Type   string        `json:"type"`
	ID     controller.ID `json:"id"`
	Reason string        `json:"reason"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) handleMessage(c *Client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.replyError(c, "malformed message")
		return
	}

	switch msg.Type {
	case MessageSetSelection:
		sel, err := controller.UnmarshalSelection(msg.Selection)
		if err != nil {
			s.replyError(c, err.Error())
			return
		}
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		result, err := s.manager.SetSelection(ctx, c.gameID, c.player, msg.ID, sel)
		if err != nil {
			s.replyError(c, err.Error())
			if isGameGone(err) {
				s.hub.unregister(c)
			}
			return
		}
		if !result.Accepted() {
			c.logger.Debug("selection rejected",
				zap.Stringer("controller", msg.ID),
				zap.Stringer("reason", result.Rejection),
			)
			s.reply(c, rejectedMessage{Type: MessageRejected, ID: msg.ID, Reason: result.Rejection.String()})
		}
	case MessageResync:
		if err := s.resync(c); err != nil {
			s.replyError(c, err.Error())
		}
	default:
		s.replyError(c, "unknown message type "+strconv.Quote(msg.Type))
	}
}

func (s *Server) resync(c *Client) error {
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	return s.manager.Resync(ctx, c.gameID, c.player)
}

func (s *Server) replyError(c *Client, message string) {
	s.reply(c, errorMessage{Type: MessageError, Message: message})
}

func (s *Server) reply(c *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to encode reply", zap.Error(err))
		return
	}
	s.hub.send(c, data)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorMessage{Type: MessageError, Message: message})
}

// isGameGone reports whether err means the game no longer runs.
func isGameGone(err error) bool {
	return errors.Is(err, game.ErrGameNotFound) || errors.Is(err, game.ErrGameClosed)
}
