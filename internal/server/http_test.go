package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/config"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	_ "github.com/midnight-machinations/midnight-machinations-sub000/internal/roles"
)

type testEnv struct {
	http    *httptest.Server
	manager *game.Manager
	hub     *Hub
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Game.TickInterval = 5 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := zaptest.NewLogger(t)
	hub := NewHub(logger, cfg.Server.WebSocket.SendQueue, cfg.Server.WebSocket.WriteTimeout)
	manager := game.NewManager(ctx, logger, hub, game.ManagerConfig{TickInterval: cfg.Game.TickInterval})
	srv := NewServer(ctx, cfg, logger, manager, hub, NewSeatStore(bcrypt.MinCost))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		manager.Wait()
	})
	return &testEnv{http: ts, manager: manager, hub: hub}
}

func (e *testEnv) post(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.http.URL+"/games", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) createGame(t *testing.T) createGameResponse {
	t.Helper()
	resp := e.post(t, `{"names":["ann","ben","cat","dan","eve"],"seed":9}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out createGameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) dial(t *testing.T, gameID string, player, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws?game=" + gameID + "&player=" + player + "&token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

type frame struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Chat    []struct {
		Kind game.ChatKind `json:"kind"`
		Text string        `json:"text"`
	} `json:"chat"`
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if match(f) {
			return f
		}
	}
}

func TestCreateGameIssuesTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createGame(t)

	_, err := uuid.Parse(out.GameID)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), out.Seed)
	assert.Len(t, out.Tokens, 5)
	assert.Equal(t, 1, env.manager.Count())
}

func TestCreateGameRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{"names":`},
		{"no players", `{"names":[]}`},
		{"unknown team", `{"names":["a","b","c"],"roleList":["team:nobody","mafioso","any"]}`},
		{"role list too short", `{"names":["a","b","c"],"roleList":["mafioso","doctor"]}`},
	}

	env := newTestEnv(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.post(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Zero(t, env.manager.Count())
}

func TestCreateGameHonorsMaxGames(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.MaxGames = 1 })
	env.createGame(t)

	resp := env.post(t, `{"names":["ann","ben","cat","dan","eve"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocketRejectsBadSeats(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createGame(t)

	tests := []struct {
		name   string
		game   string
		player string
		token  string
		status int
	}{
		{"bad game id", "nope", "0", out.Tokens[0], http.StatusBadRequest},
		{"bad player", out.GameID, "x", out.Tokens[0], http.StatusBadRequest},
		{"wrong seat", out.GameID, "1", out.Tokens[0], http.StatusUnauthorized},
		{"seat out of range", out.GameID, "9", out.Tokens[0], http.StatusUnauthorized},
		{"unknown game", uuid.NewString(), "0", out.Tokens[0], http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := env.dial(t, tt.game, tt.player, tt.token)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestWebSocketPlaysGame(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createGame(t)

	ann, _, err := env.dial(t, out.GameID, "0", out.Tokens[0])
	require.NoError(t, err)
	ben, _, err := env.dial(t, out.GameID, "1", out.Tokens[1])
	require.NoError(t, err)

	readUntil(t, ann, func(f frame) bool { return f.Type == game.UpdateSnapshot })
	readUntil(t, ben, func(f frame) bool { return f.Type == game.UpdateSnapshot })

	require.NoError(t, ann.WriteJSON(map[string]any{
		"type":      MessageSetSelection,
		"id":        "chat_text/0",
		"selection": map[string]any{"type": "string", "selection": "good morning"},
	}))
	require.NoError(t, ann.WriteJSON(map[string]any{
		"type":      MessageSetSelection,
		"id":        "send_chat/0",
		"selection": map[string]any{"type": "unit"},
	}))

	readUntil(t, ben, func(f frame) bool {
		for _, msg := range f.Chat {
			if msg.Kind == game.ChatPlayer && msg.Text == "good morning" {
				return true
			}
		}
		return false
	})
}

func TestWebSocketReportsRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createGame(t)

	conn, _, err := env.dial(t, out.GameID, "0", out.Tokens[0])
	require.NoError(t, err)
	readUntil(t, conn, func(f frame) bool { return f.Type == game.UpdateSnapshot })

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":      MessageSetSelection,
		"id":        "chat_text/1",
		"selection": map[string]any{"type": "string", "selection": "not mine"},
	}))
	rejected := readUntil(t, conn, func(f frame) bool { return f.Type == MessageRejected })
	assert.Equal(t, "player not allowed", rejected.Reason)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))
	failed := readUntil(t, conn, func(f frame) bool { return f.Type == MessageError })
	assert.Contains(t, failed.Message, "dance")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resync"}`)))
	readUntil(t, conn, func(f frame) bool { return f.Type == game.UpdateSnapshot })
}

func TestCloseGameRequiresHostToken(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.createGame(t)

	conn, _, err := env.dial(t, out.GameID, "2", out.Tokens[2])
	require.NoError(t, err)
	readUntil(t, conn, func(f frame) bool { return f.Type == game.UpdateSnapshot })

	del := func(token string) int {
		req, err := http.NewRequest(http.MethodDelete, env.http.URL+"/games/"+out.GameID, bytes.NewReader(nil))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, del(out.Tokens[1]))
	assert.Equal(t, 1, env.manager.Count())

	assert.Equal(t, http.StatusNoContent, del(out.Tokens[0]))
	assert.Zero(t, env.manager.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	id := uuid.MustParse(out.GameID)
	assert.Zero(t, env.hub.Clients(id, 2))
}
