package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

var (
	// ErrGameNotFound is returned for an unknown game id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameClosed is returned once a game's loop has stopped.
	ErrGameClosed = errors.New("game closed")
)

// Publisher delivers updates to the clients seated in a game. Publish is
// called from the game's goroutine and must not block on the network.
type Publisher interface {
	Publish(gameID uuid.UUID, player roster.PlayerRef, update Update)
}

// ManagerConfig tunes the per-game loops.
type ManagerConfig struct {
	TickInterval time.Duration
	QueueSize    int
}

type session struct {
	id     uuid.UUID
	inbox  chan func(*Game)
	done   chan struct{}
	cancel context.CancelFunc
}

// Manager runs games. Each game is owned by one goroutine that processes
// inbound commands and clock ticks one at a time, each to completion.
type Manager struct {
	ctx       context.Context
	logger    *zap.Logger
	publisher Publisher
	cfg       ManagerConfig

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup
}

// NewManager creates a manager whose games stop when ctx is done.
func NewManager(ctx context.Context, logger *zap.Logger, publisher Publisher, cfg ManagerConfig) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Manager{
		ctx:       ctx,
		logger:    logger,
		publisher: publisher,
		cfg:       cfg,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// Create starts a new game and returns its id.
func (m *Manager) Create(settings Settings) (uuid.UUID, error) {
	id := uuid.New()
	logger := m.logger.With(zap.String("game_id", id.String()))

	g, err := New(logger, settings)
	if err != nil {
		return uuid.Nil, err
	}
	g.Start()

	ctx, cancel := context.WithCancel(m.ctx)
	s := &session{
		id:     id,
		inbox:  make(chan func(*Game), m.cfg.QueueSize),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, s, g)

	logger.Info("game created",
		zap.Int("players", len(settings.Names)),
		zap.Uint64("seed", settings.Seed),
	)
	return id, nil
}

// Close stops a game's loop and forgets it.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.cancel()
		<-s.done
		m.logger.Info("game closed", zap.String("game_id", id.String()))
	}
}

// Count returns the number of running games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Wait blocks until every game loop has stopped.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// SetSelection queues a player's selection and waits for the result.
func (m *Manager) SetSelection(ctx context.Context, gameID uuid.UUID, player roster.PlayerRef, id controller.ID, sel controller.Selection) (controller.SetResult, error) {
	return call(ctx, m, gameID, func(g *Game) controller.SetResult {
		return g.SetSelection(player, id, sel)
	})
}

// Snapshot returns player's full current state, including the whole chat log.
func (m *Manager) Snapshot(ctx context.Context, gameID uuid.UUID, player roster.PlayerRef) (Update, error) {
	return call(ctx, m, gameID, func(g *Game) Update {
		return g.UpdateFor(player, 0)
	})
}

// Resync publishes player's full state from the game's goroutine, so it is
// ordered with the incremental updates around it. Clients replace their chat
// log on a snapshot instead of appending to it.
func (m *Manager) Resync(ctx context.Context, gameID uuid.UUID, player roster.PlayerRef) error {
	_, err := call(ctx, m, gameID, func(g *Game) bool {
		if _, ok := g.Player(player); !ok || m.publisher == nil {
			return false
		}
		update := g.UpdateFor(player, 0)
		update.Type = UpdateSnapshot
		m.publisher.Publish(gameID, player, update)
		return true
	})
	return err
}

// PlayerCount returns the number of seats in a game.
func (m *Manager) PlayerCount(ctx context.Context, gameID uuid.UUID) (int, error) {
	return call(ctx, m, gameID, (*Game).PlayerCount)
}

func (m *Manager) session(id uuid.UUID) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// call runs fn on the game's goroutine and returns its result.
func call[T any](ctx context.Context, m *Manager, gameID uuid.UUID, fn func(*Game) T) (T, error) {
	var zero T
	s, ok := m.session(gameID)
	if !ok {
		return zero, ErrGameNotFound
	}

	reply := make(chan T, 1)
	cmd := func(g *Game) { reply <- fn(g) }
	select {
	case s.inbox <- cmd:
	case <-s.done:
		return zero, ErrGameClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return zero, ErrGameClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context, s *session, g *Game) {
	defer m.wg.Done()
	defer close(s.done)

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	cursors := make([]int, g.PlayerCount())
	last := time.Now()
	m.flush(s, g, cursors)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.inbox:
			cmd(g)
			g.UpdateControllers()
		case now := <-ticker.C:
			g.Tick(now.Sub(last))
			last = now
		}
		m.flush(s, g, cursors)
	}
}

// flush pushes an update to every seat whose view changed.
func (m *Manager) flush(s *session, g *Game, cursors []int) {
	for _, p := range g.DrainDirty() {
		update := g.UpdateFor(p, cursors[p])
		cursors[p] = g.ChatLen(p)
		if m.publisher != nil {
			m.publisher.Publish(s.id, p, update)
		}
	}
}
