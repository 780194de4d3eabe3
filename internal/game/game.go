// Package game owns the state of one social deduction game: players and their
// roles, the phase clock, the controller store and the event buses that role
// abilities hook into. A Game is not safe for concurrent use; the Manager runs
// each game on its own goroutine.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

var (
	// ErrUnknownRole is returned when a role list names an unregistered role.
	ErrUnknownRole = errors.New("unknown role")
	// ErrSeatMismatch is returned when names and roles differ in length.
	ErrSeatMismatch = errors.New("player and role counts differ")
	// ErrNoPlayers is returned for a game without seats.
	ErrNoPlayers = errors.New("game has no players")
)

// Settings configure a new game.
type Settings struct {
	Names []string
	Roles []roster.Role
	// Seed drives every random choice in the game.
	Seed      uint64
	Durations phase.Durations
}

// Player is one seat.
type Player struct {
	Name  string
	Role  roster.Role
	Alive bool
	Chat  []ChatMessage
}

// Game is the single owner of one game's state.
type Game struct {
	logger *zap.Logger
	seed   uint64
	rng    *rand.Rand

	players   []*Player
	phase     phase.Type
	remaining time.Duration
	durations phase.Durations
	day       int
	accused   roster.PlayerRef
	onTrial   bool

	controllers *controller.Store
	abilities   map[AbilityID]abilitySlot
	generation  uint64

	graves   []night.Grave
	outcomes []night.Outcome
	dirty    roster.PlayerSet

	ended  bool
	winner roster.Team

	Events Events
}

// New seats the players and grants each the ability of its role. The game
// starts in no phase; call Start to begin the briefing.
func New(logger *zap.Logger, settings Settings) (*Game, error) {
	if len(settings.Names) == 0 {
		return nil, ErrNoPlayers
	}
	if len(settings.Names) != len(settings.Roles) {
		return nil, fmt.Errorf("%w: %d players, %d roles", ErrSeatMismatch, len(settings.Names), len(settings.Roles))
	}
	for _, role := range settings.Roles {
		if _, ok := LookupRole(role); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	durations := phase.DefaultDurations()
	for p, d := range settings.Durations {
		durations[p] = d
	}

	g := &Game{
		logger:      logger,
		seed:        settings.Seed,
		rng:         rand.New(rand.NewPCG(settings.Seed, settings.Seed^0x9e3779b97f4a7c15)),
		durations:   durations,
		day:         1,
		controllers: controller.NewStore(),
		abilities:   make(map[AbilityID]abilitySlot),
		dirty:       roster.NewPlayerSet(),
		Events:      newEvents(),
	}
	for i, name := range settings.Names {
		g.players = append(g.players, &Player{Name: name, Role: settings.Roles[i], Alive: true})
	}

	g.registerCoreListeners()
	for i := range g.players {
		g.grantRoleAbility(roster.PlayerRef(i))
	}
	g.UpdateControllers()
	return g, nil
}

// Logger returns the game's logger.
func (g *Game) Logger() *zap.Logger { return g.logger }

// Rand returns the game's seeded random source. Abilities needing randomness
// must use it so replays with the same seed resolve identically.
func (g *Game) Rand() *rand.Rand { return g.rng }

// Seed returns the seed the game was created with.
func (g *Game) Seed() uint64 { return g.seed }

// PlayerCount returns the number of seats.
func (g *Game) PlayerCount() int { return len(g.players) }

// Player returns the seat p.
func (g *Game) Player(p roster.PlayerRef) (*Player, bool) {
	if p < 0 || int(p) >= len(g.players) {
		return nil, false
	}
	return g.players[p], true
}

// Players returns every seat index.
func (g *Game) Players() []roster.PlayerRef {
	out := make([]roster.PlayerRef, len(g.players))
	for i := range g.players {
		out[i] = roster.PlayerRef(i)
	}
	return out
}

// Alive reports whether p is seated and alive.
func (g *Game) Alive(p roster.PlayerRef) bool {
	player, ok := g.Player(p)
	return ok && player.Alive
}

// Living returns living players in index order.
func (g *Game) Living() []roster.PlayerRef {
	var out []roster.PlayerRef
	for i, player := range g.players {
		if player.Alive {
			out = append(out, roster.PlayerRef(i))
		}
	}
	return out
}

// LivingSet returns living players as a set, optionally excluding some.
func (g *Game) LivingSet(except ...roster.PlayerRef) roster.PlayerSet {
	set := roster.NewPlayerSet(g.Living()...)
	for _, p := range except {
		delete(set, p)
	}
	return set
}

// LivingWithRole implements roster.Lookup.
func (g *Game) LivingWithRole(role roster.Role) []roster.PlayerRef {
	var out []roster.PlayerRef
	for i, player := range g.players {
		if player.Alive && player.Role == role {
			out = append(out, roster.PlayerRef(i))
		}
	}
	return out
}

// RoleOf returns p's current role.
func (g *Game) RoleOf(p roster.PlayerRef) (roster.Role, bool) {
	player, ok := g.Player(p)
	if !ok {
		return "", false
	}
	return player.Role, true
}

// SpecOf returns the spec of p's current role.
func (g *Game) SpecOf(p roster.PlayerRef) (RoleSpec, bool) {
	role, ok := g.RoleOf(p)
	if !ok {
		return RoleSpec{}, false
	}
	return LookupRole(role)
}

// TeamOf returns p's team.
func (g *Game) TeamOf(p roster.PlayerRef) (roster.Team, bool) {
	spec, ok := g.SpecOf(p)
	if !ok {
		return "", false
	}
	return spec.Team, true
}

// LivingOnTeam returns living members of team in index order.
func (g *Game) LivingOnTeam(team roster.Team) []roster.PlayerRef {
	var out []roster.PlayerRef
	for _, p := range g.Living() {
		if t, _ := g.TeamOf(p); t == team {
			out = append(out, p)
		}
	}
	return out
}

// SetRole changes p's role, swapping the role ability.
func (g *Game) SetRole(p roster.PlayerRef, role roster.Role) bool {
	player, ok := g.Player(p)
	if !ok {
		return false
	}
	if _, ok := LookupRole(role); !ok {
		g.logger.Warn("set role to unregistered role", zap.Int("player", int(p)), zap.String("role", string(role)))
		return false
	}
	g.DeleteAbility(RoleAbility(p, player.Role))
	player.Role = role
	g.grantRoleAbility(p)
	g.dirty.Add(p)
	return true
}

func (g *Game) grantRoleAbility(p roster.PlayerRef) {
	player := g.players[p]
	spec, ok := LookupRole(player.Role)
	if !ok || spec.New == nil {
		return
	}
	g.CreateAbility(RoleAbility(p, player.Role), spec.New())
}

// Phase returns the current phase.
func (g *Game) Phase() phase.Type { return g.phase }

// Day returns the day number. Night N follows day N.
func (g *Game) Day() int { return g.day }

// Remaining returns the time left in the current phase.
func (g *Game) Remaining() time.Duration { return g.remaining }

// Accused returns the player on trial, if any.
func (g *Game) Accused() (roster.PlayerRef, bool) { return g.accused, g.onTrial }

// Graves returns every grave in order of death.
func (g *Game) Graves() []night.Grave { return g.graves }

// LastOutcome returns the most recent night's outcome.
func (g *Game) LastOutcome() (night.Outcome, bool) {
	if len(g.outcomes) == 0 {
		return night.Outcome{}, false
	}
	return g.outcomes[len(g.outcomes)-1], true
}

// Ended reports whether the game is over and who won. An empty team is a draw.
func (g *Game) Ended() (roster.Team, bool) { return g.winner, g.ended }

// Controllers returns the controller store. Mutate it only through
// SetSelection, ForceSelection and UpdateControllers.
func (g *Game) Controllers() *controller.Store { return g.controllers }

// ViewFor returns the controllers p may act on.
func (g *Game) ViewFor(p roster.PlayerRef) map[controller.ID]controller.Saved {
	return g.controllers.ViewFor(p)
}

// DrainDirty returns, in index order, the players whose view changed since the
// last call.
func (g *Game) DrainDirty() []roster.PlayerRef {
	if len(g.dirty) == 0 {
		return nil
	}
	out := g.dirty.Sorted()
	g.dirty = roster.NewPlayerSet()
	return out
}

func (g *Game) markDirty(sets ...roster.PlayerSet) {
	for _, set := range sets {
		for p := range set {
			g.dirty.Add(p)
		}
	}
}

func (g *Game) seats() []night.Seat {
	out := make([]night.Seat, len(g.players))
	for i, player := range g.players {
		seat := night.Seat{Role: player.Role, Alive: player.Alive}
		if spec, ok := LookupRole(player.Role); ok {
			seat.Defense = spec.Defense
		}
		out[i] = seat
	}
	return out
}
