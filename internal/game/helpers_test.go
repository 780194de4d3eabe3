package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

const (
	roleCitizen   roster.Role = "citizen"
	roleGoon      roster.Role = "goon"
	roleBoss      roster.Role = "boss"
	roleMedic     roster.Role = "medic"
	roleBlocker   roster.Role = "blocker"
	rolePuppeteer roster.Role = "puppeteer"
	roleStone     roster.Role = "stone"
)

func init() {
	RegisterRole(RoleSpec{Name: roleCitizen, Team: roster.TeamTown})
	RegisterRole(RoleSpec{Name: roleGoon, Team: roster.TeamSyndicate, SyndicateKillRank: 1, Suspicious: true})
	RegisterRole(RoleSpec{
		Name:              roleBoss,
		Team:              roster.TeamSyndicate,
		Defense:           night.DefenseArmored,
		Unique:            true,
		SyndicateKillRank: 2,
	})
	RegisterRole(RoleSpec{
		Name: roleMedic,
		Team: roster.TeamTown,
		New: func() Ability {
			return targetAbility{priority: night.Heal, act: func(_ *Game, _ AbilityID, v *night.Variables, visit night.Visit) {
				v.UpgradeDefense(visit.Target, night.DefenseProtected)
			}}
		},
	})
	RegisterRole(RoleSpec{
		Name: roleBlocker,
		Team: roster.TeamTown,
		New: func() Ability {
			return targetAbility{priority: night.Roleblock, act: func(g *Game, _ AbilityID, v *night.Variables, visit night.Visit) {
				g.Roleblock(v, visit.Target)
			}}
		},
	})
	RegisterRole(RoleSpec{
		Name: rolePuppeteer,
		Team: roster.TeamTown,
		New:  func() Ability { return puppeteerAbility{} },
	})
	RegisterRole(RoleSpec{
		Name:             roleStone,
		Team:             roster.TeamTown,
		RoleblockImmune:  true,
		PossessionImmune: true,
		New: func() Ability {
			return targetAbility{priority: night.Investigative, act: func(*Game, AbilityID, *night.Variables, night.Visit) {}}
		},
	})
}

// targetAbility picks one living player at night and acts on each of its
// visits at a single priority.
type targetAbility struct {
	priority night.Priority
	act      func(g *Game, id AbilityID, v *night.Variables, visit night.Visit)
}

func (a targetAbility) Controllers(g *Game, id AbilityID) controller.ParametersMap {
	return g.RoleTargetController(id, 0, 1, g.LivingSet(id.Player)).Build()
}

func (a targetAbility) Visits(g *Game, id AbilityID) []night.Visit {
	return g.RoleVisits(id, 0)
}

func (a targetAbility) OnMidnight(g *Game, id AbilityID, v *night.Variables, p night.Priority) {
	if p != a.priority || !v.Alive(id.Player) {
		return
	}
	tag := night.TagForController(controller.RoleAbilityID(id.Player, id.Role, 0))
	for _, visit := range v.VisitsByTag(id.Player, tag) {
		a.act(g, id, v, visit)
	}
}

// puppeteerAbility possesses its first target onto its second.
type puppeteerAbility struct{}

func (puppeteerAbility) Controllers(g *Game, id AbilityID) controller.ParametersMap {
	return controller.NewBuilder(controller.RoleAbilityID(id.Player, id.Role, 0)).
		Available(controller.AvailableTwoPlayerOption{
			First:         g.LivingSet(id.Player),
			Second:        g.LivingSet(),
			CanChooseNone: true,
		}).
		NightTyped().
		GrayedOutIf(!g.Alive(id.Player) || g.Phase() != phase.Night).
		AllowPlayers(id.Player).
		Build()
}

func (puppeteerAbility) Visits(g *Game, id AbilityID) []night.Visit {
	return g.RoleVisits(id, 0)
}

func (puppeteerAbility) OnMidnight(g *Game, id AbilityID, v *night.Variables, p night.Priority) {
	if p != night.Possess {
		return
	}
	visits := v.VisitsByTag(id.Player, night.TagForController(controller.RoleAbilityID(id.Player, id.Role, 0)))
	if len(visits) != 2 {
		return
	}
	g.Possess(v, visits[0].Target, visits[1].Target)
}

// recorder is an effect ability that records what it saw.
type recorder struct {
	NoVisits
	NoControllers
	priorities []night.Priority
	phases     []phase.Type
	deaths     []roster.PlayerRef
	created    int
	deleted    int
}

func (r *recorder) OnMidnight(_ *Game, _ AbilityID, _ *night.Variables, p night.Priority) {
	r.priorities = append(r.priorities, p)
}

func (r *recorder) OnPhaseStart(_ *Game, _ AbilityID, ev PhaseStart) {
	r.phases = append(r.phases, ev.Phase)
}

func (r *recorder) OnAnyDeath(_ *Game, _ AbilityID, ev AnyDeath) {
	r.deaths = append(r.deaths, ev.Player)
}

func (r *recorder) OnCreated(*Game, AbilityID) { r.created++ }
func (r *recorder) OnDeleted(*Game, AbilityID) { r.deleted++ }

func newTestGame(t *testing.T, roles ...roster.Role) *Game {
	t.Helper()
	names := make([]string, len(roles))
	for i := range roles {
		names[i] = fmt.Sprintf("p%d", i)
	}
	g, err := New(zaptest.NewLogger(t), Settings{Names: names, Roles: roles, Seed: 7})
	require.NoError(t, err)
	return g
}

// toNight starts g and skips the briefing.
func toNight(t *testing.T, g *Game) {
	t.Helper()
	g.Start()
	g.Skip()
	require.Equal(t, phase.Night, g.Phase())
}

// skipTo ends phases until g reaches p.
func skipTo(t *testing.T, g *Game, p phase.Type) {
	t.Helper()
	for i := 0; i < 16 && g.Phase() != p; i++ {
		g.Skip()
	}
	require.Equal(t, p, g.Phase())
}

func countChanges(g *Game) *int {
	n := new(int)
	g.Events.OnControllerChanged.Register(event.On(func(*Game, ControllerChanged, *event.None, event.Unit) {
		*n++
	}))
	return n
}

func chatOfKind(g *Game, p roster.PlayerRef, kind ChatKind) []ChatMessage {
	var out []ChatMessage
	for _, msg := range g.ChatSince(p, 0) {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func nightMessages(g *Game, p roster.PlayerRef) []night.MessageKind {
	var out []night.MessageKind
	for _, msg := range chatOfKind(g, p, ChatNight) {
		out = append(out, msg.Night.Kind)
	}
	return out
}

func targetID(p roster.PlayerRef, role roster.Role) controller.ID {
	return controller.RoleAbilityID(p, role, 0)
}
