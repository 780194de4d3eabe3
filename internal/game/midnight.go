package game

import (
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// KillerExecution is shown on the grave of an executed player.
const KillerExecution night.Killer = "execution"

// Midnight resolves the night from the currently saved selections and applies
// the outcome to the game.
func (g *Game) Midnight() night.Outcome {
	v := night.NewVariables(g.day, g.seats(), g.collectVisits())
	g.logger.Debug("resolving night",
		zap.Int("day", g.day),
		zap.Int("visits", len(v.Visits)),
		zap.Int("listeners", g.Events.OnMidnight.Len()),
	)

	g.Events.OnMidnight.Invoke(g, night.Midnight{Day: g.day}, v)

	out := v.Outcome()
	g.outcomes = append(g.outcomes, out)
	g.logger.Info("night resolved",
		zap.Int("day", g.day),
		zap.Int("deaths", len(out.Deaths())),
		zap.String("checksum", out.Checksum()),
	)
	return out
}

// collectVisits gathers every ability's visits, players in index order and
// each player's abilities in AbilityID order.
func (g *Game) collectVisits() []night.Visit {
	var visits []night.Visit
	for _, p := range g.Players() {
		visits = append(visits, g.visitsOf(p)...)
	}
	return visits
}

func (g *Game) visitsOf(p roster.PlayerRef) []night.Visit {
	var visits []night.Visit
	for _, id := range g.AbilitiesOf(p) {
		a, _ := g.Ability(id)
		visits = append(visits, a.Visits(g, id)...)
	}
	if killer, ok := g.syndicateKiller(); ok && killer == p {
		sel, ok := g.controllers.Selection(controller.SyndicateKillID())
		if ok {
			visits = append(visits, night.VisitsFromSelection(p, night.SyndicateKillTag(), sel, g, night.AsAttack())...)
		}
	}
	return visits
}

// Roleblock blocks target for the rest of the night unless its role is
// immune, and raises OnRoleblocked.
func (g *Game) Roleblock(v *night.Variables, target roster.PlayerRef) bool {
	spec, ok := g.SpecOf(target)
	if !ok || !v.Alive(target) {
		return false
	}
	if spec.RoleblockImmune {
		return false
	}
	v.Roleblock(target)
	v.PushMessage(target, night.Message{Kind: night.MessageRoleblocked})
	g.Events.OnRoleblocked.Invoke(g, Roleblocked{Player: target}, v)
	return true
}

// Wardblock blocks target's visits except wardblock-immune ones and raises
// OnWardblocked. Roleblock immunity does not help against it.
func (g *Game) Wardblock(v *night.Variables, target roster.PlayerRef) bool {
	if !v.Alive(target) {
		return false
	}
	v.Wardblock(target)
	v.PushMessage(target, night.Message{Kind: night.MessageWardblocked})
	g.Events.OnWardblocked.Invoke(g, Wardblocked{Player: target}, v)
	return true
}

// syndicateKiller returns the living syndicate member who carries out the
// shared kill: the lowest positive kill rank, ties broken by seat.
func (g *Game) syndicateKiller() (roster.PlayerRef, bool) {
	var (
		best     roster.PlayerRef
		bestRank int
	)
	for _, p := range g.LivingOnTeam(roster.TeamSyndicate) {
		spec, _ := g.SpecOf(p)
		if spec.SyndicateKillRank <= 0 {
			continue
		}
		if bestRank == 0 || spec.SyndicateKillRank < bestRank {
			best, bestRank = p, spec.SyndicateKillRank
		}
	}
	return best, bestRank > 0
}

func (g *Game) syndicateControllers() controller.ParametersMap {
	members := g.LivingOnTeam(roster.TeamSyndicate)
	if _, ok := g.syndicateKiller(); !ok || len(members) == 0 {
		return nil
	}
	targets := g.LivingSet(members...)
	return controller.NewBuilder(controller.SyndicateKillID()).
		Available(controller.AvailablePlayerList{Players: targets, MaxPlayers: 1}).
		GrayedOutIf(g.phase != phase.Night).
		NightTyped().
		ChatMessageOnChange().
		AllowPlayers(members...).
		Build()
}

func (g *Game) resolveSyndicateKill(v *night.Variables) {
	for _, visit := range v.Visits {
		if visit.Tag != night.SyndicateKillTag() {
			continue
		}
		v.TryKill(night.Attack{
			Attackers: []roster.PlayerRef{visit.Actor},
			Target:    visit.Target,
			Power:     night.AttackBasic,
			Killer:    night.KillerSyndicate,
		})
	}
}

// finalizeNight applies deaths, conversions and message delivery.
func (g *Game) finalizeNight(v *night.Variables) {
	for _, p := range g.Players() {
		pn, _ := v.Player(p)
		if pn.Died && g.Alive(p) && pn.Grave != nil {
			g.kill(p, *pn.Grave)
		}
	}
	for _, c := range v.Converts {
		if g.Alive(c.Player) {
			g.SetRole(c.Player, c.Role)
		}
	}
	for _, p := range g.Players() {
		for _, msg := range v.Messages(p) {
			g.post(ChatMessage{Kind: ChatNight, Night: &msg}, p)
		}
	}
}

func (g *Game) kill(p roster.PlayerRef, grave night.Grave) {
	player, ok := g.Player(p)
	if !ok || !player.Alive {
		return
	}
	player.Alive = false
	g.graves = append(g.graves, grave)
	g.post(ChatMessage{Kind: ChatGrave, Grave: &grave}, g.Players()...)
	g.logger.Info("player died",
		zap.Int("player", int(p)),
		zap.String("role", string(grave.Role)),
		zap.Int("day", grave.Day),
	)
	g.Events.OnAnyDeath.Invoke(g, AnyDeath{Player: p, Grave: grave}, &event.None{})
}
