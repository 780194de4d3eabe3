// Package roles registers the stock roles with the game core. Import it for
// its side effects:
//
//	import _ "github.com/midnight-machinations/midnight-machinations-sub000/internal/roles"
package roles

import (
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Role names.
const (
	Villager    roster.Role = "villager"
	Escort      roster.Role = "escort"
	Bouncer     roster.Role = "bouncer"
	Transporter roster.Role = "transporter"
	Doctor      roster.Role = "doctor"
	Bodyguard   roster.Role = "bodyguard"
	Detective   roster.Role = "detective"
	Lookout     roster.Role = "lookout"
	Snoop       roster.Role = "snoop"

	Godfather roster.Role = "godfather"
	Mafioso   roster.Role = "mafioso"
	Framer    roster.Role = "framer"
	Witch     roster.Role = "witch"
	Recruiter roster.Role = "recruiter"
	Poisoner  roster.Role = "poisoner"
	Eraser    roster.Role = "eraser"
)

func init() {
	for _, spec := range []game.RoleSpec{
		{Name: Villager, Team: roster.TeamTown},
		{Name: Escort, Team: roster.TeamTown, RoleblockImmune: true, New: newEscort},
		{Name: Bouncer, Team: roster.TeamTown, New: newBouncer},
		{Name: Transporter, Team: roster.TeamTown, RoleblockImmune: true, PossessionImmune: true, Unique: true, New: newTransporter},
		{Name: Doctor, Team: roster.TeamTown, New: newDoctor},
		{Name: Bodyguard, Team: roster.TeamTown, New: newBodyguard},
		{Name: Detective, Team: roster.TeamTown, New: newDetective},
		{Name: Lookout, Team: roster.TeamTown, New: newLookout},
		{Name: Snoop, Team: roster.TeamTown, New: newSnoop},

		{Name: Godfather, Team: roster.TeamSyndicate, Defense: night.DefenseArmored, Unique: true, SyndicateKillRank: 2},
		{Name: Mafioso, Team: roster.TeamSyndicate, Suspicious: true, SyndicateKillRank: 1},
		{Name: Framer, Team: roster.TeamSyndicate, Suspicious: true, SyndicateKillRank: 3, New: newFramer},
		{Name: Recruiter, Team: roster.TeamSyndicate, Suspicious: true, Unique: true, SyndicateKillRank: 4, New: newRecruiter},
		{Name: Poisoner, Team: roster.TeamSyndicate, Suspicious: true, SyndicateKillRank: 5, New: newPoisoner},
		{Name: Eraser, Team: roster.TeamSyndicate, Suspicious: true, SyndicateKillRank: 6, New: newEraser},
		{Name: Witch, Team: roster.TeamSyndicate, Suspicious: true, PossessionImmune: true, Unique: true, SyndicateKillRank: 7, New: newWitch},
	} {
		game.RegisterRole(spec)
	}
}

// slotID is the controller of slot of id's role ability.
func slotID(id game.AbilityID, slot int) controller.ID {
	return controller.RoleAbilityID(id.Player, id.Role, slot)
}

// ownVisits returns the surviving visits id's ability made tonight.
func ownVisits(v *night.Variables, id game.AbilityID) []night.Visit {
	return v.VisitsByTag(id.Player, night.TagForController(slotID(id, 0)))
}

// targeted is the shape most roles share: choose one living player at night,
// then act on every surviving visit at a single priority. Roleblocks and
// transports act on the visits, so act sees their result.
type targeted struct {
	priority night.Priority
	self     bool
	opts     []night.VisitOption
	act      func(g *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef)
}

func (a targeted) Controllers(g *game.Game, id game.AbilityID) controller.ParametersMap {
	targets := g.LivingSet(id.Player)
	if a.self {
		targets = g.LivingSet()
	}
	return g.RoleTargetController(id, 0, 1, targets).Build()
}

func (a targeted) Visits(g *game.Game, id game.AbilityID) []night.Visit {
	return g.RoleVisits(id, 0, a.opts...)
}

func (a targeted) OnMidnight(g *game.Game, id game.AbilityID, v *night.Variables, p night.Priority) {
	if p != a.priority {
		return
	}
	for _, visit := range ownVisits(v, id) {
		a.act(g, id, v, visit.Target)
	}
}

// pairController declares a two-player choice for slot 0 of id.
func pairController(g *game.Game, id game.AbilityID, first, second roster.PlayerSet) controller.ParametersMap {
	return controller.NewBuilder(slotID(id, 0)).
		Available(controller.AvailableTwoPlayerOption{First: first, Second: second, CanChooseNone: true}).
		NightTyped().
		GrayedOutIf(!g.Alive(id.Player)).
		GrayedOutIf(g.Phase() != phase.Night).
		AllowPlayers(id.Player).
		Build()
}
