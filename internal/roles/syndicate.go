package roles

import (
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// EffectPoison keys a pending poison on its victim.
const EffectPoison = "poison"

func newFramer() game.Ability {
	return targeted{priority: night.Deception, act: func(_ *game.Game, _ game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		v.Frame(target)
	}}
}

func newEraser() game.Ability {
	return targeted{priority: night.DeleteMessages, act: func(_ *game.Game, _ game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		v.ClearMessages(target)
	}}
}

// newRecruiter converts a town member into a mafioso at dawn. Armored players
// and anyone not on the town resist.
func newRecruiter() game.Ability {
	return targeted{priority: night.Convert, act: func(g *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		pn, ok := v.Player(target)
		team, _ := g.TeamOf(target)
		if !ok || pn.Died || team != roster.TeamTown || v.Defense(target) >= night.DefenseArmored {
			v.PushMessage(id.Player, night.Message{Kind: night.MessageConvertFailed, Players: []roster.PlayerRef{target}})
			return
		}
		v.Convert(target, Mafioso)
		v.PushMessage(target, night.Message{Kind: night.MessageConverted})
	}}
}

// newPoisoner attaches a poison to its target that kills at the next night's
// poison step unless the victim is protected that night.
func newPoisoner() game.Ability {
	return targeted{priority: night.Poison, act: func(g *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		pn, ok := v.Player(target)
		if !ok || pn.Died {
			return
		}
		if _, pending := g.Ability(game.EffectAbility(target, EffectPoison)); pending {
			return
		}
		g.CreateAbility(game.EffectAbility(target, EffectPoison), &poison{by: id.Player, day: v.Day})
		v.PushMessage(target, night.Message{Kind: night.MessagePoisoned})
	}}
}

type poison struct {
	game.NoVisits
	game.NoControllers
	by  roster.PlayerRef
	day int
}

func (p *poison) OnMidnight(g *game.Game, id game.AbilityID, v *night.Variables, priority night.Priority) {
	if priority != night.Poison || v.Day <= p.day {
		return
	}
	g.DeleteAbility(id)
	if v.Defense(id.Player) >= night.DefenseProtected {
		v.PushMessage(id.Player, night.Message{Kind: night.MessageHealed})
		return
	}
	v.TryKill(night.Attack{
		Attackers: []roster.PlayerRef{p.by},
		Target:    id.Player,
		Power:     night.AttackBasic,
		Killer:    night.RoleKiller(Poisoner),
	})
}

// witch possesses one player and forces its ability onto a second.
type witch struct{}

func newWitch() game.Ability { return witch{} }

func (witch) Controllers(g *game.Game, id game.AbilityID) controller.ParametersMap {
	return pairController(g, id, g.LivingSet(id.Player), g.LivingSet())
}

// Visits makes the witch visit the possessed player only; the forced target is
// never visited by the witch herself.
func (witch) Visits(g *game.Game, id game.AbilityID) []night.Visit {
	visits := g.RoleVisits(id, 0)
	if len(visits) == 2 {
		visits[1].Indirect = true
	}
	return visits
}

func (witch) OnMidnight(g *game.Game, id game.AbilityID, v *night.Variables, p night.Priority) {
	if p != night.Possess {
		return
	}
	var possessed, target *night.Visit
	for _, visit := range ownVisits(v, id) {
		switch {
		case !visit.Indirect && possessed == nil:
			possessed = &visit
		case visit.Indirect && target == nil:
			target = &visit
		}
	}
	if possessed == nil || target == nil {
		return
	}
	if !g.Possess(v, possessed.Target, target.Target) {
		v.PushMessage(id.Player, night.Message{Kind: night.MessagePossessionFailed, Players: []roster.PlayerRef{possessed.Target}})
	}
}
