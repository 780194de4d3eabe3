package roles

import (
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Investigation results carried in a MessageInvestigation's text.
const (
	ResultSuspicious = "suspicious"
	ResultInnocent   = "innocent"
)

func newEscort() game.Ability {
	return targeted{priority: night.Roleblock, act: func(g *game.Game, _ game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		g.Roleblock(v, target)
	}}
}

func newBouncer() game.Ability {
	return targeted{
		priority: night.Wardblock,
		opts:     []night.VisitOption{night.ImmuneToWardblock()},
		act: func(g *game.Game, _ game.AbilityID, v *night.Variables, target roster.PlayerRef) {
			g.Wardblock(v, target)
		},
	}
}

func newDetective() game.Ability {
	return targeted{priority: night.Investigative, act: func(g *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		result := ResultInnocent
		spec, _ := g.SpecOf(target)
		if pn, ok := v.Player(target); spec.Suspicious || (ok && pn.Framed) {
			result = ResultSuspicious
		}
		v.PushMessage(id.Player, night.Message{
			Kind:    night.MessageInvestigation,
			Players: []roster.PlayerRef{target},
			Text:    result,
		})
	}}
}

func newLookout() game.Ability {
	return targeted{priority: night.Investigative, act: func(_ *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		seen := []roster.PlayerRef{}
		for _, visitor := range v.VisitorsOf(target) {
			if visitor != id.Player {
				seen = append(seen, visitor)
			}
		}
		v.PushMessage(id.Player, night.Message{Kind: night.MessageVisitors, Players: seen})
	}}
}

// newSnoop reads a copy of its target's messages after they are final.
func newSnoop() game.Ability {
	return targeted{priority: night.StealMessages, act: func(_ *game.Game, id game.AbilityID, v *night.Variables, target roster.PlayerRef) {
		stolen := v.Messages(target)
		v.PushMessage(id.Player, night.Message{Kind: night.MessageStolen, Players: []roster.PlayerRef{target}})
		for _, msg := range stolen {
			v.PushMessage(id.Player, msg)
		}
	}}
}

// doctor protects one player, itself included, and learns whether the
// protection was needed.
type doctor struct{}

func newDoctor() game.Ability { return doctor{} }

func (doctor) Controllers(g *game.Game, id game.AbilityID) controller.ParametersMap {
	return g.RoleTargetController(id, 0, 1, g.LivingSet()).Build()
}

func (doctor) Visits(g *game.Game, id game.AbilityID) []night.Visit {
	return g.RoleVisits(id, 0)
}

func (doctor) OnMidnight(_ *game.Game, id game.AbilityID, v *night.Variables, p night.Priority) {
	switch p {
	case night.Heal:
		for _, visit := range ownVisits(v, id) {
			v.UpgradeDefense(visit.Target, night.DefenseProtected)
		}
	case night.Investigative:
		for _, visit := range ownVisits(v, id) {
			pn, ok := v.Player(visit.Target)
			if !ok || !pn.Attacked || pn.Died {
				continue
			}
			v.PushMessage(visit.Target, night.Message{Kind: night.MessageHealed})
			v.PushMessage(id.Player, night.Message{Kind: night.MessageTargetHealed, Players: []roster.PlayerRef{visit.Target}})
		}
	}
}

// bodyguard steps in front of attacks on its target and strikes back at the
// attackers, usually dying in the process.
type bodyguard struct {
	attackers []roster.PlayerRef
	day       int
}

func newBodyguard() game.Ability { return &bodyguard{} }

func (b *bodyguard) Controllers(g *game.Game, id game.AbilityID) controller.ParametersMap {
	return g.RoleTargetController(id, 0, 1, g.LivingSet(id.Player)).Build()
}

func (b *bodyguard) Visits(g *game.Game, id game.AbilityID) []night.Visit {
	return g.RoleVisits(id, 0)
}

func (b *bodyguard) OnMidnight(_ *game.Game, id game.AbilityID, v *night.Variables, p night.Priority) {
	switch p {
	case night.Bodyguard:
		b.attackers, b.day = nil, v.Day
		for _, guard := range ownVisits(v, id) {
			for i := range v.Visits {
				visit := &v.Visits[i]
				if !visit.Attack || visit.Target != guard.Target || visit.Actor == id.Player {
					continue
				}
				visit.Target = id.Player
				b.attackers = append(b.attackers, visit.Actor)
			}
			if len(b.attackers) > 0 {
				v.PushMessage(guard.Target, night.Message{Kind: night.MessageGuarded})
			}
		}
	case night.Kill:
		if b.day != v.Day {
			return
		}
		for _, attacker := range b.attackers {
			v.TryKill(night.Attack{
				Attackers: []roster.PlayerRef{id.Player},
				Target:    attacker,
				Power:     night.AttackArmorPiercing,
				Killer:    night.RoleKiller(Bodyguard),
			})
		}
		b.attackers = nil
	}
}

// transporter swaps two players: every visit aimed at one lands on the other.
type transporter struct{}

func newTransporter() game.Ability { return transporter{} }

func (transporter) Controllers(g *game.Game, id game.AbilityID) controller.ParametersMap {
	living := g.LivingSet()
	return pairController(g, id, living, living)
}

func (transporter) Visits(g *game.Game, id game.AbilityID) []night.Visit {
	return g.RoleVisits(id, 0, night.ImmuneToTransport())
}

func (transporter) OnMidnight(_ *game.Game, id game.AbilityID, v *night.Variables, p night.Priority) {
	if p != night.Transporter {
		return
	}
	visits := ownVisits(v, id)
	if len(visits) != 2 {
		return
	}
	a, b := visits[0].Target, visits[1].Target
	v.RetargetVisits(map[roster.PlayerRef]roster.PlayerRef{a: b, b: a})
	v.PushMessage(a, night.Message{Kind: night.MessageTransported})
	v.PushMessage(b, night.Message{Kind: night.MessageTransported})
}
