package game

import (
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// UpdateControllers polls every controller source, reconciles the store and
// raises a ControllerChanged event per added, changed or removed controller.
// It is a no-op when nothing changed.
func (g *Game) UpdateControllers() {
	declared := controller.Combine(
		g.abilityControllers(),
		g.syndicateControllers(),
		g.chatControllers(),
		g.votingControllers(),
	)

	previous := make(map[controller.ID]roster.PlayerSet, g.controllers.Len())
	for _, id := range g.controllers.IDs() {
		if saved, ok := g.controllers.Get(id); ok {
			previous[id] = saved.Parameters.AllowedPlayers
		}
	}

	changes := g.controllers.Reconcile(declared)
	if changes.Empty() {
		return
	}

	for _, id := range changes.Changed {
		saved, _ := g.controllers.Get(id)
		g.markDirty(previous[id], saved.Parameters.AllowedPlayers)
		g.Events.OnControllerChanged.Invoke(g, ControllerChanged{ID: id, Selection: saved.Selection}, &event.None{})
	}
	for _, id := range changes.Removed {
		g.markDirty(previous[id])
		g.Events.OnControllerChanged.Invoke(g, ControllerChanged{ID: id, Removed: true}, &event.None{})
	}
}

// SetSelection applies a player's proposed selection. It is the only entry
// point for client input into the controller store.
func (g *Game) SetSelection(player roster.PlayerRef, id controller.ID, sel controller.Selection) controller.SetResult {
	return g.setSelection(controller.PlayerActor(player), id, sel, false)
}

// ForceSelection overwrites a selection on behalf of game logic. It bypasses
// the allowed-player and grayed-out checks but never legality.
func (g *Game) ForceSelection(id controller.ID, sel controller.Selection) controller.SetResult {
	return g.setSelection(controller.SystemActor(), id, sel, true)
}

func (g *Game) setSelection(actor controller.Actor, id controller.ID, sel controller.Selection, override bool) controller.SetResult {
	res := g.controllers.Set(actor, id, sel, override)
	player, isPlayer := actor.Player()
	if !res.Accepted() {
		fields := []zap.Field{zap.Stringer("controller", id), zap.Stringer("reason", res.Rejection)}
		if isPlayer {
			fields = append(fields, zap.Int("player", int(player)))
		}
		g.logger.Debug("selection rejected", fields...)
		return res
	}

	saved, _ := g.controllers.Get(id)
	if res.Stored {
		g.markDirty(saved.Parameters.AllowedPlayers)
	}
	changed := ControllerChanged{
		ID:          id,
		Selection:   res.Selection,
		ChatMessage: saved.Parameters.ChatMessageOnChange,
	}
	if isPlayer {
		changed.Actor = &player
	}
	g.Events.OnControllerChanged.Invoke(g, changed, &event.None{})
	if isPlayer {
		g.Events.OnValidatedInput.Invoke(g, ValidatedInput{Player: player, ID: id, Selection: res.Selection}, &event.None{})
	}
	return res
}

// Selection returns the stored selection of id.
func (g *Game) Selection(id controller.ID) (controller.Selection, bool) {
	return g.controllers.Selection(id)
}

// TargetsOf returns the players chosen on a player-list or pair controller.
func (g *Game) TargetsOf(id controller.ID) []roster.PlayerRef {
	sel, ok := g.controllers.Selection(id)
	if !ok {
		return nil
	}
	switch s := sel.(type) {
	case controller.PlayerList:
		return s
	case controller.TwoPlayerOption:
		if s.Chosen {
			return []roster.PlayerRef{s.First, s.Second}
		}
	}
	return nil
}

// Possess makes possessed use its first targeted ability on target. The
// possessed player's controller is overwritten through the normal validation
// path and only that controller's visits in the fold are rebuilt from the new
// selection.
func (g *Game) Possess(v *night.Variables, possessed, target roster.PlayerRef) bool {
	spec, ok := g.SpecOf(possessed)
	if !ok || !v.Alive(possessed) || spec.PossessionImmune {
		return false
	}

	for _, abilityID := range g.AbilitiesOf(possessed) {
		if abilityID.Effect != "" {
			continue
		}
		a, _ := g.Ability(abilityID)
		for _, id := range a.Controllers(g, abilityID).IDs() {
			sel, ok := g.controllers.Selection(id)
			if !ok {
				continue
			}
			next, ok := controller.WithFirstPlayer(sel, target)
			if !ok {
				continue
			}
			res := g.ForceSelection(id, next)
			if !res.Accepted() && res.Rejection != controller.RejectedUnchanged {
				continue
			}
			tag := night.TagForController(id)
			var rebuilt []night.Visit
			for _, visit := range a.Visits(g, abilityID) {
				if visit.Tag == tag {
					rebuilt = append(rebuilt, visit)
				}
			}
			v.ReplaceVisitsByTag(possessed, tag, rebuilt)
			v.PushMessage(possessed, night.Message{Kind: night.MessagePossessed})
			return true
		}
	}
	return false
}

func (g *Game) abilityControllers() controller.ParametersMap {
	var maps []controller.ParametersMap
	for _, id := range g.AbilityIDs() {
		a, _ := g.Ability(id)
		if m := a.Controllers(g, id); len(m) > 0 {
			maps = append(maps, m)
		}
	}
	return controller.Combine(maps...)
}

// RoleTargetController declares the common "pick living players at night"
// controller for slot of id's role ability. Dead owners and roleblock-proof
// concerns are left to the caller.
func (g *Game) RoleTargetController(id AbilityID, slot, maxPlayers int, targets roster.PlayerSet) *controller.Builder {
	return controller.NewBuilder(controller.RoleAbilityID(id.Player, id.Role, slot)).
		Available(controller.AvailablePlayerList{Players: targets, MaxPlayers: maxPlayers}).
		NightTyped().
		GrayedOutIf(!g.Alive(id.Player)).
		GrayedOutIf(g.phase != phase.Night).
		AllowPlayers(id.Player)
}

// RoleVisits turns the selection of slot of id's role ability into visits.
func (g *Game) RoleVisits(id AbilityID, slot int, opts ...night.VisitOption) []night.Visit {
	controllerID := controller.RoleAbilityID(id.Player, id.Role, slot)
	sel, ok := g.controllers.Selection(controllerID)
	if !ok {
		return nil
	}
	return night.VisitsFromSelection(id.Player, night.TagForController(controllerID), sel, g, opts...)
}

func (g *Game) votingControllers() controller.ParametersMap {
	var maps []controller.ParametersMap
	for _, p := range g.Living() {
		maps = append(maps,
			controller.NewBuilder(controller.NominateID(p)).
				Available(controller.AvailablePlayerList{Players: g.LivingSet(p), MaxPlayers: 1}).
				GrayedOutIf(g.phase != phase.Nomination).
				ResetOnPhaseStart(phase.Nomination).
				ChatMessageOnChange().
				AllowPlayers(p).
				Build(),
			controller.NewBuilder(controller.JudgeID(p)).
				Available(controller.AvailableInteger{Min: -1, Max: 1}).
				Default(controller.Integer(0)).
				GrayedOutIf(g.phase != phase.Judgement).
				GrayedOutIf(g.onTrial && g.accused == p).
				ResetOnPhaseStart(phase.Judgement).
				AllowPlayers(p).
				Build(),
		)
	}
	return controller.Combine(maps...)
}
