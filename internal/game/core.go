package game

import (
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// registerCoreListeners wires the game's own reactions. They are registered
// before any ability, so at a shared priority they run first.
func (g *Game) registerCoreListeners() {
	g.Events.OnMidnight.Register(AtPriority(night.Kill, (*Game).resolveSyndicateKill))
	g.Events.OnMidnight.Register(AtPriority(night.FinalizeNight, (*Game).finalizeNight))

	g.Events.OnPhaseStart.Register(event.On(func(g *Game, ev PhaseStart, _ *event.None, _ event.Unit) {
		for _, id := range g.controllers.ResetForPhase(ev.Phase) {
			saved, _ := g.controllers.Get(id)
			g.markDirty(saved.Parameters.AllowedPlayers)
			g.Events.OnControllerChanged.Invoke(g, ControllerChanged{ID: id, Selection: saved.Selection}, &event.None{})
		}
	}))

	g.Events.OnAnyDeath.Register(event.On(func(g *Game, ev AnyDeath, _ *event.None, _ event.Unit) {
		for _, id := range g.AbilitiesOf(ev.Player) {
			g.DeleteAbility(id)
		}
	}))

	g.Events.OnValidatedInput.Register(event.On(func(g *Game, ev ValidatedInput, _ *event.None, _ event.Unit) {
		switch ev.ID.Kind {
		case controller.KindSendChat:
			g.sendChat(ev.Player)
		case controller.KindSendWhisper:
			g.sendWhisper(ev.Player)
		}
	}))

	g.Events.OnControllerChanged.Register(event.On(func(g *Game, ev ControllerChanged, _ *event.None, _ event.Unit) {
		if !ev.ChatMessage || ev.Actor == nil || ev.Removed {
			return
		}
		g.renderSelection(ev)
	}))

	g.Events.OnRoleblocked.Register(event.On(func(g *Game, ev Roleblocked, _ *night.Variables, _ event.Unit) {
		g.logger.Debug("player roleblocked", zap.Int("player", int(ev.Player)))
	}))
	g.Events.OnWardblocked.Register(event.On(func(g *Game, ev Wardblocked, _ *night.Variables, _ event.Unit) {
		g.logger.Debug("player wardblocked", zap.Int("player", int(ev.Player)))
	}))
}

// renderSelection posts an accepted change as a chat action. Votes are public;
// everything else is shown to the controller's own players.
func (g *Game) renderSelection(ev ControllerChanged) {
	raw, err := controller.MarshalSelection(ev.Selection)
	if err != nil {
		g.logger.Warn("render selection", zap.Stringer("controller", ev.ID), zap.Error(err))
		return
	}

	var audience []roster.PlayerRef
	switch ev.ID.Kind {
	case controller.KindNominate, controller.KindJudge:
		audience = g.Players()
	default:
		saved, ok := g.controllers.Get(ev.ID)
		if !ok {
			return
		}
		audience = saved.Parameters.AllowedPlayers.Sorted()
	}

	id := ev.ID
	g.post(ChatMessage{Kind: ChatSelection, From: ev.Actor, Control: &id, Selection: raw}, audience...)
}
