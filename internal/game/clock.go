package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Start begins the briefing. It does nothing once the clock is running.
func (g *Game) Start() {
	if g.phase != phase.None {
		return
	}
	g.StartPhase(phase.Briefing)
}

// StartPhase enters p, resets controllers that declare p as their reset phase,
// raises OnPhaseStart and reconciles controllers.
func (g *Game) StartPhase(p phase.Type) {
	if p == phase.Obituary {
		g.day++
	}
	if p != phase.Judgement && p != phase.Dusk {
		g.onTrial = false
	}
	g.phase = p
	g.remaining = g.durations[p]
	g.markDirty(roster.NewPlayerSet(g.Players()...))

	g.logger.Info("phase started",
		zap.Stringer("phase", p),
		zap.Int("day", g.day),
		zap.Duration("duration", g.remaining),
	)
	g.Events.OnPhaseStart.Invoke(g, PhaseStart{Phase: p, Day: g.day}, &event.None{})
	g.UpdateControllers()
}

// Tick advances the clock by dt. When the phase runs out it ends the phase:
// the end of night resolves it, nominations and judgement are tallied. Tick
// always finishes with a controller reconciliation.
func (g *Game) Tick(dt time.Duration) {
	if g.ended || g.phase == phase.None {
		return
	}
	g.remaining -= dt
	if g.remaining <= 0 {
		g.endPhase()
	}
	g.UpdateControllers()
}

// Skip ends the current phase immediately.
func (g *Game) Skip() {
	if g.ended || g.phase == phase.None {
		return
	}
	g.endPhase()
	g.UpdateControllers()
}

func (g *Game) endPhase() {
	next := g.phase.Next()
	switch g.phase {
	case phase.Night:
		g.Midnight()
	case phase.Nomination:
		if accused, ok := g.tallyNominations(); ok {
			g.accused, g.onTrial = accused, true
			g.post(ChatMessage{Kind: ChatSystem, Text: "on trial", To: &accused}, g.Players()...)
		} else {
			next = phase.Dusk
		}
	case phase.Judgement:
		g.resolveJudgement()
	}

	if g.checkWinner() {
		return
	}
	g.StartPhase(next)
}

// tallyNominations returns the lowest-seated player nominated by a strict
// majority of the living.
func (g *Game) tallyNominations() (roster.PlayerRef, bool) {
	living := g.Living()
	votes := make([]int, len(g.players))
	for _, p := range living {
		for _, target := range g.TargetsOf(controller.NominateID(p)) {
			if g.Alive(target) {
				votes[target]++
			}
		}
	}
	for _, p := range living {
		if votes[p] > len(living)/2 {
			return p, true
		}
	}
	return 0, false
}

// resolveJudgement executes the accused if the verdicts sum below zero.
func (g *Game) resolveJudgement() {
	if !g.onTrial || !g.Alive(g.accused) {
		return
	}
	sum := 0
	for _, p := range g.Living() {
		if p == g.accused {
			continue
		}
		if sel, ok := g.controllers.Selection(controller.JudgeID(p)); ok {
			if verdict, ok := sel.(controller.Integer); ok {
				sum += int(verdict)
			}
		}
	}
	g.logger.Info("judgement", zap.Int("accused", int(g.accused)), zap.Int("verdict", sum))
	if sum >= 0 {
		return
	}
	role, _ := g.RoleOf(g.accused)
	g.kill(g.accused, night.Grave{
		Player:  g.accused,
		Role:    role,
		Day:     g.day,
		Killers: []night.Killer{KillerExecution},
	})
}
