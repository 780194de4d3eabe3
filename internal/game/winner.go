package game

import (
	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Winner reports whether the game is decided. Town wins once no syndicate
// member lives; the syndicate wins once it holds at least half of the living.
// When everyone is dead the game is a draw and the team is empty.
func (g *Game) Winner() (roster.Team, bool) {
	living := g.Living()
	if len(living) == 0 {
		return "", true
	}
	syndicate := len(g.LivingOnTeam(roster.TeamSyndicate))
	switch {
	case syndicate == 0:
		return roster.TeamTown, true
	case syndicate*2 >= len(living):
		return roster.TeamSyndicate, true
	default:
		return "", false
	}
}

func (g *Game) checkWinner() bool {
	team, over := g.Winner()
	if !over {
		return false
	}
	g.ended, g.winner = true, team
	g.markDirty(roster.NewPlayerSet(g.Players()...))
	if team == "" {
		g.Announce("draw")
	} else {
		g.Announce(string(team) + " wins")
	}
	g.logger.Info("game over", zap.String("winner", string(team)), zap.Int("day", g.day))
	return true
}
