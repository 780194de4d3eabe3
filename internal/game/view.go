package game

import (
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// SeatView is what every player may know about a seat.
type SeatView struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

// Update types.
const (
	UpdateState    = "state"
	UpdateSnapshot = "snapshot"
)

// Update is one push to a connected seat.
type Update struct {
	Type        string                             `json:"type"`
	Player      roster.PlayerRef                   `json:"player"`
	Role        roster.Role                        `json:"role"`
	Phase       phase.Type                         `json:"phase"`
	Day         int                                `json:"day"`
	RemainingMs int64                              `json:"remainingMs"`
	Seats       []SeatView                         `json:"seats"`
	Controllers map[controller.ID]controller.Saved `json:"controllers"`
	Chat        []ChatMessage                      `json:"chat,omitempty"`
	Winner      *roster.Team                       `json:"winner,omitempty"`
	Ended       bool                               `json:"ended"`
}

// UpdateFor builds p's update carrying chat entries from index chatFrom on.
func (g *Game) UpdateFor(p roster.PlayerRef, chatFrom int) Update {
	u := Update{
		Type:        UpdateState,
		Player:      p,
		Phase:       g.phase,
		Day:         g.day,
		RemainingMs: g.remaining.Milliseconds(),
		Controllers: g.controllers.ViewFor(p),
		Chat:        g.ChatSince(p, chatFrom),
		Ended:       g.ended,
	}
	if role, ok := g.RoleOf(p); ok {
		u.Role = role
	}
	for _, player := range g.players {
		u.Seats = append(u.Seats, SeatView{Name: player.Name, Alive: player.Alive})
	}
	if g.ended {
		winner := g.winner
		u.Winner = &winner
	}
	return u
}

// ChatLen returns the length of p's chat log.
func (g *Game) ChatLen(p roster.PlayerRef) int {
	player, ok := g.Player(p)
	if !ok {
		return 0
	}
	return len(player.Chat)
}
