package game

import (
	"encoding/json"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// ChatKind classifies chat log entries.
type ChatKind string

const (
	ChatPlayer    ChatKind = "player"
	ChatWhisper   ChatKind = "whisper"
	ChatNight     ChatKind = "night"
	ChatGrave     ChatKind = "grave"
	ChatSelection ChatKind = "selection"
	ChatSystem    ChatKind = "system"
)

// ChatMessage is one entry in a player's chat log.
type ChatMessage struct {
	Kind      ChatKind          `json:"kind"`
	Day       int               `json:"day"`
	Phase     phase.Type        `json:"phase"`
	From      *roster.PlayerRef `json:"from,omitempty"`
	To        *roster.PlayerRef `json:"to,omitempty"`
	Text      string            `json:"text,omitempty"`
	Night     *night.Message    `json:"night,omitempty"`
	Grave     *night.Grave      `json:"grave,omitempty"`
	Control   *controller.ID    `json:"control,omitempty"`
	Selection json.RawMessage   `json:"selection,omitempty"`
}

// ChatSince returns p's chat entries from index from on.
func (g *Game) ChatSince(p roster.PlayerRef, from int) []ChatMessage {
	player, ok := g.Player(p)
	if !ok || from >= len(player.Chat) {
		return nil
	}
	if from < 0 {
		from = 0
	}
	return player.Chat[from:]
}

func (g *Game) post(msg ChatMessage, recipients ...roster.PlayerRef) {
	msg.Day, msg.Phase = g.day, g.phase
	for _, p := range recipients {
		if player, ok := g.Player(p); ok {
			player.Chat = append(player.Chat, msg)
			g.dirty.Add(p)
		}
	}
}

// Announce posts a system message to every player.
func (g *Game) Announce(text string) {
	g.post(ChatMessage{Kind: ChatSystem, Text: text}, g.Players()...)
}

// canChat reports whether p's messages reach anyone right now.
func (g *Game) canChat(p roster.PlayerRef) bool {
	return len(g.chatRecipients(p)) > 0
}

// chatRecipients returns who hears p's chat. The dead talk among themselves;
// at night only the syndicate talks, to each other.
func (g *Game) chatRecipients(p roster.PlayerRef) []roster.PlayerRef {
	player, ok := g.Player(p)
	if !ok || g.phase == phase.None {
		return nil
	}
	if !player.Alive {
		var dead []roster.PlayerRef
		for i, other := range g.players {
			if !other.Alive {
				dead = append(dead, roster.PlayerRef(i))
			}
		}
		return dead
	}
	if g.phase == phase.Night {
		if team, _ := g.TeamOf(p); team == roster.TeamSyndicate {
			return g.LivingOnTeam(roster.TeamSyndicate)
		}
		return nil
	}
	return g.Players()
}

func (g *Game) canWhisper(p roster.PlayerRef) bool {
	return g.Alive(p) && g.phase != phase.Night && g.phase != phase.None
}

func (g *Game) chatText(p roster.PlayerRef) string {
	sel, ok := g.controllers.Selection(controller.ChatTextID(p))
	if !ok {
		return ""
	}
	text, _ := sel.(controller.String)
	return string(text)
}

func (g *Game) sendChat(p roster.PlayerRef) {
	text := g.chatText(p)
	if text == "" {
		return
	}
	from := p
	g.post(ChatMessage{Kind: ChatPlayer, From: &from, Text: text}, g.chatRecipients(p)...)
}

func (g *Game) sendWhisper(p roster.PlayerRef) {
	text := g.chatText(p)
	sel, ok := g.controllers.Selection(controller.WhisperTargetID(p))
	if text == "" || !ok || !g.canWhisper(p) {
		return
	}
	targets, _ := sel.(controller.PlayerList)
	if len(targets) == 0 || !g.Alive(targets[0]) {
		return
	}
	from, to := p, targets[0]
	g.post(ChatMessage{Kind: ChatWhisper, From: &from, To: &to, Text: text}, from, to)
}

func (g *Game) chatControllers() controller.ParametersMap {
	var maps []controller.ParametersMap
	for _, p := range g.Players() {
		maps = append(maps,
			controller.NewBuilder(controller.ChatTextID(p)).
				Available(controller.AvailableString{}).
				AllowPlayers(p).
				Build(),
			controller.NewBuilder(controller.SendChatID(p)).
				Available(controller.AvailableUnit{}).
				GrayedOutIf(!g.canChat(p)).
				AllowPlayers(p).
				DontSave().
				Build(),
			controller.NewBuilder(controller.WhisperTargetID(p)).
				Available(controller.AvailablePlayerList{Players: g.LivingSet(p), MaxPlayers: 1}).
				GrayedOutIf(!g.canWhisper(p)).
				AllowPlayers(p).
				Build(),
			controller.NewBuilder(controller.SendWhisperID(p)).
				Available(controller.AvailableUnit{}).
				GrayedOutIf(!g.canWhisper(p)).
				AllowPlayers(p).
				DontSave().
				Build(),
		)
	}
	return controller.Combine(maps...)
}
