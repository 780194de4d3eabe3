package night

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// PlayerOutcome is one player's finalized night.
type PlayerOutcome struct {
	Player      roster.PlayerRef `json:"player"`
	Died        bool             `json:"died"`
	Attacked    bool             `json:"attacked"`
	Blocked     bool             `json:"blocked"`
	Wardblocked bool             `json:"wardblocked"`
	Framed      bool             `json:"framed"`
	Messages    []Message        `json:"messages,omitempty"`
	Grave       *Grave           `json:"grave,omitempty"`
}

// Outcome is the result of one night's resolution.
type Outcome struct {
	Day      int             `json:"day"`
	Players  []PlayerOutcome `json:"players"`
	Converts []Conversion    `json:"converts,omitempty"`
}

// Deaths returns the graves of everyone who died, in player order.
func (o Outcome) Deaths() []Grave {
	var graves []Grave
	for _, p := range o.Players {
		if p.Died && p.Grave != nil {
			graves = append(graves, *p.Grave)
		}
	}
	return graves
}

// Checksum returns a SHA-256 over a canonical rendering of the outcome. Two
// resolutions of the same frozen night produce the same checksum, which lets
// replays be compared without diffing every field.
func (o Outcome) Checksum() string {
	hash := sha256.Sum256([]byte(o.canonical()))
	return hex.EncodeToString(hash[:])
}

func (o Outcome) canonical() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "NIGHT:%d\n", o.Day)
	for _, p := range o.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%t|%t|%t|%t|%t\n",
			p.Player, p.Died, p.Attacked, p.Blocked, p.Wardblocked, p.Framed)
		for _, m := range p.Messages {
			fmt.Fprintf(&buf, "  MSG:%s|%v|%s\n", m.Kind, m.Players, m.Text)
		}
		if p.Grave != nil {
			fmt.Fprintf(&buf, "  GRAVE:%s|%d|%v\n", p.Grave.Role, p.Grave.Day, p.Grave.Killers)
		}
	}
	for _, c := range o.Converts {
		fmt.Fprintf(&buf, "CONVERT:%d|%s\n", c.Player, c.Role)
	}
	return buf.String()
}
