package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Kind identifies the family of decision an ID addresses.
type Kind int

const (
	KindRoleAbility Kind = iota + 1
	KindSyndicateKill
	KindChatText
	KindSendChat
	KindWhisperTarget
	KindSendWhisper
	KindNominate
	KindJudge
)

var kindNames = map[Kind]string{
	KindRoleAbility:   "role_ability",
	KindSyndicateKill: "syndicate_kill",
	KindChatText:      "chat_text",
	KindSendChat:      "send_chat",
	KindWhisperTarget: "whisper_target",
	KindSendWhisper:   "send_whisper",
	KindNominate:      "nominate",
	KindJudge:         "judge",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// ID is a stable, comparable key for one decision point. IDs are plain values
// and safe to use as map keys.
type ID struct {
	Kind   Kind
	Player roster.PlayerRef
	Role   roster.Role
	Slot   int
}

// RoleAbilityID addresses slot of player's role ability.
func RoleAbilityID(player roster.PlayerRef, role roster.Role, slot int) ID {
	return ID{Kind: KindRoleAbility, Player: player, Role: role, Slot: slot}
}

// SyndicateKillID addresses the syndicate's shared kill target.
func SyndicateKillID() ID {
	return ID{Kind: KindSyndicateKill}
}

// ChatTextID addresses player's chat text box.
func ChatTextID(player roster.PlayerRef) ID {
	return ID{Kind: KindChatText, Player: player}
}

// SendChatID addresses player's send-chat button.
func SendChatID(player roster.PlayerRef) ID {
	return ID{Kind: KindSendChat, Player: player}
}

// WhisperTargetID addresses player's whisper recipient picker.
func WhisperTargetID(player roster.PlayerRef) ID {
	return ID{Kind: KindWhisperTarget, Player: player}
}

// SendWhisperID addresses player's send-whisper button.
func SendWhisperID(player roster.PlayerRef) ID {
	return ID{Kind: KindSendWhisper, Player: player}
}

// NominateID addresses player's nomination vote.
func NominateID(player roster.PlayerRef) ID {
	return ID{Kind: KindNominate, Player: player}
}

// JudgeID addresses player's verdict during judgement.
func JudgeID(player roster.PlayerRef) ID {
	return ID{Kind: KindJudge, Player: player}
}

// String renders the ID as "kind/player/role/slot", omitting unused parts.
func (id ID) String() string {
	switch id.Kind {
	case KindRoleAbility:
		return fmt.Sprintf("%s/%d/%s/%d", id.Kind, id.Player, id.Role, id.Slot)
	case KindSyndicateKill:
		return id.Kind.String()
	default:
		return fmt.Sprintf("%s/%d", id.Kind, id.Player)
	}
}

// MarshalText lets IDs key JSON objects.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the String form.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses the String form of an ID.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, "/")
	kind, ok := parseKind(parts[0])
	if !ok {
		return ID{}, fmt.Errorf("unknown controller kind %q", parts[0])
	}

	switch kind {
	case KindSyndicateKill:
		if len(parts) != 1 {
			return ID{}, fmt.Errorf("malformed controller id %q", s)
		}
		return SyndicateKillID(), nil
	case KindRoleAbility:
		if len(parts) != 4 {
			return ID{}, fmt.Errorf("malformed controller id %q", s)
		}
		player, err := strconv.Atoi(parts[1])
		if err != nil {
			return ID{}, fmt.Errorf("malformed player in %q: %w", s, err)
		}
		slot, err := strconv.Atoi(parts[3])
		if err != nil {
			return ID{}, fmt.Errorf("malformed slot in %q: %w", s, err)
		}
		return RoleAbilityID(roster.PlayerRef(player), roster.Role(parts[2]), slot), nil
	default:
		if len(parts) != 2 {
			return ID{}, fmt.Errorf("malformed controller id %q", s)
		}
		player, err := strconv.Atoi(parts[1])
		if err != nil {
			return ID{}, fmt.Errorf("malformed player in %q: %w", s, err)
		}
		return ID{Kind: kind, Player: roster.PlayerRef(player)}, nil
	}
}

// Less orders IDs deterministically for broadcasts and visit generation.
func (id ID) Less(other ID) bool {
	if id.Kind != other.Kind {
		return id.Kind < other.Kind
	}
	if id.Player != other.Player {
		return id.Player < other.Player
	}
	if id.Role != other.Role {
		return id.Role < other.Role
	}
	return id.Slot < other.Slot
}
