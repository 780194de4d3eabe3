package controller

import (
	"encoding/json"
	"fmt"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// wireSelection is the client envelope of a Selection.
type wireSelection struct {
	Type      SelectionType   `json:"type"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

type wirePair struct {
	First  roster.PlayerRef `json:"first"`
	Second roster.PlayerRef `json:"second"`
}

type wireRolePair struct {
	First  roster.Role `json:"first,omitempty"`
	Second roster.Role `json:"second,omitempty"`
}

// MarshalSelection encodes sel as {"type": ..., "selection": ...}.
func MarshalSelection(sel Selection) ([]byte, error) {
	if sel == nil {
		return nil, fmt.Errorf("nil selection")
	}
	var body any
	switch s := sel.(type) {
	case Unit:
		body = nil
	case Boolean:
		body = bool(s)
	case String:
		body = string(s)
	case Integer:
		body = int(s)
	case PlayerList:
		body = nonNilPlayers(s)
	case TwoPlayerOption:
		if s.Chosen {
			body = wirePair{First: s.First, Second: s.Second}
		}
	case RoleList:
		body = nonNilRoles(s)
	case TwoRoleOption:
		body = wireRolePair{First: s.First, Second: s.Second}
	}

	out := wireSelection{Type: sel.Type()}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s selection: %w", sel.Type(), err)
		}
		out.Selection = raw
	}
	return json.Marshal(out)
}

// UnmarshalSelection decodes the envelope produced by MarshalSelection.
func UnmarshalSelection(data []byte) (Selection, error) {
	var in wireSelection
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode selection envelope: %w", err)
	}

	decode := func(target any) error {
		if len(in.Selection) == 0 {
			return fmt.Errorf("%s selection is missing its value", in.Type)
		}
		if err := json.Unmarshal(in.Selection, target); err != nil {
			return fmt.Errorf("decode %s selection: %w", in.Type, err)
		}
		return nil
	}

	switch in.Type {
	case TypeUnit:
		return Unit{}, nil
	case TypeBoolean:
		var v bool
		if err := decode(&v); err != nil {
			return nil, err
		}
		return Boolean(v), nil
	case TypeString:
		var v string
		if err := decode(&v); err != nil {
			return nil, err
		}
		return String(v), nil
	case TypeInteger:
		var v int
		if err := decode(&v); err != nil {
			return nil, err
		}
		return Integer(v), nil
	case TypePlayerList:
		var v []roster.PlayerRef
		if err := decode(&v); err != nil {
			return nil, err
		}
		return PlayerList(nonNilPlayers(v)), nil
	case TypeTwoPlayerOption:
		if len(in.Selection) == 0 || string(in.Selection) == "null" {
			return NoPlayers(), nil
		}
		var v wirePair
		if err := decode(&v); err != nil {
			return nil, err
		}
		return PlayerPair(v.First, v.Second), nil
	case TypeRoleList:
		var v []roster.Role
		if err := decode(&v); err != nil {
			return nil, err
		}
		return RoleList(nonNilRoles(v)), nil
	case TypeTwoRoleOption:
		var v wireRolePair
		if err := decode(&v); err != nil {
			return nil, err
		}
		return TwoRoleOption{First: v.First, Second: v.Second}, nil
	default:
		return nil, fmt.Errorf("unknown selection type %q", in.Type)
	}
}

func nonNilPlayers(in []roster.PlayerRef) []roster.PlayerRef {
	if in == nil {
		return []roster.PlayerRef{}
	}
	return in
}

func nonNilRoles(in []roster.Role) []roster.Role {
	if in == nil {
		return []roster.Role{}
	}
	return in
}

type wireAvailable struct {
	Type                SelectionType    `json:"type"`
	CanBeTrue           bool             `json:"canBeTrue,omitempty"`
	CanBeFalse          bool             `json:"canBeFalse,omitempty"`
	MaxLength           int              `json:"maxLength,omitempty"`
	Min                 *int             `json:"min,omitempty"`
	Max                 *int             `json:"max,omitempty"`
	Players             roster.PlayerSet `json:"players,omitempty"`
	SecondPlayers       roster.PlayerSet `json:"secondPlayers,omitempty"`
	MaxPlayers          int              `json:"maxPlayers,omitempty"`
	Roles               roster.RoleSet   `json:"roles,omitempty"`
	MaxRoles            int              `json:"maxRoles,omitempty"`
	CanChooseDuplicates bool             `json:"canChooseDuplicates,omitempty"`
	CanChooseNone       bool             `json:"canChooseNone,omitempty"`
}

func toWireAvailable(a Available) wireAvailable {
	out := wireAvailable{Type: a.Type()}
	switch v := a.(type) {
	case AvailableBoolean:
		out.CanBeTrue, out.CanBeFalse = v.CanBeTrue, v.CanBeFalse
	case AvailableString:
		out.MaxLength = v.MaxLength
		if out.MaxLength <= 0 {
			out.MaxLength = DefaultMaxTextLength
		}
	case AvailableInteger:
		lo, hi := v.Min, v.Max
		out.Min, out.Max = &lo, &hi
	case AvailablePlayerList:
		out.Players, out.MaxPlayers, out.CanChooseDuplicates = v.Players, v.MaxPlayers, v.CanChooseDuplicates
	case AvailableTwoPlayerOption:
		out.Players, out.SecondPlayers = v.First, v.Second
		out.CanChooseDuplicates, out.CanChooseNone = v.CanChooseDuplicates, v.CanChooseNone
	case AvailableRoleList:
		out.Roles, out.MaxRoles, out.CanChooseDuplicates = v.Roles, v.MaxRoles, v.CanChooseDuplicates
	case AvailableTwoRoleOption:
		out.Roles, out.CanChooseDuplicates, out.CanChooseNone = v.Roles, v.CanChooseDuplicates, v.CanChooseNone
	}
	return out
}

type wireSaved struct {
	Selection           json.RawMessage  `json:"selection"`
	Available           wireAvailable    `json:"available"`
	Default             json.RawMessage  `json:"default"`
	GrayedOut           bool             `json:"grayedOut"`
	AllowedPlayers      roster.PlayerSet `json:"allowedPlayers"`
	DontSave            bool             `json:"dontSave"`
	ResetOnPhaseStart   string           `json:"resetOnPhaseStart,omitempty"`
	ChatMessageOnChange bool             `json:"chatMessageOnChange"`
}

// MarshalJSON encodes a saved controller for client sync.
func (s Saved) MarshalJSON() ([]byte, error) {
	sel, err := MarshalSelection(s.Selection)
	if err != nil {
		return nil, err
	}
	def, err := MarshalSelection(s.Parameters.Default)
	if err != nil {
		return nil, err
	}
	out := wireSaved{
		Selection:           sel,
		Available:           toWireAvailable(s.Parameters.Available),
		Default:             def,
		GrayedOut:           s.Parameters.GrayedOut,
		AllowedPlayers:      s.Parameters.AllowedPlayers,
		DontSave:            s.Parameters.DontSave,
		ChatMessageOnChange: s.Parameters.ChatMessageOnChange,
	}
	if s.Parameters.ResetOnPhaseStart != 0 {
		out.ResetOnPhaseStart = s.Parameters.ResetOnPhaseStart.String()
	}
	return json.Marshal(out)
}
