package controller

import (
	"slices"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// SelectionType names a Selection variant on the wire.
type SelectionType string

const (
	TypeUnit            SelectionType = "unit"
	TypeBoolean         SelectionType = "boolean"
	TypeString          SelectionType = "string"
	TypeInteger         SelectionType = "integer"
	TypePlayerList      SelectionType = "playerList"
	TypeTwoPlayerOption SelectionType = "twoPlayerOption"
	TypeRoleList        SelectionType = "roleList"
	TypeTwoRoleOption   SelectionType = "twoRoleOption"
)

// Selection is what a player has chosen for one controller. The set of
// variants is closed; every implementation lives in this file.
type Selection interface {
	Type() SelectionType
	Equal(other Selection) bool
	isSelection()
}

// Unit is the no-op selection used by buttons.
type Unit struct{}

// Boolean is a toggle.
type Boolean bool

// String is free text.
type String string

// Integer is a number picked from a range.
type Integer int

// PlayerList is an ordered list of chosen players.
type PlayerList []roster.PlayerRef

// TwoPlayerOption is either no choice or an ordered pair of players.
type TwoPlayerOption struct {
	Chosen bool
	First  roster.PlayerRef
	Second roster.PlayerRef
}

// RoleList is an ordered list of chosen roles.
type RoleList []roster.Role

// TwoRoleOption holds up to two roles; an empty Role means unchosen.
type TwoRoleOption struct {
	First  roster.Role
	Second roster.Role
}

// NoPlayers is the unchosen TwoPlayerOption.
func NoPlayers() TwoPlayerOption { return TwoPlayerOption{} }

// PlayerPair chooses first and second.
func PlayerPair(first, second roster.PlayerRef) TwoPlayerOption {
	return TwoPlayerOption{Chosen: true, First: first, Second: second}
}

func (Unit) Type() SelectionType            { return TypeUnit }
func (Boolean) Type() SelectionType         { return TypeBoolean }
func (String) Type() SelectionType          { return TypeString }
func (Integer) Type() SelectionType         { return TypeInteger }
func (PlayerList) Type() SelectionType      { return TypePlayerList }
func (TwoPlayerOption) Type() SelectionType { return TypeTwoPlayerOption }
func (RoleList) Type() SelectionType        { return TypeRoleList }
func (TwoRoleOption) Type() SelectionType   { return TypeTwoRoleOption }

func (Unit) isSelection()            {}
func (Boolean) isSelection()         {}
func (String) isSelection()          {}
func (Integer) isSelection()         {}
func (PlayerList) isSelection()      {}
func (TwoPlayerOption) isSelection() {}
func (RoleList) isSelection()        {}
func (TwoRoleOption) isSelection()   {}

func (Unit) Equal(other Selection) bool {
	_, ok := other.(Unit)
	return ok
}

func (s Boolean) Equal(other Selection) bool {
	o, ok := other.(Boolean)
	return ok && o == s
}

func (s String) Equal(other Selection) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (s Integer) Equal(other Selection) bool {
	o, ok := other.(Integer)
	return ok && o == s
}

func (s PlayerList) Equal(other Selection) bool {
	o, ok := other.(PlayerList)
	return ok && slices.Equal(s, o)
}

func (s TwoPlayerOption) Equal(other Selection) bool {
	o, ok := other.(TwoPlayerOption)
	if !ok || o.Chosen != s.Chosen {
		return false
	}
	return !s.Chosen || (o.First == s.First && o.Second == s.Second)
}

func (s RoleList) Equal(other Selection) bool {
	o, ok := other.(RoleList)
	return ok && slices.Equal(s, o)
}

func (s TwoRoleOption) Equal(other Selection) bool {
	o, ok := other.(TwoRoleOption)
	return ok && o == s
}

// SelectionsEqual compares two possibly-nil selections.
func SelectionsEqual(a, b Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// WithFirstPlayer returns sel with its first chosen player replaced by target.
// Only list and pair shaped selections carry a first player; other variants and
// empty choices are returned unchanged with ok=false.
func WithFirstPlayer(sel Selection, target roster.PlayerRef) (Selection, bool) {
	switch s := sel.(type) {
	case PlayerList:
		if len(s) == 0 {
			return sel, false
		}
		out := slices.Clone(s)
		out[0] = target
		return out, true
	case TwoPlayerOption:
		if !s.Chosen {
			return sel, false
		}
		s.First = target
		return s, true
	default:
		return sel, false
	}
}
