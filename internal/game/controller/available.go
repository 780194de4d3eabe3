package controller

import (
	"unicode/utf8"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// DefaultMaxTextLength caps AvailableString selections that declare no limit.
const DefaultMaxTextLength = 600

// Available describes the legal selection space of one controller.
type Available interface {
	// Validate reports whether sel is a legal choice.
	Validate(sel Selection) bool
	// Type is the selection variant this space accepts.
	Type() SelectionType
	// DefaultSelection is the unchosen value of the variant.
	DefaultSelection() Selection
	isAvailable()
}

// AvailableUnit accepts only Unit.
type AvailableUnit struct{}

// AvailableBoolean accepts the allowed truth values.
type AvailableBoolean struct {
	CanBeTrue  bool
	CanBeFalse bool
}

// AvailableString accepts text up to MaxLength runes (DefaultMaxTextLength when zero).
type AvailableString struct {
	MaxLength int
}

// AvailableInteger accepts Min..Max inclusive.
type AvailableInteger struct {
	Min int
	Max int
}

// AvailablePlayerList accepts up to MaxPlayers players from Players. A zero
// MaxPlayers means no upper bound.
type AvailablePlayerList struct {
	Players             roster.PlayerSet
	MaxPlayers          int
	CanChooseDuplicates bool
}

// AvailableTwoPlayerOption accepts an ordered pair drawn from First and Second.
type AvailableTwoPlayerOption struct {
	First               roster.PlayerSet
	Second              roster.PlayerSet
	CanChooseDuplicates bool
	CanChooseNone       bool
}

// AvailableRoleList accepts up to MaxRoles roles from Roles.
type AvailableRoleList struct {
	Roles               roster.RoleSet
	MaxRoles            int
	CanChooseDuplicates bool
}

// AvailableTwoRoleOption accepts up to two roles from Roles.
type AvailableTwoRoleOption struct {
	Roles               roster.RoleSet
	CanChooseDuplicates bool
	CanChooseNone       bool
}

func (AvailableUnit) isAvailable()            {}
func (AvailableBoolean) isAvailable()         {}
func (AvailableString) isAvailable()          {}
func (AvailableInteger) isAvailable()         {}
func (AvailablePlayerList) isAvailable()      {}
func (AvailableTwoPlayerOption) isAvailable() {}
func (AvailableRoleList) isAvailable()        {}
func (AvailableTwoRoleOption) isAvailable()   {}

func (AvailableUnit) Type() SelectionType            { return TypeUnit }
func (AvailableBoolean) Type() SelectionType         { return TypeBoolean }
func (AvailableString) Type() SelectionType          { return TypeString }
func (AvailableInteger) Type() SelectionType         { return TypeInteger }
func (AvailablePlayerList) Type() SelectionType      { return TypePlayerList }
func (AvailableTwoPlayerOption) Type() SelectionType { return TypeTwoPlayerOption }
func (AvailableRoleList) Type() SelectionType        { return TypeRoleList }
func (AvailableTwoRoleOption) Type() SelectionType   { return TypeTwoRoleOption }

func (AvailableUnit) DefaultSelection() Selection            { return Unit{} }
func (AvailableBoolean) DefaultSelection() Selection         { return Boolean(false) }
func (AvailableString) DefaultSelection() Selection          { return String("") }
func (AvailablePlayerList) DefaultSelection() Selection      { return PlayerList{} }
func (AvailableTwoPlayerOption) DefaultSelection() Selection { return NoPlayers() }
func (AvailableRoleList) DefaultSelection() Selection        { return RoleList{} }
func (AvailableTwoRoleOption) DefaultSelection() Selection   { return TwoRoleOption{} }

func (a AvailableInteger) DefaultSelection() Selection { return Integer(a.Min) }

func (AvailableUnit) Validate(sel Selection) bool {
	_, ok := sel.(Unit)
	return ok
}

func (a AvailableBoolean) Validate(sel Selection) bool {
	s, ok := sel.(Boolean)
	if !ok {
		return false
	}
	if s {
		return a.CanBeTrue
	}
	return a.CanBeFalse
}

func (a AvailableString) Validate(sel Selection) bool {
	s, ok := sel.(String)
	if !ok {
		return false
	}
	limit := a.MaxLength
	if limit <= 0 {
		limit = DefaultMaxTextLength
	}
	return utf8.RuneCountInString(string(s)) <= limit
}

func (a AvailableInteger) Validate(sel Selection) bool {
	s, ok := sel.(Integer)
	return ok && int(s) >= a.Min && int(s) <= a.Max
}

func (a AvailablePlayerList) Validate(sel Selection) bool {
	s, ok := sel.(PlayerList)
	if !ok {
		return false
	}
	if a.MaxPlayers > 0 && len(s) > a.MaxPlayers {
		return false
	}
	seen := make(map[roster.PlayerRef]bool, len(s))
	for _, p := range s {
		if !a.Players.Contains(p) {
			return false
		}
		if seen[p] && !a.CanChooseDuplicates {
			return false
		}
		seen[p] = true
	}
	return true
}

func (a AvailableTwoPlayerOption) Validate(sel Selection) bool {
	s, ok := sel.(TwoPlayerOption)
	if !ok {
		return false
	}
	if !s.Chosen {
		return a.CanChooseNone
	}
	if !a.First.Contains(s.First) || !a.Second.Contains(s.Second) {
		return false
	}
	return a.CanChooseDuplicates || s.First != s.Second
}

func (a AvailableRoleList) Validate(sel Selection) bool {
	s, ok := sel.(RoleList)
	if !ok {
		return false
	}
	if a.MaxRoles > 0 && len(s) > a.MaxRoles {
		return false
	}
	seen := make(map[roster.Role]bool, len(s))
	for _, r := range s {
		if !a.Roles.Contains(r) {
			return false
		}
		if seen[r] && !a.CanChooseDuplicates {
			return false
		}
		seen[r] = true
	}
	return true
}

func (a AvailableTwoRoleOption) Validate(sel Selection) bool {
	s, ok := sel.(TwoRoleOption)
	if !ok {
		return false
	}
	if s.First == "" || s.Second == "" {
		if !a.CanChooseNone {
			return false
		}
	}
	for _, r := range []roster.Role{s.First, s.Second} {
		if r != "" && !a.Roles.Contains(r) {
			return false
		}
	}
	if s.First != "" && s.First == s.Second && !a.CanChooseDuplicates {
		return false
	}
	return true
}
