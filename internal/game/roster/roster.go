// Package roster holds the dense player and role identifiers shared by the
// controller, night and game packages.
package roster

import (
	"encoding/json"
	"sort"
)

// PlayerRef is a dense player index in the range [0, player count).
type PlayerRef int

// Role names a role. Role behavior lives in role modules registered with the game.
type Role string

// Team groups roles that share a win condition.
type Team string

const (
	TeamTown      Team = "town"
	TeamSyndicate Team = "syndicate"
	TeamNeutral   Team = "neutral"
)

// PlayerSet is an unordered set of players.
type PlayerSet map[PlayerRef]struct{}

// NewPlayerSet builds a set from the given players.
func NewPlayerSet(players ...PlayerRef) PlayerSet {
	set := make(PlayerSet, len(players))
	for _, p := range players {
		set[p] = struct{}{}
	}
	return set
}

// Contains reports whether p is in the set.
func (s PlayerSet) Contains(p PlayerRef) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p.
func (s PlayerSet) Add(p PlayerRef) {
	s[p] = struct{}{}
}

// Sorted returns the members in index order.
func (s PlayerSet) Sorted() []PlayerRef {
	out := make([]PlayerRef, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s PlayerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of player indices.
func (s *PlayerSet) UnmarshalJSON(data []byte) error {
	var players []PlayerRef
	if err := json.Unmarshal(data, &players); err != nil {
		return err
	}
	*s = NewPlayerSet(players...)
	return nil
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Sorted returns the members in lexical order.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Lookup is the read-only view of living players that visit generation needs.
type Lookup interface {
	// LivingWithRole returns living players currently holding role, in index order.
	LivingWithRole(role Role) []PlayerRef
}
