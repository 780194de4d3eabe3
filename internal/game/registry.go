package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// AbilityFactory creates the role ability a player receives with the role.
type AbilityFactory func() Ability

// RoleSpec describes a role to the game core. Behavior lives in the Ability
// returned by New; roles without a night action leave New nil.
type RoleSpec struct {
	Name    roster.Role
	Team    roster.Team
	Defense night.DefensePower

	RoleblockImmune  bool
	PossessionImmune bool
	// Suspicious roles show up as suspicious to investigators.
	Suspicious bool
	// Unique roles appear at most once in a generated role list.
	Unique bool
	// SyndicateKillRank orders who carries out the syndicate kill; the living
	// member with the lowest positive rank does. Zero never kills.
	SyndicateKillRank int

	New AbilityFactory
}

var (
	registryMu sync.RWMutex
	registry   = map[roster.Role]RoleSpec{}
)

// RegisterRole makes a role available to games. Role packages call it from
// init. Registering the same name twice panics.
func RegisterRole(spec RoleSpec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if spec.Name == "" {
		panic("game: RegisterRole with empty name")
	}
	if _, dup := registry[spec.Name]; dup {
		panic(fmt.Sprintf("game: RegisterRole called twice for %q", spec.Name))
	}
	registry[spec.Name] = spec
}

// LookupRole returns the spec registered under name.
func LookupRole(name roster.Role) (RoleSpec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	spec, ok := registry[name]
	return spec, ok
}

// RegisteredRoles returns every registered role name in lexical order.
func RegisteredRoles() []roster.Role {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]roster.Role, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
