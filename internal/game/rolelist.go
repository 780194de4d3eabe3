package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

var (
	// ErrRoleListTooShort means there are fewer outlines than players.
	ErrRoleListTooShort = errors.New("role list is shorter than the player count")
	// ErrRoleListUnsatisfiable means no assignment fits the outlines.
	ErrRoleListUnsatisfiable = errors.New("role list cannot be satisfied")
)

// RoleOutline is one slot of a role list. Exactly one of its fields is set:
// a fixed role, any role of a team, or any role at all.
type RoleOutline struct {
	Role roster.Role
	Team roster.Team
	Any  bool
}

// ParseOutline parses "any", "team:<team>" or a role name.
func ParseOutline(s string) (RoleOutline, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return RoleOutline{}, fmt.Errorf("empty role outline")
	case s == "any":
		return RoleOutline{Any: true}, nil
	case strings.HasPrefix(s, "team:"):
		team := roster.Team(strings.TrimPrefix(s, "team:"))
		switch team {
		case roster.TeamTown, roster.TeamSyndicate, roster.TeamNeutral:
			return RoleOutline{Team: team}, nil
		}
		return RoleOutline{}, fmt.Errorf("unknown team %q", team)
	default:
		return RoleOutline{Role: roster.Role(s)}, nil
	}
}

// ParseOutlines parses a configured role list.
func ParseOutlines(entries []string) ([]RoleOutline, error) {
	outlines := make([]RoleOutline, 0, len(entries))
	for i, entry := range entries {
		o, err := ParseOutline(entry)
		if err != nil {
			return nil, fmt.Errorf("role list entry %d: %w", i, err)
		}
		outlines = append(outlines, o)
	}
	return outlines, nil
}

func (o RoleOutline) candidates() []roster.Role {
	if o.Role != "" {
		if _, ok := LookupRole(o.Role); ok {
			return []roster.Role{o.Role}
		}
		return nil
	}
	var out []roster.Role
	for _, name := range RegisteredRoles() {
		spec, _ := LookupRole(name)
		if o.Any || spec.Team == o.Team {
			out = append(out, name)
		}
	}
	return out
}

// GenerateRoles fills the first players outlines and shuffles the result into
// seat order. Fixed roles are placed before team and any outlines so unique
// roles named explicitly are never taken by a random pick. The generated list
// must contain both town and syndicate roles, otherwise the game would be over
// before it starts.
func GenerateRoles(outlines []RoleOutline, players int, rng *rand.Rand) ([]roster.Role, error) {
	if players <= 0 {
		return nil, ErrNoPlayers
	}
	if len(outlines) < players {
		return nil, fmt.Errorf("%w: %d outlines for %d players", ErrRoleListTooShort, len(outlines), players)
	}
	outlines = outlines[:players]

	roles := make([]roster.Role, players)
	used := make(map[roster.Role]bool)
	order := make([]int, 0, players)
	for i, o := range outlines {
		if o.Role != "" {
			order = append(order, i)
		}
	}
	for i, o := range outlines {
		if o.Role == "" {
			order = append(order, i)
		}
	}

	for _, i := range order {
		var options []roster.Role
		for _, role := range outlines[i].candidates() {
			spec, _ := LookupRole(role)
			if spec.Unique && used[role] {
				continue
			}
			options = append(options, role)
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("%w: nothing fits outline %d", ErrRoleListUnsatisfiable, i)
		}
		role := options[rng.IntN(len(options))]
		roles[i] = role
		used[role] = true
	}

	var town, syndicate bool
	for _, role := range roles {
		spec, _ := LookupRole(role)
		town = town || spec.Team == roster.TeamTown
		syndicate = syndicate || spec.Team == roster.TeamSyndicate
	}
	if !town || !syndicate {
		return nil, fmt.Errorf("%w: needs both town and syndicate", ErrRoleListUnsatisfiable)
	}

	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	return roles, nil
}
