package night

import (
	"fmt"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// TagKind says what kind of source produced a visit.
type TagKind int

const (
	TagRoleAbility TagKind = iota + 1
	TagSyndicateKill
	TagSystem
)

// VisitTag identifies the ability that produced a visit, so listeners can pick
// out their own visits and pair them with their selections.
type VisitTag struct {
	Kind TagKind
	Role roster.Role
	Slot int
}

// RoleTag tags visits from slot of role's ability.
func RoleTag(role roster.Role, slot int) VisitTag {
	return VisitTag{Kind: TagRoleAbility, Role: role, Slot: slot}
}

// SyndicateKillTag tags the syndicate's shared kill.
func SyndicateKillTag() VisitTag {
	return VisitTag{Kind: TagSyndicateKill}
}

// TagForController derives the visit tag of a controller's visits.
func TagForController(id controller.ID) VisitTag {
	switch id.Kind {
	case controller.KindRoleAbility:
		return RoleTag(id.Role, id.Slot)
	case controller.KindSyndicateKill:
		return SyndicateKillTag()
	default:
		return VisitTag{Kind: TagSystem}
	}
}

func (t VisitTag) String() string {
	switch t.Kind {
	case TagRoleAbility:
		return fmt.Sprintf("%s/%d", t.Role, t.Slot)
	case TagSyndicateKill:
		return "syndicate"
	default:
		return "system"
	}
}

// Visit is one actor's targeted action for the current night.
type Visit struct {
	Actor  roster.PlayerRef
	Target roster.PlayerRef
	Tag    VisitTag
	Attack bool

	WardblockImmune   bool
	TransportImmune   bool
	InvestigateImmune bool
	// Indirect visits happen at a distance; the target is not considered visited.
	Indirect bool
}

// VisitOption sets a flag on generated visits.
type VisitOption func(*Visit)

// AsAttack marks the visits as attacks.
func AsAttack() VisitOption { return func(v *Visit) { v.Attack = true } }

// ImmuneToWardblock keeps the visits through wardblocks.
func ImmuneToWardblock() VisitOption { return func(v *Visit) { v.WardblockImmune = true } }

// ImmuneToTransport keeps the visits on their original target.
func ImmuneToTransport() VisitOption { return func(v *Visit) { v.TransportImmune = true } }

// ImmuneToInvestigation hides the visits from investigators.
func ImmuneToInvestigation() VisitOption { return func(v *Visit) { v.InvestigateImmune = true } }

// AsIndirect marks the visits as not physically visiting the target.
func AsIndirect() VisitOption { return func(v *Visit) { v.Indirect = true } }

// VisitsFromSelection converts one controller selection into visits:
//
//	Unit, Boolean(true)   one visit to the actor
//	PlayerList            one visit per listed player
//	TwoPlayerOption       two visits when chosen
//	RoleList              one visit per living holder of each listed role
//	TwoRoleOption         one visit per living holder of each chosen role
//
// Every other selection produces no visits.
func VisitsFromSelection(
	actor roster.PlayerRef,
	tag VisitTag,
	sel controller.Selection,
	lookup roster.Lookup,
	opts ...VisitOption,
) []Visit {
	var targets []roster.PlayerRef
	switch s := sel.(type) {
	case controller.Unit:
		targets = []roster.PlayerRef{actor}
	case controller.Boolean:
		if s {
			targets = []roster.PlayerRef{actor}
		}
	case controller.PlayerList:
		targets = s
	case controller.TwoPlayerOption:
		if s.Chosen {
			targets = []roster.PlayerRef{s.First, s.Second}
		}
	case controller.RoleList:
		for _, role := range s {
			targets = append(targets, livingWithRole(lookup, role)...)
		}
	case controller.TwoRoleOption:
		for _, role := range []roster.Role{s.First, s.Second} {
			if role != "" {
				targets = append(targets, livingWithRole(lookup, role)...)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	visits := make([]Visit, 0, len(targets))
	for _, target := range targets {
		v := Visit{Actor: actor, Target: target, Tag: tag}
		for _, opt := range opts {
			opt(&v)
		}
		visits = append(visits, v)
	}
	return visits
}

func livingWithRole(lookup roster.Lookup, role roster.Role) []roster.PlayerRef {
	if lookup == nil {
		return nil
	}
	return lookup.LivingWithRole(role)
}
