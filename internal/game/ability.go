package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// AbilityID keys an ability in the game. Role abilities carry the role name;
// effects attached to a player by other abilities, such as a pending poison,
// carry an effect name instead.
type AbilityID struct {
	Player roster.PlayerRef
	Role   roster.Role
	Effect string
}

// RoleAbility keys the ability player holds through role.
func RoleAbility(player roster.PlayerRef, role roster.Role) AbilityID {
	return AbilityID{Player: player, Role: role}
}

// EffectAbility keys an effect attached to player.
func EffectAbility(player roster.PlayerRef, effect string) AbilityID {
	return AbilityID{Player: player, Effect: effect}
}

func (id AbilityID) String() string {
	if id.Effect != "" {
		return fmt.Sprintf("%d/effect/%s", id.Player, id.Effect)
	}
	return fmt.Sprintf("%d/%s", id.Player, id.Role)
}

// Less orders abilities by player, then role, then effect.
func (id AbilityID) Less(other AbilityID) bool {
	if id.Player != other.Player {
		return id.Player < other.Player
	}
	if id.Role != other.Role {
		return id.Role < other.Role
	}
	return id.Effect < other.Effect
}

// Ability is a role's or effect's behavior. The game polls Controllers every
// tick, asks for Visits at midnight, and calls OnMidnight for every night
// priority while the ability exists.
type Ability interface {
	Controllers(g *Game, id AbilityID) controller.ParametersMap
	Visits(g *Game, id AbilityID) []night.Visit
	OnMidnight(g *Game, id AbilityID, v *night.Variables, p night.Priority)
}

// Optional hooks. An ability implementing one is registered on the matching bus
// for as long as it exists.
type (
	CreatedHook interface {
		OnCreated(g *Game, id AbilityID)
	}
	DeletedHook interface {
		OnDeleted(g *Game, id AbilityID)
	}
	PhaseStartHook interface {
		OnPhaseStart(g *Game, id AbilityID, ev PhaseStart)
	}
	AnyDeathHook interface {
		OnAnyDeath(g *Game, id AbilityID, ev AnyDeath)
	}
	RoleblockedHook interface {
		OnRoleblocked(g *Game, id AbilityID, ev Roleblocked, v *night.Variables)
	}
	WardblockedHook interface {
		OnWardblocked(g *Game, id AbilityID, ev Wardblocked, v *night.Variables)
	}
	ControllerChangedHook interface {
		OnControllerChanged(g *Game, id AbilityID, ev ControllerChanged)
	}
	ValidatedInputHook interface {
		OnValidatedInput(g *Game, id AbilityID, ev ValidatedInput)
	}
)

type abilitySlot struct {
	ability Ability
	// generation distinguishes an ability from a later one stored under the
	// same ID, so listeners bound to the old one still tear down.
	generation uint64
}

// Ability returns the ability stored under id.
func (g *Game) Ability(id AbilityID) (Ability, bool) {
	slot, ok := g.abilities[id]
	if !ok {
		return nil, false
	}
	return slot.ability, true
}

// AbilityIDs returns every ability in deterministic order.
func (g *Game) AbilityIDs() []AbilityID {
	ids := make([]AbilityID, 0, len(g.abilities))
	for id := range g.abilities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// AbilitiesOf returns player's abilities in deterministic order.
func (g *Game) AbilitiesOf(player roster.PlayerRef) []AbilityID {
	var out []AbilityID
	for _, id := range g.AbilityIDs() {
		if id.Player == player {
			out = append(out, id)
		}
	}
	return out
}

func (g *Game) bound(id AbilityID, generation uint64) (Ability, bool) {
	slot, ok := g.abilities[id]
	if !ok || slot.generation != generation {
		return nil, false
	}
	return slot.ability, true
}

// CreateAbility stores a under id, replacing any ability already there, and
// binds its listeners. Listeners created during a night resolution take part
// from the next priority on.
func (g *Game) CreateAbility(id AbilityID, a Ability) {
	if a == nil {
		return
	}
	if _, exists := g.abilities[id]; exists {
		g.DeleteAbility(id)
	}

	g.generation++
	generation := g.generation
	g.abilities[id] = abilitySlot{ability: a, generation: generation}
	lookup := func(g *Game) (Ability, bool) { return g.bound(id, generation) }

	g.Events.OnMidnight.Register(event.Bind(lookup,
		func(a Ability, g *Game, _ night.Midnight, v *night.Variables, p night.Priority) {
			a.OnMidnight(g, id, v, p)
		}))
	if h, ok := a.(PhaseStartHook); ok {
		g.Events.OnPhaseStart.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev PhaseStart, _ *event.None, _ event.Unit) { h.OnPhaseStart(g, id, ev) }))
	}
	if h, ok := a.(AnyDeathHook); ok {
		g.Events.OnAnyDeath.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev AnyDeath, _ *event.None, _ event.Unit) { h.OnAnyDeath(g, id, ev) }))
	}
	if h, ok := a.(RoleblockedHook); ok {
		g.Events.OnRoleblocked.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev Roleblocked, v *night.Variables, _ event.Unit) { h.OnRoleblocked(g, id, ev, v) }))
	}
	if h, ok := a.(WardblockedHook); ok {
		g.Events.OnWardblocked.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev Wardblocked, v *night.Variables, _ event.Unit) { h.OnWardblocked(g, id, ev, v) }))
	}
	if h, ok := a.(ControllerChangedHook); ok {
		g.Events.OnControllerChanged.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev ControllerChanged, _ *event.None, _ event.Unit) { h.OnControllerChanged(g, id, ev) }))
	}
	if h, ok := a.(ValidatedInputHook); ok {
		g.Events.OnValidatedInput.Register(event.Bind(lookup,
			func(_ Ability, g *Game, ev ValidatedInput, _ *event.None, _ event.Unit) { h.OnValidatedInput(g, id, ev) }))
	}

	g.logger.Debug("ability created", zap.Stringer("ability", id))
	if h, ok := a.(CreatedHook); ok {
		h.OnCreated(g, id)
	}
	g.Events.OnAbilityCreated.Invoke(g, AbilityCreated{ID: id}, &event.None{})
}

// DeleteAbility removes the ability under id. Its listeners stop resolving and
// are pruned by the next dispatch of each bus.
func (g *Game) DeleteAbility(id AbilityID) {
	slot, ok := g.abilities[id]
	if !ok {
		return
	}
	delete(g.abilities, id)

	g.logger.Debug("ability deleted", zap.Stringer("ability", id))
	if h, ok := slot.ability.(DeletedHook); ok {
		h.OnDeleted(g, id)
	}
	g.Events.OnAbilityDeleted.Invoke(g, AbilityDeleted{ID: id}, &event.None{})
}

// NoVisits is embedded by abilities that never visit.
type NoVisits struct{}

// Visits implements Ability.
func (NoVisits) Visits(*Game, AbilityID) []night.Visit { return nil }

// NoControllers is embedded by abilities that declare no controllers.
type NoControllers struct{}

// Controllers implements Ability.
func (NoControllers) Controllers(*Game, AbilityID) controller.ParametersMap { return nil }
