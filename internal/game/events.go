package game

import (
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/controller"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/event"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/night"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// PhaseStart fires after the clock enters a new phase.
type PhaseStart struct {
	Phase phase.Type
	Day   int
}

// AnyDeath fires once per death, at night or by execution.
type AnyDeath struct {
	Player roster.PlayerRef
	Grave  night.Grave
}

// Roleblocked fires during night resolution when a player is roleblocked. The
// fold is the night's Variables.
type Roleblocked struct {
	Player roster.PlayerRef
}

// Wardblocked fires during night resolution when a player is wardblocked.
type Wardblocked struct {
	Player roster.PlayerRef
}

// ControllerChanged fires for every stored selection change and every
// controller added or removed by reconciliation.
type ControllerChanged struct {
	ID        controller.ID
	Selection controller.Selection
	Removed   bool
	// ChatMessage asks for the change to be rendered in chat.
	ChatMessage bool
	// Actor is set when a player caused the change.
	Actor *roster.PlayerRef
}

// ValidatedInput fires for every selection a player submitted that was
// accepted, including one-shot controllers that do not store it.
type ValidatedInput struct {
	Player    roster.PlayerRef
	ID        controller.ID
	Selection controller.Selection
}

// AbilityCreated fires after an ability is added to the game.
type AbilityCreated struct {
	ID AbilityID
}

// AbilityDeleted fires after an ability is removed from the game.
type AbilityDeleted struct {
	ID AbilityID
}

func (PhaseStart) Priorities() []event.Unit        { return event.UnitPriorities }
func (AnyDeath) Priorities() []event.Unit          { return event.UnitPriorities }
func (Roleblocked) Priorities() []event.Unit       { return event.UnitPriorities }
func (Wardblocked) Priorities() []event.Unit       { return event.UnitPriorities }
func (ControllerChanged) Priorities() []event.Unit { return event.UnitPriorities }
func (ValidatedInput) Priorities() []event.Unit    { return event.UnitPriorities }
func (AbilityCreated) Priorities() []event.Unit    { return event.UnitPriorities }
func (AbilityDeleted) Priorities() []event.Unit    { return event.UnitPriorities }

type (
	// MidnightBus resolves the night.
	MidnightBus = event.Bus[*Game, night.Midnight, night.Variables, night.Priority]
	// MidnightListener reacts to one or all night priorities.
	MidnightListener = event.Listener[*Game, night.Midnight, night.Variables, night.Priority]
)

// Events holds one bus per event kind.
type Events struct {
	OnMidnight          *MidnightBus
	OnPhaseStart        *event.Bus[*Game, PhaseStart, event.None, event.Unit]
	OnAnyDeath          *event.Bus[*Game, AnyDeath, event.None, event.Unit]
	OnRoleblocked       *event.Bus[*Game, Roleblocked, night.Variables, event.Unit]
	OnWardblocked       *event.Bus[*Game, Wardblocked, night.Variables, event.Unit]
	OnControllerChanged *event.Bus[*Game, ControllerChanged, event.None, event.Unit]
	OnValidatedInput    *event.Bus[*Game, ValidatedInput, event.None, event.Unit]
	OnAbilityCreated    *event.Bus[*Game, AbilityCreated, event.None, event.Unit]
	OnAbilityDeleted    *event.Bus[*Game, AbilityDeleted, event.None, event.Unit]
}

func newEvents() Events {
	return Events{
		OnMidnight:          event.NewBus[*Game, night.Midnight, night.Variables, night.Priority](),
		OnPhaseStart:        event.NewBus[*Game, PhaseStart, event.None, event.Unit](),
		OnAnyDeath:          event.NewBus[*Game, AnyDeath, event.None, event.Unit](),
		OnRoleblocked:       event.NewBus[*Game, Roleblocked, night.Variables, event.Unit](),
		OnWardblocked:       event.NewBus[*Game, Wardblocked, night.Variables, event.Unit](),
		OnControllerChanged: event.NewBus[*Game, ControllerChanged, event.None, event.Unit](),
		OnValidatedInput:    event.NewBus[*Game, ValidatedInput, event.None, event.Unit](),
		OnAbilityCreated:    event.NewBus[*Game, AbilityCreated, event.None, event.Unit](),
		OnAbilityDeleted:    event.NewBus[*Game, AbilityDeleted, event.None, event.Unit](),
	}
}

// AtPriority builds an unbound midnight listener for a single priority.
func AtPriority(p night.Priority, fn func(g *Game, v *night.Variables)) MidnightListener {
	return event.On(func(g *Game, _ night.Midnight, v *night.Variables, _ night.Priority) {
		fn(g, v)
	}).At(p)
}
