package controller

import (
	"sort"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Parameters declare what a controller currently permits.
type Parameters struct {
	Available Available
	Default   Selection
	GrayedOut bool
	// AllowedPlayers may set the selection and receive the controller in their view.
	AllowedPlayers roster.PlayerSet
	// DontSave controllers fire change events without remembering the selection.
	DontSave bool
	// ResetOnPhaseStart reinstalls Default when this phase starts. phase.None disables it.
	ResetOnPhaseStart phase.Type
	// ChatMessageOnChange renders accepted changes as a chat-visible action.
	ChatMessageOnChange bool
}

// Legal reports whether sel satisfies the legality predicate.
func (p Parameters) Legal(sel Selection) bool {
	return p.Available != nil && p.Available.Validate(sel)
}

// Allows reports whether player may act on the controller.
func (p Parameters) Allows(player roster.PlayerRef) bool {
	return p.AllowedPlayers.Contains(player)
}

// ParametersMap is the full set of declared controllers.
type ParametersMap map[ID]Parameters

// Combine merges maps; on duplicate IDs the later declaration wins.
func Combine(maps ...ParametersMap) ParametersMap {
	out := make(ParametersMap)
	for _, m := range maps {
		for id, p := range m {
			out[id] = p
		}
	}
	return out
}

// IDs returns the keys in deterministic order.
func (m ParametersMap) IDs() []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// SortIDs orders ids in place.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

// Saved pairs a controller's current selection with its parameters. It is the
// unit of client-visible state.
type Saved struct {
	Selection  Selection
	Parameters Parameters
}

// Builder assembles the parameters of a single controller.
//
//	controller.NewBuilder(id).
//		Available(controller.AvailablePlayerList{Players: targets, MaxPlayers: 1}).
//		NightTyped().
//		AllowPlayers(actor).
//		Build()
type Builder struct {
	id     ID
	params Parameters
	gray   []bool
}

// NewBuilder starts parameters for id with nobody allowed.
func NewBuilder(id ID) *Builder {
	return &Builder{
		id: id,
		params: Parameters{
			Available:      AvailableUnit{},
			AllowedPlayers: roster.NewPlayerSet(),
		},
	}
}

// Available sets the legal selection space.
func (b *Builder) Available(a Available) *Builder {
	b.params.Available = a
	return b
}

// Default sets the default selection. When unset, the space's unchosen value is used.
func (b *Builder) Default(sel Selection) *Builder {
	b.params.Default = sel
	return b
}

// GrayedOutIf adds a condition; the controller is grayed out if any holds.
func (b *Builder) GrayedOutIf(cond bool) *Builder {
	b.gray = append(b.gray, cond)
	return b
}

// AllowPlayers grants players access.
func (b *Builder) AllowPlayers(players ...roster.PlayerRef) *Builder {
	for _, p := range players {
		b.params.AllowedPlayers.Add(p)
	}
	return b
}

// DontSave marks the controller as one-shot.
func (b *Builder) DontSave() *Builder {
	b.params.DontSave = true
	return b
}

// ResetOnPhaseStart reinstalls the default when p starts.
func (b *Builder) ResetOnPhaseStart(p phase.Type) *Builder {
	b.params.ResetOnPhaseStart = p
	return b
}

// NightTyped resets the controller at the start of each obituary, so night
// targets never carry over to the next night.
func (b *Builder) NightTyped() *Builder {
	return b.ResetOnPhaseStart(phase.Obituary)
}

// ChatMessageOnChange renders accepted changes in chat.
func (b *Builder) ChatMessageOnChange() *Builder {
	b.params.ChatMessageOnChange = true
	return b
}

// Parameters returns the built parameters.
func (b *Builder) Parameters() Parameters {
	p := b.params
	for _, g := range b.gray {
		if g {
			p.GrayedOut = true
		}
	}
	if p.Default == nil {
		p.Default = p.Available.DefaultSelection()
	}
	return p
}

// Build returns a single-entry map for Combine.
func (b *Builder) Build() ParametersMap {
	return ParametersMap{b.id: b.Parameters()}
}
