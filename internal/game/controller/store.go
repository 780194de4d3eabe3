package controller

import (
	"reflect"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// Rejection explains why a selection change was refused.
type Rejection int

const (
	NotRejected Rejection = iota
	RejectedUnknownController
	RejectedIllegal
	RejectedGrayedOut
	RejectedNotAllowed
	RejectedUnchanged
)

// String returns a log-friendly name.
func (r Rejection) String() string {
	switch r {
	case NotRejected:
		return "accepted"
	case RejectedUnknownController:
		return "unknown controller"
	case RejectedIllegal:
		return "illegal selection"
	case RejectedGrayedOut:
		return "grayed out"
	case RejectedNotAllowed:
		return "player not allowed"
	case RejectedUnchanged:
		return "selection unchanged"
	default:
		return "unknown"
	}
}

// Actor is whoever proposes a selection: a player, or the game itself acting
// on a player's behalf.
type Actor struct {
	player roster.PlayerRef
	system bool
}

// PlayerActor is a proposal from a connected player.
func PlayerActor(p roster.PlayerRef) Actor { return Actor{player: p} }

// SystemActor is a proposal from game logic; it bypasses the allowed-player check.
func SystemActor() Actor { return Actor{system: true} }

// Player returns the acting player, if any.
func (a Actor) Player() (roster.PlayerRef, bool) { return a.player, !a.system }

// SetResult is the outcome of Store.Set.
type SetResult struct {
	Rejection Rejection
	// Stored is false for accepted changes on DontSave controllers.
	Stored bool
	// Selection is the accepted proposal, stored or not.
	Selection Selection
}

// Accepted reports whether the proposal went through.
func (r SetResult) Accepted() bool { return r.Rejection == NotRejected }

// Changes lists the controllers a reconciliation touched, in deterministic order.
type Changes struct {
	Changed []ID
	Removed []ID
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool { return len(c.Changed) == 0 && len(c.Removed) == 0 }

// Store is the single source of truth for what every player can currently do.
type Store struct {
	params ParametersMap
	saved  map[ID]Saved
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		params: make(ParametersMap),
		saved:  make(map[ID]Saved),
	}
}

// Get returns the saved controller for id.
func (s *Store) Get(id ID) (Saved, bool) {
	saved, ok := s.saved[id]
	return saved, ok
}

// Selection returns the stored selection for id.
func (s *Store) Selection(id ID) (Selection, bool) {
	saved, ok := s.saved[id]
	if !ok {
		return nil, false
	}
	return saved.Selection, true
}

// IDs returns every stored ID in deterministic order.
func (s *Store) IDs() []ID {
	return s.params.IDs()
}

// Len returns the number of controllers.
func (s *Store) Len() int { return len(s.saved) }

// Reconcile installs a freshly polled parameters map. An unchanged map is a
// no-op. Previous selections survive only if they are still legal, the
// controller saves selections, and it is not grayed out; otherwise the declared
// default is installed as is, legal or not.
func (s *Store) Reconcile(declared ParametersMap) Changes {
	next := make(ParametersMap, len(declared))
	for id, params := range declared {
		if params.Available == nil {
			params.Available = AvailableUnit{}
		}
		if params.Default == nil {
			params.Default = params.Available.DefaultSelection()
		}
		if params.AllowedPlayers == nil {
			params.AllowedPlayers = roster.NewPlayerSet()
		}
		next[id] = params
	}

	if reflect.DeepEqual(map[ID]Parameters(s.params), map[ID]Parameters(next)) {
		return Changes{}
	}

	var changes Changes
	saved := make(map[ID]Saved, len(next))
	for _, id := range next.IDs() {
		params := next[id]
		selection := params.Default
		if prev, ok := s.saved[id]; ok {
			if params.Legal(prev.Selection) && !params.DontSave && !params.GrayedOut {
				selection = prev.Selection
			}
		}
		entry := Saved{Selection: selection, Parameters: params}
		saved[id] = entry

		prev, existed := s.saved[id]
		if !existed || !SelectionsEqual(prev.Selection, selection) || !reflect.DeepEqual(prev.Parameters, params) {
			changes.Changed = append(changes.Changed, id)
		}
	}
	for _, id := range s.params.IDs() {
		if _, ok := next[id]; !ok {
			changes.Removed = append(changes.Removed, id)
		}
	}

	s.params = next
	s.saved = saved
	return changes
}

// Set validates and applies a proposed selection. Rejections never mutate the
// store. Unit selections are accepted even when identical to the stored value
// so buttons can be pressed repeatedly.
func (s *Store) Set(actor Actor, id ID, sel Selection, overrideGrayed bool) SetResult {
	saved, ok := s.saved[id]
	if !ok {
		return SetResult{Rejection: RejectedUnknownController}
	}
	params := saved.Parameters
	if sel == nil || !params.Legal(sel) {
		return SetResult{Rejection: RejectedIllegal}
	}
	if params.GrayedOut && !overrideGrayed {
		return SetResult{Rejection: RejectedGrayedOut}
	}
	if player, isPlayer := actor.Player(); isPlayer && !params.Allows(player) {
		return SetResult{Rejection: RejectedNotAllowed}
	}
	if _, unit := sel.(Unit); !unit && SelectionsEqual(saved.Selection, sel) {
		return SetResult{Rejection: RejectedUnchanged}
	}

	if params.DontSave {
		return SetResult{Selection: sel}
	}
	saved.Selection = sel
	s.saved[id] = saved
	return SetResult{Stored: true, Selection: sel}
}

// ResetForPhase reinstalls the default on every controller that declares p as
// its reset phase. It returns the IDs whose selection changed.
func (s *Store) ResetForPhase(p phase.Type) []ID {
	if p == phase.None {
		return nil
	}
	var changed []ID
	for _, id := range s.params.IDs() {
		saved := s.saved[id]
		if saved.Parameters.ResetOnPhaseStart != p {
			continue
		}
		if SelectionsEqual(saved.Selection, saved.Parameters.Default) {
			continue
		}
		saved.Selection = saved.Parameters.Default
		s.saved[id] = saved
		changed = append(changed, id)
	}
	return changed
}

// ViewFor returns the controllers player is allowed to act on.
func (s *Store) ViewFor(player roster.PlayerRef) map[ID]Saved {
	view := make(map[ID]Saved)
	for id, saved := range s.saved {
		if saved.Parameters.Allows(player) {
			view[id] = saved
		}
	}
	return view
}
