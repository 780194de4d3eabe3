package night

import (
	"slices"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/roster"
)

// MessageKind identifies a night message for clients.
type MessageKind string

const (
	MessageRoleblocked      MessageKind = "roleblocked"
	MessageWardblocked      MessageKind = "wardblocked"
	MessageTransported      MessageKind = "transported"
	MessagePossessed        MessageKind = "possessed"
	MessageAttackSurvived   MessageKind = "attackSurvived"
	MessageTargetSurvived   MessageKind = "targetSurvived"
	MessageHealed           MessageKind = "healed"
	MessageTargetHealed     MessageKind = "targetHealed"
	MessageGuarded          MessageKind = "guarded"
	MessagePoisoned         MessageKind = "poisoned"
	MessageConverted        MessageKind = "converted"
	MessageConvertFailed    MessageKind = "convertFailed"
	MessageInvestigation    MessageKind = "investigation"
	MessageVisitors         MessageKind = "visitors"
	MessageStolen           MessageKind = "stolen"
	MessageKilled           MessageKind = "killed"
	MessageTargetImmune     MessageKind = "targetImmune"
	MessagePossessionFailed MessageKind = "possessionFailed"
)

// Message is a private night result delivered to one player's chat at dawn.
type Message struct {
	Kind MessageKind `json:"kind"`
	// Players referenced by the message, such as seen visitors.
	Players []roster.PlayerRef `json:"players,omitempty"`
	Text    string             `json:"text,omitempty"`
}

// Killer names who or what caused a death, as shown on the grave.
type Killer string

// KillerSyndicate is shown for the syndicate's shared kill.
const KillerSyndicate Killer = "syndicate"

// RoleKiller is shown for a kill by a role ability.
func RoleKiller(role roster.Role) Killer { return Killer(role) }

// Grave records a death. It is created only when an attack succeeds.
type Grave struct {
	Player  roster.PlayerRef `json:"player"`
	Role    roster.Role      `json:"role"`
	Day     int              `json:"day"`
	Killers []Killer         `json:"killers"`
}

// Seat is the frozen per-player input of one night.
type Seat struct {
	Role    roster.Role
	Alive   bool
	Defense DefensePower
}

// PlayerNight is one player's mutable scratch state for the night.
type PlayerNight struct {
	Died        bool
	Attacked    bool
	Blocked     bool
	Wardblocked bool
	Framed      bool
	// DefenseUpgrade raises the seat's defense for the rest of the night.
	DefenseUpgrade DefensePower
	Messages       []Message
	Grave          *Grave
}

// Conversion is a request to change a player's role at dawn.
type Conversion struct {
	Player roster.PlayerRef `json:"player"`
	Role   roster.Role      `json:"role"`
}

// Attack describes one kill attempt.
type Attack struct {
	Attackers []roster.PlayerRef
	Target    roster.PlayerRef
	Power     AttackPower
	Killer    Killer
}

// Variables is the fold threaded through one Midnight dispatch. Per-player
// state lives in a flat arena indexed by PlayerRef.
type Variables struct {
	Day   int
	seats []Seat
	arena []PlayerNight

	// Visits is the live visit list; listeners filter and rewrite it.
	Visits []Visit
	// OriginalVisits is the list as submitted, before any interference.
	OriginalVisits []Visit
	Converts       []Conversion
}

// NewVariables allocates the arena for seats and installs the submitted visits.
func NewVariables(day int, seats []Seat, visits []Visit) *Variables {
	return &Variables{
		Day:            day,
		seats:          slices.Clone(seats),
		arena:          make([]PlayerNight, len(seats)),
		Visits:         slices.Clone(visits),
		OriginalVisits: slices.Clone(visits),
	}
}

// PlayerCount returns the number of seats.
func (v *Variables) PlayerCount() int { return len(v.seats) }

func (v *Variables) valid(p roster.PlayerRef) bool {
	return p >= 0 && int(p) < len(v.seats)
}

// Player returns p's scratch state. Out-of-range players report false.
func (v *Variables) Player(p roster.PlayerRef) (*PlayerNight, bool) {
	if !v.valid(p) {
		return nil, false
	}
	return &v.arena[p], true
}

// Seat returns p's frozen input.
func (v *Variables) Seat(p roster.PlayerRef) (Seat, bool) {
	if !v.valid(p) {
		return Seat{}, false
	}
	return v.seats[p], true
}

// Alive reports whether p started the night alive and has not died yet.
func (v *Variables) Alive(p roster.PlayerRef) bool {
	return v.valid(p) && v.seats[p].Alive && !v.arena[p].Died
}

// VisitsBy returns the visits p is currently making.
func (v *Variables) VisitsBy(actor roster.PlayerRef) []Visit {
	return v.filter(func(visit Visit) bool { return visit.Actor == actor })
}

// VisitsByTag returns actor's visits produced by tag.
func (v *Variables) VisitsByTag(actor roster.PlayerRef, tag VisitTag) []Visit {
	return v.filter(func(visit Visit) bool { return visit.Actor == actor && visit.Tag == tag })
}

// VisitsTo returns the visits currently targeting p.
func (v *Variables) VisitsTo(target roster.PlayerRef) []Visit {
	return v.filter(func(visit Visit) bool { return visit.Target == target })
}

// VisitorsOf returns who visited target, in visit order without duplicates.
// Indirect and investigate-immune visits do not count.
func (v *Variables) VisitorsOf(target roster.PlayerRef) []roster.PlayerRef {
	var out []roster.PlayerRef
	for _, visit := range v.Visits {
		if visit.Target != target || visit.Indirect || visit.InvestigateImmune {
			continue
		}
		if !slices.Contains(out, visit.Actor) {
			out = append(out, visit.Actor)
		}
	}
	return out
}

func (v *Variables) filter(keep func(Visit) bool) []Visit {
	var out []Visit
	for _, visit := range v.Visits {
		if keep(visit) {
			out = append(out, visit)
		}
	}
	return out
}

// RemoveVisitsWhere drops every visit matching remove and returns them.
func (v *Variables) RemoveVisitsWhere(remove func(Visit) bool) []Visit {
	var removed []Visit
	kept := v.Visits[:0:0]
	for _, visit := range v.Visits {
		if remove(visit) {
			removed = append(removed, visit)
			continue
		}
		kept = append(kept, visit)
	}
	v.Visits = kept
	return removed
}

// RemoveVisitsBy drops every visit actor is making.
func (v *Variables) RemoveVisitsBy(actor roster.PlayerRef) []Visit {
	return v.RemoveVisitsWhere(func(visit Visit) bool { return visit.Actor == actor })
}

// RemoveVisitsTo drops the visits targeting target. With keepImmune set,
// wardblock-immune visits stay.
func (v *Variables) RemoveVisitsTo(target roster.PlayerRef, keepImmune bool) []Visit {
	return v.RemoveVisitsWhere(func(visit Visit) bool {
		return visit.Target == target && !(keepImmune && visit.WardblockImmune)
	})
}

// Roleblock marks p blocked and removes all of p's visits. It reports whether p
// had any visits.
func (v *Variables) Roleblock(p roster.PlayerRef) bool {
	night, ok := v.Player(p)
	if !ok {
		return false
	}
	night.Blocked = true
	return len(v.RemoveVisitsBy(p)) > 0
}

// Wardblock marks p wardblocked and removes p's visits except wardblock-immune
// ones. It reports whether any visit was removed.
func (v *Variables) Wardblock(p roster.PlayerRef) bool {
	night, ok := v.Player(p)
	if !ok {
		return false
	}
	night.Wardblocked = true
	removed := v.RemoveVisitsWhere(func(visit Visit) bool {
		return visit.Actor == p && !visit.WardblockImmune
	})
	return len(removed) > 0
}

// RetargetVisits rewrites visit targets through mapping in a single pass, so a
// swap {a: b, b: a} exchanges the two targets. Transport-immune visits keep their
// target. It returns the number of rewritten visits.
func (v *Variables) RetargetVisits(mapping map[roster.PlayerRef]roster.PlayerRef) int {
	n := 0
	for i := range v.Visits {
		visit := &v.Visits[i]
		if visit.TransportImmune {
			continue
		}
		if to, ok := mapping[visit.Target]; ok && to != visit.Target {
			visit.Target = to
			n++
		}
	}
	return n
}

// ReplaceVisitsBy swaps actor's visits for replacement.
func (v *Variables) ReplaceVisitsBy(actor roster.PlayerRef, replacement []Visit) {
	v.RemoveVisitsBy(actor)
	v.Visits = append(v.Visits, replacement...)
}

// ReplaceVisitsByTag swaps only actor's visits carrying tag for replacement.
// The actor's other visits keep whatever earlier steps did to them.
func (v *Variables) ReplaceVisitsByTag(actor roster.PlayerRef, tag VisitTag, replacement []Visit) {
	v.RemoveVisitsWhere(func(visit Visit) bool { return visit.Actor == actor && visit.Tag == tag })
	v.Visits = append(v.Visits, replacement...)
}

// UpgradeDefense raises p's defense to at least d for the rest of the night.
func (v *Variables) UpgradeDefense(p roster.PlayerRef, d DefensePower) {
	if night, ok := v.Player(p); ok {
		night.DefenseUpgrade = night.DefenseUpgrade.Max(d)
	}
}

// Defense returns p's current defense: the seat default or tonight's upgrade,
// whichever is stronger.
func (v *Variables) Defense(p roster.PlayerRef) DefensePower {
	if !v.valid(p) {
		return DefenseNone
	}
	return v.seats[p].Defense.Max(v.arena[p].DefenseUpgrade)
}

// Frame makes p appear suspicious to investigators tonight.
func (v *Variables) Frame(p roster.PlayerRef) {
	if night, ok := v.Player(p); ok {
		night.Framed = true
	}
}

// TryKill resolves one attack. The attack succeeds iff it pierces the target's
// current defense; the target then dies and gets a grave naming the killer.
// Attacking a player who already died tonight only adds the killer to the
// grave. A failed attack notifies the target and every attacker.
func (v *Variables) TryKill(a Attack) bool {
	night, ok := v.Player(a.Target)
	if !ok || !v.seats[a.Target].Alive {
		return false
	}
	night.Attacked = true

	if night.Died {
		if !slices.Contains(night.Grave.Killers, a.Killer) {
			night.Grave.Killers = append(night.Grave.Killers, a.Killer)
		}
		return true
	}

	if !a.Power.CanPierce(v.Defense(a.Target)) {
		v.PushMessage(a.Target, Message{Kind: MessageAttackSurvived})
		for _, attacker := range a.Attackers {
			v.PushMessage(attacker, Message{Kind: MessageTargetSurvived, Players: []roster.PlayerRef{a.Target}})
		}
		return false
	}

	night.Died = true
	night.Grave = &Grave{
		Player:  a.Target,
		Role:    v.seats[a.Target].Role,
		Day:     v.Day,
		Killers: []Killer{a.Killer},
	}
	v.PushMessage(a.Target, Message{Kind: MessageKilled})
	return true
}

// Convert requests that p becomes role at dawn. A later request for the same
// player replaces an earlier one.
func (v *Variables) Convert(p roster.PlayerRef, role roster.Role) {
	if !v.valid(p) {
		return
	}
	for i := range v.Converts {
		if v.Converts[i].Player == p {
			v.Converts[i].Role = role
			return
		}
	}
	v.Converts = append(v.Converts, Conversion{Player: p, Role: role})
}

// PushMessage queues msg for p.
func (v *Variables) PushMessage(p roster.PlayerRef, msg Message) {
	if night, ok := v.Player(p); ok {
		night.Messages = append(night.Messages, msg)
	}
}

// Messages returns p's queued messages.
func (v *Variables) Messages(p roster.PlayerRef) []Message {
	if night, ok := v.Player(p); ok {
		return slices.Clone(night.Messages)
	}
	return nil
}

// ClearMessages drops p's queued messages and returns them.
func (v *Variables) ClearMessages(p roster.PlayerRef) []Message {
	night, ok := v.Player(p)
	if !ok {
		return nil
	}
	msgs := night.Messages
	night.Messages = nil
	return msgs
}

// Outcome snapshots the finalized night.
func (v *Variables) Outcome() Outcome {
	out := Outcome{
		Day:      v.Day,
		Players:  make([]PlayerOutcome, len(v.arena)),
		Converts: slices.Clone(v.Converts),
	}
	for i, night := range v.arena {
		po := PlayerOutcome{
			Player:      roster.PlayerRef(i),
			Died:        night.Died,
			Attacked:    night.Attacked,
			Blocked:     night.Blocked,
			Wardblocked: night.Wardblocked,
			Framed:      night.Framed,
			Messages:    slices.Clone(night.Messages),
		}
		if night.Grave != nil {
			grave := *night.Grave
			grave.Killers = slices.Clone(grave.Killers)
			po.Grave = &grave
		}
		out.Players[i] = po
	}
	return out
}
