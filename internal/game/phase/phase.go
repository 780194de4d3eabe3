// Package phase enumerates the day/night phases the phase clock walks through.
package phase

import "time"

// Type identifies a phase. The zero value means "no phase".
type Type int

const (
	None Type = iota
	Briefing
	Obituary
	Discussion
	Nomination
	Judgement
	Dusk
	Night
)

// String returns the wire name of the phase.
func (t Type) String() string {
	switch t {
	case Briefing:
		return "briefing"
	case Obituary:
		return "obituary"
	case Discussion:
		return "discussion"
	case Nomination:
		return "nomination"
	case Judgement:
		return "judgement"
	case Dusk:
		return "dusk"
	case Night:
		return "night"
	default:
		return "none"
	}
}

// MarshalText encodes the phase by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Next returns the phase that follows t in the daily cycle. Briefing only
// happens once, at game start.
func (t Type) Next() Type {
	switch t {
	case Briefing:
		return Night
	case Obituary:
		return Discussion
	case Discussion:
		return Nomination
	case Nomination:
		return Judgement
	case Judgement:
		return Dusk
	case Dusk:
		return Night
	case Night:
		return Obituary
	default:
		return Briefing
	}
}

// Durations maps each phase to how long it lasts.
type Durations map[Type]time.Duration

// DefaultDurations are used when configuration omits a phase.
func DefaultDurations() Durations {
	return Durations{
		Briefing:   45 * time.Second,
		Obituary:   20 * time.Second,
		Discussion: 120 * time.Second,
		Nomination: 60 * time.Second,
		Judgement:  30 * time.Second,
		Dusk:       10 * time.Second,
		Night:      45 * time.Second,
	}
}
