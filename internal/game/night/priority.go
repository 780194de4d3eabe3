package night

import "slices"

// Priority is one step of night resolution. Steps run in declaration order.
type Priority int

const (
	InitializeNight Priority = iota
	TopPriority
	Transporter
	Warper
	Possess
	Wardblock
	Roleblock
	Deception
	Heal
	Bodyguard
	Kill
	Convert
	Poison
	Investigative
	DeleteMessages
	StealMessages
	FinalizeNight
)

var priorityNames = [...]string{
	InitializeNight: "initializeNight",
	TopPriority:     "topPriority",
	Transporter:     "transporter",
	Warper:          "warper",
	Possess:         "possess",
	Wardblock:       "wardblock",
	Roleblock:       "roleblock",
	Deception:       "deception",
	Heal:            "heal",
	Bodyguard:       "bodyguard",
	Kill:            "kill",
	Convert:         "convert",
	Poison:          "poison",
	Investigative:   "investigative",
	DeleteMessages:  "deleteMessages",
	StealMessages:   "stealMessages",
	FinalizeNight:   "finalizeNight",
}

// String returns the log name of the priority.
func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return "unknown"
	}
	return priorityNames[p]
}

var allPriorities = func() []Priority {
	out := make([]Priority, len(priorityNames))
	for i := range out {
		out[i] = Priority(i)
	}
	return out
}()

// Priorities returns every step in execution order. The slice is a copy.
func Priorities() []Priority {
	return slices.Clone(allPriorities)
}

// Midnight is the event dispatched once per night. Listeners receive the
// night's Variables as the fold.
type Midnight struct {
	Day int
}

// Priorities implements the event contract.
func (Midnight) Priorities() []Priority {
	return slices.Clone(allPriorities)
}
