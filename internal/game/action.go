package game

// Action represents a wagering action. Discard and show_card are not
// wagering actions and have their own entry points.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

// String returns the wire name of an action.
func (a Action) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "all-in"}[a]
}

// ParseAction maps a wire action name to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "fold":
		return Fold, true
	case "check":
		return Check, true
	case "call":
		return Call, true
	case "bet":
		return Bet, true
	case "raise":
		return Raise, true
	case "all-in", "all_in", "allin":
		return AllIn, true
	default:
		return 0, false
	}
}

// Phase is the coarse hand phase. The betting round within PhasePlaying
// is tracked separately.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhaseComplete
)

// String returns the wire name of a phase.
func (p Phase) String() string {
	return [...]string{"waiting", "playing", "complete"}[p]
}

// Betting rounds within a hand.
const (
	RoundPreflop = iota
	RoundFlop
	RoundTurn
	RoundRiver
)

// RoundName returns the display name of a betting round.
func RoundName(round int) string {
	switch round {
	case RoundPreflop:
		return "preflop"
	case RoundFlop:
		return "flop"
	case RoundTurn:
		return "turn"
	case RoundRiver:
		return "river"
	default:
		return "unknown"
	}
}
