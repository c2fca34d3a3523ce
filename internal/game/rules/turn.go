package rules

import "fmt"

// GameStatus represents the lifecycle of a game.
type GameStatus int

const (
	StatusWaiting GameStatus = iota
	StatusPlaying
	StatusFinished
)

var statusNames = map[GameStatus]string{
	StatusWaiting:  "WAITING",
	StatusPlaying:  "PLAYING",
	StatusFinished: "FINISHED",
}

func (s GameStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_%d", int(s))
}

// TurnPhase represents the per-turn micro-cycle within a playing game.
// A turn starts idle (awaiting a roll), moves through cell resolution and
// optionally blocks on an external purchase decision before it can end.
// Cards resolve synchronously during cell resolution.
type TurnPhase int

const (
	PhaseIdle TurnPhase = iota
	PhaseMoved
	PhaseResolvingCell
	PhaseAwaitingPurchase
	PhaseTurnEnded
)

var phaseNames = map[TurnPhase]string{
	PhaseIdle:             "IDLE",
	PhaseMoved:            "MOVED",
	PhaseResolvingCell:    "RESOLVING_CELL",
	PhaseAwaitingPurchase: "AWAITING_PURCHASE",
	PhaseTurnEnded:        "TURN_ENDED",
}

func (p TurnPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// CanRoll reports whether a dice roll is legal in this phase.
func (p TurnPhase) CanRoll() bool {
	return p == PhaseIdle
}

// Blocking reports whether the turn is waiting on an external decision.
func (p TurnPhase) Blocking() bool {
	return p == PhaseAwaitingPurchase
}
