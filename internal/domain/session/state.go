package session

import (
	"fmt"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
)

// StateContext carries the governance inputs of a transition decision.
type StateContext struct {
	// HasModels is true when the user's active model set holds at least one identity version.
	HasModels bool
	// IsPaused is the effective pause for the owning user.
	IsPaused bool
}

var allowedStateTransitions = map[State][]State{
	StateUninitialized:        {StateAssessing, StatePaused},
	StateAssessing:            {StateModeled, StatePaused},
	StateModeled:              {StateInsightDelivery, StateLongitudinalTracking, StatePaused},
	StateInsightDelivery:      {StateLongitudinalTracking, StatePaused},
	StateLongitudinalTracking: {StateAssessing, StatePaused},
	StatePaused:               {StateUninitialized},
}

func CanTransition(from, to State) bool {
	for _, next := range allowedStateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PauseAllows is the single pause rule for state transitions: while paused,
// the only reachable target is PAUSED itself. The transition guard service
// uses the same function.
func PauseAllows(isPaused bool, to State) bool {
	return !isPaused || to == StatePaused
}

// AssertTransitionAllowed checks, in order: pause override, the
// INSIGHT_DELIVERY model prerequisite, then the transition table.
func AssertTransitionAllowed(from, to State, ctx StateContext) error {
	if !PauseAllows(ctx.IsPaused, to) {
		return governance.NewError(governance.CodePaused, "session.state", "System is paused; transitions are blocked.", nil)
	}
	if to == StateInsightDelivery && !ctx.HasModels {
		return governance.NewError(governance.CodePreconditionFailed, "session.state", "Cannot enter INSIGHT_DELIVERY without identity models.", nil)
	}
	if !CanTransition(from, to) {
		return governance.NewError(
			governance.CodeInvariantViolation,
			"session.state",
			fmt.Sprintf("Invalid transition: %s -> %s", from, to),
			nil,
		)
	}
	return nil
}
