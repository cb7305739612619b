package session

import (
	"fmt"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
)

// Explicit table; a new phase must list its transitions here.
var allowedPhaseTransitions = map[Phase][]Phase{
	PhaseOpening:    {PhaseEngagement},
	PhaseEngagement: {PhaseSynthesis},
	PhaseSynthesis:  {PhaseClosure},
	PhaseClosure:    {},
}

func CanAdvancePhase(from, to Phase) bool {
	for _, next := range allowedPhaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AssertPhaseAdvanceAllowed(from, to Phase) error {
	if !CanAdvancePhase(from, to) {
		return governance.NewError(
			governance.CodeInvariantViolation,
			"session.phase",
			fmt.Sprintf("Invalid phase transition: %s -> %s", from, to),
			nil,
		)
	}
	return nil
}
