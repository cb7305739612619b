// Package defs holds the closed list of projection contracts.
package defs

import (
	"github.com/yungbote/aaos-backend/internal/projection"
)

// All returns every contract. Order carries no meaning.
func All() []projection.Contract {
	return []projection.Contract{
		SessionTimeline(),
		IdentityVersionTimeline(),
		ConfidenceSeries(),
		PressureSeries(),
		ControlFlagsTimeline(),
		SystemStateTimeline(),
	}
}

// NewRegistry builds the registry over All.
func NewRegistry() (*projection.Registry, error) {
	return projection.NewRegistry(All()...)
}
