// Package domain re-exports the persisted models so wiring code can refer
// to them through a single import.
package domain

import (
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/control"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
	"github.com/yungbote/aaos-backend/internal/domain/user"
)

type (
	User                 = user.User
	UserContext          = user.UserContext
	Session              = session.Session
	ModelSet             = identity.ModelSet
	IdentityModelVersion = identity.IdentityModelVersion
	ConfidenceState      = signal.ConfidenceState
	PressureState        = signal.PressureState
	ControlFlag          = control.ControlFlag
	ControlFlagHead      = control.ControlFlagHead
	AuditEvent           = audit.AuditEvent
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserContext{},
		&Session{},
		&ModelSet{},
		&IdentityModelVersion{},
		&ConfidenceState{},
		&PressureState{},
		&ControlFlag{},
		&ControlFlagHead{},
		&AuditEvent{},
	}
}
