package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/control"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/ctxutil"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

const (
	defaultSystemPausedReason = "System is paused."
	defaultUserPausedReason   = "User is paused."
	defaultPauseUserReason    = "User paused system"
	defaultResumeUserReason   = "User resumed system"
)

type EffectivePause struct {
	IsPaused bool          `json:"isPaused"`
	Reason   *string       `json:"reason,omitempty"`
	Scope    control.Scope `json:"scope,omitempty"`
}

type ControlStatus struct {
	UserID     uuid.UUID          `json:"userId"`
	Effective  EffectivePause     `json:"effective"`
	UserFlag   *types.ControlFlag `json:"userFlag"`
	SystemFlag *types.ControlFlag `json:"systemFlag"`
}

// PauseChecker resolves the effective pause for a user.
type PauseChecker interface {
	GetEffectivePause(dbc dbctx.Context, userID uuid.UUID) (EffectivePause, error)
}

type ControlPlane interface {
	PauseChecker
	SetFlag(dbc dbctx.Context, scope control.Scope, scopeID *uuid.UUID, paused bool, reason *string) (*types.ControlFlag, error)
	GetLatestFlag(dbc dbctx.Context, scope control.Scope, scopeID *uuid.UUID) (*types.ControlFlag, error)
	PauseUser(dbc dbctx.Context, userID uuid.UUID, reason *string) (*types.ControlFlag, error)
	ResumeUser(dbc dbctx.Context, userID uuid.UUID, reason *string) (*types.ControlFlag, error)
	PauseSystem(dbc dbctx.Context, reason *string) (*types.ControlFlag, error)
	ResumeSystem(dbc dbctx.Context, reason *string) (*types.ControlFlag, error)
	Status(dbc dbctx.Context, userID uuid.UUID) (*ControlStatus, error)
}

type controlPlane struct {
	db     *gorm.DB
	log    *logger.Logger
	flags  repos.ControlFlagRepo
	clock  clock.Clock
	writer governedWriter
}

func NewControlPlane(db *gorm.DB, log *logger.Logger, flags repos.ControlFlagRepo, sink AuditSink, clk clock.Clock) ControlPlane {
	serviceLog := log.With("service", "ControlPlane")
	return &controlPlane{
		db:     db,
		log:    serviceLog,
		flags:  flags,
		clock:  clk,
		writer: newGovernedWriter(db, sink, serviceLog),
	}
}

func (cp *controlPlane) SetFlag(dbc dbctx.Context, scope control.Scope, scopeID *uuid.UUID, paused bool, reason *string) (*types.ControlFlag, error) {
	const op = "control.setFlag"
	if !scope.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown control scope.", nil)
	}
	if scope == control.ScopeSystem {
		scopeID = nil
	} else if scopeID == nil || *scopeID == uuid.Nil {
		return nil, governance.NewError(governance.CodeValidation, op, "User scope requires a scopeId.", nil)
	}

	var created *types.ControlFlag
	err := cp.writer.run(dbc, op, func(tx dbctx.Context) error {
		flag, err := cp.flags.Append(tx.Ctx, tx.Tx, &types.ControlFlag{
			ID:        uuid.New(),
			Scope:     scope,
			ScopeID:   scopeID,
			Paused:    paused,
			Reason:    reason,
			CreatedAt: cp.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}

		eventType := audit.EventSystemResumed
		if paused {
			eventType = audit.EventSystemPaused
		}
		meta := map[string]any{
			"scope":   scope,
			"scopeId": uuidOrNil(scopeID),
			"paused":  paused,
			"reason":  stringOrNil(reason),
			"flagId":  flag.ID.String(),
		}
		if operator := ctxutil.GetOperator(tx.Ctx); operator != nil {
			meta["operator"] = operator.Subject
		}
		if _, err := cp.writer.audit.Append(tx, AuditEntry{
			UserID:    scopeID,
			EventType: eventType,
			Meta:      meta,
			At:        flag.CreatedAt,
		}); err != nil {
			return mapInfra(op, err)
		}
		created = flag
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp.log.Info("control flag appended", "scope", scope, "scope_id", uuidString(scopeID), "paused", paused)
	return created, nil
}

func (cp *controlPlane) GetLatestFlag(dbc dbctx.Context, scope control.Scope, scopeID *uuid.UUID) (*types.ControlFlag, error) {
	if scope == control.ScopeSystem {
		scopeID = nil
	}
	flag, err := cp.flags.GetLatest(dbc.Ctx, dbc.Tx, scope, scopeID)
	if err != nil {
		return nil, mapInfra("control.getLatestFlag", err)
	}
	return flag, nil
}

// GetEffectivePause checks the system scope first; a system pause wins
// regardless of the user's own flags. No flags means not paused.
func (cp *controlPlane) GetEffectivePause(dbc dbctx.Context, userID uuid.UUID) (EffectivePause, error) {
	system, err := cp.GetLatestFlag(dbc, control.ScopeSystem, nil)
	if err != nil {
		return EffectivePause{}, err
	}
	if system != nil && system.Paused {
		return EffectivePause{IsPaused: true, Reason: reasonOr(system.Reason, defaultSystemPausedReason), Scope: control.ScopeSystem}, nil
	}
	user, err := cp.GetLatestFlag(dbc, control.ScopeUser, &userID)
	if err != nil {
		return EffectivePause{}, err
	}
	if user != nil && user.Paused {
		return EffectivePause{IsPaused: true, Reason: reasonOr(user.Reason, defaultUserPausedReason), Scope: control.ScopeUser}, nil
	}
	return EffectivePause{IsPaused: false}, nil
}

func (cp *controlPlane) PauseUser(dbc dbctx.Context, userID uuid.UUID, reason *string) (*types.ControlFlag, error) {
	return cp.SetFlag(dbc, control.ScopeUser, &userID, true, reasonOr(reason, defaultPauseUserReason))
}

func (cp *controlPlane) ResumeUser(dbc dbctx.Context, userID uuid.UUID, reason *string) (*types.ControlFlag, error) {
	return cp.SetFlag(dbc, control.ScopeUser, &userID, false, reasonOr(reason, defaultResumeUserReason))
}

func (cp *controlPlane) PauseSystem(dbc dbctx.Context, reason *string) (*types.ControlFlag, error) {
	return cp.SetFlag(dbc, control.ScopeSystem, nil, true, reason)
}

func (cp *controlPlane) ResumeSystem(dbc dbctx.Context, reason *string) (*types.ControlFlag, error) {
	return cp.SetFlag(dbc, control.ScopeSystem, nil, false, reason)
}

func (cp *controlPlane) Status(dbc dbctx.Context, userID uuid.UUID) (*ControlStatus, error) {
	effective, err := cp.GetEffectivePause(dbc, userID)
	if err != nil {
		return nil, err
	}
	userFlag, err := cp.GetLatestFlag(dbc, control.ScopeUser, &userID)
	if err != nil {
		return nil, err
	}
	systemFlag, err := cp.GetLatestFlag(dbc, control.ScopeSystem, nil)
	if err != nil {
		return nil, err
	}
	return &ControlStatus{
		UserID:     userID,
		Effective:  effective,
		UserFlag:   userFlag,
		SystemFlag: systemFlag,
	}, nil
}

func reasonOr(reason *string, fallback string) *string {
	if reason != nil && *reason != "" {
		return reason
	}
	return &fallback
}
