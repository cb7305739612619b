package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/aggregates"
	"github.com/yungbote/aaos-backend/internal/data/repos"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

const (
	defaultSessionPurpose   = "New session"
	bootstrapSessionPurpose = "Bootstrap test session"
	bootstrapNote           = "Created test user + session"
)

type OpenSessionInput struct {
	UserID  uuid.UUID
	Type    session.Type
	Purpose *string
}

type BootstrapResult struct {
	UserID    uuid.UUID `json:"userId"`
	SessionID uuid.UUID `json:"sessionId"`
}

// SessionService is the only writer of Session.phase, Session.state and
// Session.closed_at.
type SessionService interface {
	OpenSession(dbc dbctx.Context, in OpenSessionInput) (*types.Session, error)
	AdvancePhase(dbc dbctx.Context, userID, sessionID uuid.UUID, to session.Phase) (*types.Session, error)
	// CloseSession is idempotent: an already closed session is returned unchanged.
	CloseSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.Session, error)
	// TransitionState moves the session's system state; from is the persisted state.
	TransitionState(dbc dbctx.Context, userID, sessionID uuid.UUID, to session.State) (*types.Session, error)
	Bootstrap(dbc dbctx.Context) (*BootstrapResult, error)
}

type sessionService struct {
	db       *gorm.DB
	log      *logger.Logger
	users    repos.UserRepo
	sessions repos.SessionRepo
	contexts UserContextService
	pause    PauseChecker
	guard    TransitionGuard
	clock    clock.Clock
	writer   governedWriter
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	sessions repos.SessionRepo,
	contexts UserContextService,
	pause PauseChecker,
	guard TransitionGuard,
	sink AuditSink,
	clk clock.Clock,
) SessionService {
	serviceLog := log.With("service", "SessionService")
	return &sessionService{
		db:       db,
		log:      serviceLog,
		users:    users,
		sessions: sessions,
		contexts: contexts,
		pause:    pause,
		guard:    guard,
		clock:    clk,
		writer:   newGovernedWriter(db, sink, serviceLog),
	}
}

func (s *sessionService) OpenSession(dbc dbctx.Context, in OpenSessionInput) (*types.Session, error) {
	const op = "session.open"
	sessionType := in.Type
	if sessionType == "" {
		sessionType = session.TypeAssessment
	}
	if !sessionType.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown session type.", nil)
	}
	purpose := defaultSessionPurpose
	if in.Purpose != nil && strings.TrimSpace(*in.Purpose) != "" {
		purpose = strings.TrimSpace(*in.Purpose)
	}

	var out *types.Session
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		if err := requireUser(tx, s.users, in.UserID, op); err != nil {
			return err
		}
		pause, err := s.pause.GetEffectivePause(tx, in.UserID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			meta := pauseMeta(pause)
			meta["action"] = "SESSION_OPEN"
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(in.UserID),
				EventType: audit.EventActionBlockedPaused,
				Meta:      meta,
			}, governance.CodePaused, op, "System is paused; session open blocked.")
		}

		created, err := s.createSession(tx, in.UserID, sessionType, purpose)
		if err != nil {
			return err
		}
		if _, err := s.contexts.EnsureUserContext(tx, in.UserID); err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(in.UserID),
			SessionID: uuidPtr(created.ID),
			EventType: audit.EventSessionOpened,
			Meta:      map[string]any{"type": created.Type, "purpose": created.Purpose},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("session opened", "user_id", in.UserID, "session_id", out.ID, "type", out.Type)
	return out, nil
}

func (s *sessionService) AdvancePhase(dbc dbctx.Context, userID, sessionID uuid.UUID, to session.Phase) (*types.Session, error) {
	const op = "session.advance"
	if !to.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown session phase.", nil)
	}

	var out *types.Session
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		sess, err := s.loadOwned(tx, userID, sessionID, op)
		if err != nil {
			return err
		}
		if sess.ClosedAt != nil {
			return governance.NewError(governance.CodeInvariantViolation, op, "Session is already closed.", nil)
		}

		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			meta := pauseMeta(pause)
			meta["action"] = "SESSION_ADVANCE"
			meta["attemptedPhase"] = to
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				SessionID: uuidPtr(sessionID),
				EventType: audit.EventActionBlockedPaused,
				Meta:      meta,
			}, governance.CodePaused, op, "System is paused; session phase advance blocked.")
		}

		from := sess.Phase
		if err := session.AssertPhaseAdvanceAllowed(from, to); err != nil {
			return err
		}
		ok, err := s.writer.deps.Guard.UpdateIfMatch(tx, types.Session{}.TableName(), sessionID, "phase", from, map[string]any{
			"phase":      to,
			"updated_at": s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if err := mapInfra(op, aggregates.RequireCASSuccess(ok, "Session phase changed concurrently.")); err != nil {
			return err
		}

		updated, err := s.reload(tx, sessionID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			SessionID: uuidPtr(sessionID),
			EventType: audit.EventSessionPhaseAdvanced,
			Meta:      map[string]any{"from": from, "to": to},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("session phase advanced", "session_id", sessionID, "to", to)
	return out, nil
}

func (s *sessionService) CloseSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.Session, error) {
	const op = "session.close"
	var out *types.Session
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		sess, err := s.loadOwned(tx, userID, sessionID, op)
		if err != nil {
			return err
		}
		if sess.ClosedAt != nil {
			out = sess
			return nil
		}
		if sess.Phase != session.PhaseClosure {
			return governance.NewError(governance.CodeInvariantViolation, op,
				fmt.Sprintf("Cannot close session unless phase is CLOSURE (current: %s).", sess.Phase), nil)
		}

		closedAt := s.clock.Now()
		ok, err := s.writer.deps.Guard.UpdateIfNull(tx, types.Session{}.TableName(), sessionID, "closed_at", map[string]any{
			"closed_at":  closedAt,
			"updated_at": closedAt,
		})
		if err != nil {
			return mapInfra(op, err)
		}
		closed, err := s.reload(tx, sessionID, op)
		if err != nil {
			return err
		}
		if !ok {
			// Another writer closed it first.
			out = closed
			return nil
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			SessionID: uuidPtr(sessionID),
			EventType: audit.EventSessionClosed,
			Meta:      map[string]any{"closedAt": closedAt.UTC().Format(isoMillis)},
			At:        closedAt,
		}); err != nil {
			return mapInfra(op, err)
		}

		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		if !pause.IsPaused {
			if _, err := s.contexts.SetLastClosedSession(tx, userID, sessionID); err != nil {
				return err
			}
		}
		out = closed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sessionService) TransitionState(dbc dbctx.Context, userID, sessionID uuid.UUID, to session.State) (*types.Session, error) {
	const op = "session.transitionState"
	if !to.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown system state.", nil)
	}

	var out *types.Session
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		sess, err := s.loadOwned(tx, userID, sessionID, op)
		if err != nil {
			return err
		}
		from := sess.State

		decision, err := s.guard.CanTransition(tx, userID, from, to)
		if err != nil {
			return err
		}
		if !decision.OK {
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				SessionID: uuidPtr(sessionID),
				EventType: audit.EventActionBlockedPaused,
				Meta: map[string]any{
					"action":      "SYSTEM_TRANSITION",
					"attemptedTo": to,
					"guardReason": decision.Reason,
				},
			}, governance.CodePaused, op, "System is paused; transition blocked.")
		}

		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		insight, err := s.guard.CanEnterInsightDelivery(tx, userID)
		if err != nil {
			return err
		}
		if err := session.AssertTransitionAllowed(from, to, session.StateContext{
			HasModels: insight.OK,
			IsPaused:  pause.IsPaused,
		}); err != nil {
			return err
		}

		ok, err := s.writer.deps.Guard.UpdateIfMatch(tx, types.Session{}.TableName(), sessionID, "state", from, map[string]any{
			"state":      to,
			"updated_at": s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if err := mapInfra(op, aggregates.RequireCASSuccess(ok, "Session state changed concurrently.")); err != nil {
			return err
		}

		updated, err := s.reload(tx, sessionID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			SessionID: uuidPtr(sessionID),
			EventType: audit.EventSystemStateTransition,
			Meta:      map[string]any{"from": from, "to": to},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("system state transition", "session_id", sessionID, "to", to)
	return out, nil
}

func (s *sessionService) Bootstrap(dbc dbctx.Context) (*BootstrapResult, error) {
	const op = "system.bootstrap"
	var out *BootstrapResult
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		u, err := s.users.Create(tx.Ctx, tx.Tx, &types.User{ID: uuid.New(), CreatedAt: s.clock.Now()})
		if err != nil {
			return mapInfra(op, err)
		}
		sess, err := s.createSession(tx, u.ID, session.TypeAssessment, bootstrapSessionPurpose)
		if err != nil {
			return err
		}
		if _, err := s.contexts.EnsureUserContext(tx, u.ID); err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(u.ID),
			SessionID: uuidPtr(sess.ID),
			EventType: audit.EventBootstrapCreated,
			Meta:      map[string]any{"note": bootstrapNote},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = &BootstrapResult{UserID: u.ID, SessionID: sess.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("bootstrap created", "user_id", out.UserID, "session_id", out.SessionID)
	return out, nil
}

func (s *sessionService) createSession(tx dbctx.Context, userID uuid.UUID, sessionType session.Type, purpose string) (*types.Session, error) {
	now := s.clock.Now()
	created, err := s.sessions.Create(tx.Ctx, tx.Tx, &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      sessionType,
		Purpose:   purpose,
		Phase:     session.PhaseOpening,
		State:     session.StateUninitialized,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, mapInfra("session.create", err)
	}
	return created, nil
}

// loadOwned locks the session and checks existence and ownership.
func (s *sessionService) loadOwned(tx dbctx.Context, userID, sessionID uuid.UUID, op string) (*types.Session, error) {
	sess, err := s.sessions.LockByID(tx.Ctx, tx.Tx, sessionID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if sess == nil {
		return nil, governance.NewError(governance.CodeNotFound, op, "Session not found.", nil)
	}
	if sess.UserID != userID {
		return nil, governance.NewError(governance.CodeForbidden, op, "Session does not belong to user.", nil)
	}
	return sess, nil
}

func (s *sessionService) reload(tx dbctx.Context, sessionID uuid.UUID, op string) (*types.Session, error) {
	sess, err := s.sessions.GetByID(tx.Ctx, tx.Tx, sessionID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if sess == nil {
		return nil, governance.NewError(governance.CodeInternal, op, "Session missing after update.", nil)
	}
	return sess, nil
}
