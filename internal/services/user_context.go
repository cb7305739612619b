package services

import (
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

// UserContextService owns the single mutable anchor row per user.
type UserContextService interface {
	EnsureUserContext(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error)
	SetLastClosedSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.UserContext, error)
	ActivateModelSet(dbc dbctx.Context, userID, modelSetID uuid.UUID) (*types.UserContext, error)
	ClearActiveModelSet(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error)
	// ResetUserContext is not pause-guarded: a paused user can always reset.
	ResetUserContext(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error)
}

type userContextService struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	contexts  repos.UserContextRepo
	sessions  repos.SessionRepo
	modelSets repos.ModelSetRepo
	pause     PauseChecker
	clock     clock.Clock
	writer    governedWriter
}

func NewUserContextService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	contexts repos.UserContextRepo,
	sessions repos.SessionRepo,
	modelSets repos.ModelSetRepo,
	pause PauseChecker,
	sink AuditSink,
	clk clock.Clock,
) UserContextService {
	serviceLog := log.With("service", "UserContextService")
	return &userContextService{
		db:        db,
		log:       serviceLog,
		users:     users,
		contexts:  contexts,
		sessions:  sessions,
		modelSets: modelSets,
		pause:     pause,
		clock:     clk,
		writer:    newGovernedWriter(db, sink, serviceLog),
	}
}

func (s *userContextService) EnsureUserContext(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error) {
	var out *types.UserContext
	err := s.writer.run(dbc, "userContext.ensure", func(tx dbctx.Context) error {
		uc, err := s.ensure(tx, userID)
		out = uc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ensure must run inside a transaction.
func (s *userContextService) ensure(tx dbctx.Context, userID uuid.UUID) (*types.UserContext, error) {
	const op = "userContext.ensure"
	existing, err := s.contexts.GetByUserID(tx.Ctx, tx.Tx, userID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if existing != nil {
		return existing, nil
	}
	if err := requireUser(tx, s.users, userID, op); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created, err := s.contexts.CreateIfAbsent(tx.Ctx, tx.Tx, &types.UserContext{
		ID:             uuid.New(),
		UserID:         userID,
		ContextVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, mapInfra(op, err)
	}
	uc, err := s.contexts.GetByUserID(tx.Ctx, tx.Tx, userID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if uc == nil {
		return nil, governance.NewError(governance.CodeInternal, op, "UserContext missing after create.", nil)
	}
	if created {
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			EventType: audit.EventUserContextCreated,
			Meta:      map[string]any{"contextVersion": uc.ContextVersion},
		}); err != nil {
			return nil, mapInfra(op, err)
		}
		s.log.Debug("user context created", "user_id", userID)
	}
	return uc, nil
}

func (s *userContextService) SetLastClosedSession(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.UserContext, error) {
	const op = "userContext.setLastClosedSession"
	var out *types.UserContext
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		blocked := func(code governance.ErrorCode, message string, extra map[string]any) error {
			meta := map[string]any{"sessionId": sessionID.String()}
			for k, v := range extra {
				meta[k] = v
			}
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				SessionID: uuidPtr(sessionID),
				EventType: audit.EventMutationBlocked,
				Meta:      meta,
			}, code, op, message)
		}

		if err := requireUser(tx, s.users, userID, op); err != nil {
			return err
		}
		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return blocked(governance.CodePaused, "User is paused; cannot set lastClosedSessionId.", pauseMeta(pause))
		}

		uc, err := s.ensure(tx, userID)
		if err != nil {
			return err
		}
		if uc, err = s.lockContext(tx, userID, op); err != nil {
			return err
		}

		sess, err := s.sessions.LockByID(tx.Ctx, tx.Tx, sessionID)
		if err != nil {
			return mapInfra(op, err)
		}
		if sess == nil {
			// The session id may not exist, so the audit row must not reference it.
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				EventType: audit.EventMutationBlocked,
				Meta:      map[string]any{"sessionId": sessionID.String()},
			}, governance.CodeNotFound, op, "Session not found; cannot set lastClosedSessionId.")
		}
		if sess.UserID != userID {
			return blocked(governance.CodeForbidden, "Session does not belong to user; cannot set lastClosedSessionId.", nil)
		}
		if !session.IsClosed(sess) {
			return blocked(governance.CodeInvariantViolation, "Session is not CLOSED; cannot set lastClosedSessionId.", nil)
		}

		if err := s.contexts.UpdateFields(tx.Ctx, tx.Tx, uc.ID, map[string]any{
			"last_closed_session_id": sessionID,
			"updated_at":             s.clock.Now(),
		}); err != nil {
			return mapInfra(op, err)
		}
		updated, err := s.lockContext(tx, userID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			SessionID: uuidPtr(sessionID),
			EventType: audit.EventUserContextLastSessionSet,
			Meta:      map[string]any{"contextVersion": updated.ContextVersion},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userContextService) ActivateModelSet(dbc dbctx.Context, userID, modelSetID uuid.UUID) (*types.UserContext, error) {
	const op = "userContext.activateModelSet"
	var out *types.UserContext
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		blocked := func(code governance.ErrorCode, message string, extra map[string]any) error {
			meta := map[string]any{"modelSetId": modelSetID.String()}
			for k, v := range extra {
				meta[k] = v
			}
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				EventType: audit.EventMutationBlocked,
				Meta:      meta,
			}, code, op, message)
		}

		if err := requireUser(tx, s.users, userID, op); err != nil {
			return err
		}
		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return blocked(governance.CodePaused, "User is paused; cannot activate ModelSet.", pauseMeta(pause))
		}

		uc, err := s.ensure(tx, userID)
		if err != nil {
			return err
		}
		ms, err := s.modelSets.GetByID(tx.Ctx, tx.Tx, modelSetID)
		if err != nil {
			return mapInfra(op, err)
		}
		if ms == nil {
			return blocked(governance.CodeNotFound, "ModelSet not found; cannot activate ModelSet.", nil)
		}
		if ms.UserID != userID {
			return blocked(governance.CodeForbidden, "ModelSet does not belong to user; cannot activate ModelSet.", nil)
		}

		if err := s.contexts.UpdateFields(tx.Ctx, tx.Tx, uc.ID, map[string]any{
			"active_model_set_id": modelSetID,
			"updated_at":          s.clock.Now(),
		}); err != nil {
			return mapInfra(op, err)
		}
		updated, err := s.lockContext(tx, userID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			EventType: audit.EventUserContextModelSetActivated,
			Meta: map[string]any{
				"modelSetId":     modelSetID.String(),
				"contextVersion": updated.ContextVersion,
			},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userContextService) ClearActiveModelSet(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error) {
	const op = "userContext.clearActiveModelSet"
	var out *types.UserContext
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		if err := requireUser(tx, s.users, userID, op); err != nil {
			return err
		}
		pause, err := s.pause.GetEffectivePause(tx, userID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(userID),
				EventType: audit.EventMutationBlocked,
				Meta:      pauseMeta(pause),
			}, governance.CodePaused, op, "User is paused; cannot clear active ModelSet.")
		}

		uc, err := s.ensure(tx, userID)
		if err != nil {
			return err
		}
		if err := s.contexts.UpdateFields(tx.Ctx, tx.Tx, uc.ID, map[string]any{
			"active_model_set_id": nil,
			"updated_at":          s.clock.Now(),
		}); err != nil {
			return mapInfra(op, err)
		}
		updated, err := s.lockContext(tx, userID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			EventType: audit.EventUserContextModelSetCleared,
			Meta:      map[string]any{"contextVersion": updated.ContextVersion},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userContextService) ResetUserContext(dbc dbctx.Context, userID uuid.UUID) (*types.UserContext, error) {
	const op = "userContext.reset"
	var out *types.UserContext
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		if _, err := s.ensure(tx, userID); err != nil {
			return err
		}
		uc, err := s.lockContext(tx, userID, op)
		if err != nil {
			return err
		}

		ok, err := s.writer.deps.Guard.UpdateByVersion(tx, types.UserContext{}.TableName(), uc.ID, "context_version", uc.ContextVersion, map[string]any{
			"last_closed_session_id": nil,
			"active_model_set_id":    nil,
			"context_version":        uc.ContextVersion + 1,
			"updated_at":             s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if err := mapInfra(op, aggregates.RequireCASSuccess(ok, "UserContext changed concurrently; reset not applied.")); err != nil {
			return err
		}

		updated, err := s.lockContext(tx, userID, op)
		if err != nil {
			return err
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			EventType: audit.EventUserContextReset,
			Meta:      map[string]any{"contextVersion": updated.ContextVersion},
		}); err != nil {
			return mapInfra(op, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user context reset", "user_id", userID, "context_version", out.ContextVersion)
	return out, nil
}

func (s *userContextService) lockContext(tx dbctx.Context, userID uuid.UUID, op string) (*types.UserContext, error) {
	uc, err := s.contexts.LockByUserID(tx.Ctx, tx.Tx, userID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if uc == nil {
		return nil, governance.NewError(governance.CodeInternal, op, "UserContext missing.", nil)
	}
	return uc, nil
}

func requireUser(dbc dbctx.Context, users repos.UserRepo, userID uuid.UUID, op string) error {
	ok, err := users.Exists(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return mapInfra(op, err)
	}
	if !ok {
		return governance.NewError(governance.CodeNotFound, op, "User not found.", nil)
	}
	return nil
}

func pauseMeta(p EffectivePause) map[string]any {
	return map[string]any{
		"pauseScope":  p.Scope,
		"pauseReason": stringOrNil(p.Reason),
	}
}
