package services

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type RecordConfidenceInput struct {
	UserID     uuid.UUID
	Domain     signal.ConfidenceDomain
	Key        string
	Value      float64
	Reason     *string
	ModelSetID *uuid.UUID
	SessionID  *uuid.UUID
}

type RecordPressureInput struct {
	UserID    uuid.UUID
	DPI       float64
	Reason    *string
	SessionID *uuid.UUID
}

// SignalService records descriptive confidence and pressure signals. Both
// stores are append-only; the latest row by creation order is current.
type SignalService interface {
	RecordConfidence(dbc dbctx.Context, in RecordConfidenceInput) (*types.ConfidenceState, error)
	GetLatestConfidence(dbc dbctx.Context, userID uuid.UUID, domain signal.ConfidenceDomain, key string) (*types.ConfidenceState, error)
	RecordPressure(dbc dbctx.Context, in RecordPressureInput) (*types.PressureState, error)
	GetLatestPressure(dbc dbctx.Context, userID uuid.UUID) (*types.PressureState, error)
}

type signalService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      repos.UserRepo
	sessions   repos.SessionRepo
	modelSets  repos.ModelSetRepo
	confidence repos.ConfidenceRepo
	pressure   repos.PressureRepo
	pause      PauseChecker
	clock      clock.Clock
	writer     governedWriter
}

func NewSignalService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	sessions repos.SessionRepo,
	modelSets repos.ModelSetRepo,
	confidence repos.ConfidenceRepo,
	pressure repos.PressureRepo,
	pause PauseChecker,
	sink AuditSink,
	clk clock.Clock,
) SignalService {
	serviceLog := log.With("service", "SignalService")
	return &signalService{
		db:         db,
		log:        serviceLog,
		users:      users,
		sessions:   sessions,
		modelSets:  modelSets,
		confidence: confidence,
		pressure:   pressure,
		pause:      pause,
		clock:      clk,
		writer:     newGovernedWriter(db, sink, serviceLog),
	}
}

func (s *signalService) RecordConfidence(dbc dbctx.Context, in RecordConfidenceInput) (*types.ConfidenceState, error) {
	const op = "signal.recordConfidence"
	if !in.Domain.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown confidence domain.", nil)
	}
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return nil, governance.NewError(governance.CodeValidation, op, "Confidence key is required.", nil)
	}

	var out *types.ConfidenceState
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		blocked := func(code governance.ErrorCode, message string, extra map[string]any) error {
			meta := map[string]any{"domain": in.Domain, "key": key}
			for k, v := range extra {
				meta[k] = v
			}
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(in.UserID),
				EventType: audit.EventConfidenceMutationBlocked,
				Meta:      meta,
			}, code, op, message)
		}

		if err := requireUser(tx, s.users, in.UserID, op); err != nil {
			return err
		}
		if math.IsNaN(in.Value) || in.Value < signal.MinConfidence || in.Value > signal.MaxConfidence {
			return blocked(governance.CodeValidation, "Confidence value must be between 0.0 and 1.0.", nil)
		}
		pause, err := s.pause.GetEffectivePause(tx, in.UserID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return blocked(governance.CodePaused, "User is paused; cannot record confidence.", pauseMeta(pause))
		}

		if in.ModelSetID != nil {
			ms, err := s.modelSets.GetByID(tx.Ctx, tx.Tx, *in.ModelSetID)
			if err != nil {
				return mapInfra(op, err)
			}
			if ms == nil {
				return blocked(governance.CodeNotFound, "ModelSet not found; cannot record confidence.", nil)
			}
			if ms.UserID != in.UserID {
				return blocked(governance.CodeForbidden, "ModelSet does not belong to user; cannot record confidence.", nil)
			}
		}
		if in.SessionID != nil {
			if err := s.checkSessionOwner(tx, in.UserID, *in.SessionID, func(code governance.ErrorCode, message string) error {
				return blocked(code, message+" cannot record confidence.", nil)
			}); err != nil {
				return err
			}
		}

		created, err := s.confidence.Create(tx.Ctx, tx.Tx, &types.ConfidenceState{
			ID:         uuid.New(),
			UserID:     in.UserID,
			Domain:     in.Domain,
			Key:        key,
			Value:      in.Value,
			Reason:     in.Reason,
			ModelSetID: in.ModelSetID,
			SessionID:  in.SessionID,
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(in.UserID),
			SessionID: in.SessionID,
			EventType: audit.EventConfidenceRecorded,
			Meta: map[string]any{
				"domain": in.Domain,
				"key":    key,
				"value":  in.Value,
				"reason": stringOrNil(in.Reason),
			},
			At: created.CreatedAt,
		}); err != nil {
			return mapInfra(op, err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *signalService) GetLatestConfidence(dbc dbctx.Context, userID uuid.UUID, domain signal.ConfidenceDomain, key string) (*types.ConfidenceState, error) {
	c, err := s.confidence.GetLatest(dbc.Ctx, dbc.Tx, userID, domain, strings.TrimSpace(key))
	if err != nil {
		return nil, mapInfra("signal.getLatestConfidence", err)
	}
	return c, nil
}

func (s *signalService) RecordPressure(dbc dbctx.Context, in RecordPressureInput) (*types.PressureState, error) {
	const op = "signal.recordPressure"
	var out *types.PressureState
	err := s.writer.run(dbc, op, func(tx dbctx.Context) error {
		blocked := func(code governance.ErrorCode, message string, extra map[string]any) error {
			meta := map[string]any{"dpi": finiteOrNil(in.DPI)}
			for k, v := range extra {
				meta[k] = v
			}
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(in.UserID),
				EventType: audit.EventPressureMutationBlocked,
				Meta:      meta,
			}, code, op, message)
		}

		if err := requireUser(tx, s.users, in.UserID, op); err != nil {
			return err
		}
		level, err := signal.DeriveLevel(in.DPI)
		if err != nil {
			return blocked(governance.CodeValidation, governance.MessageOf(err), nil)
		}
		pause, err := s.pause.GetEffectivePause(tx, in.UserID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return blocked(governance.CodePaused, "User is paused; cannot record pressure.", pauseMeta(pause))
		}
		if in.SessionID != nil {
			if err := s.checkSessionOwner(tx, in.UserID, *in.SessionID, func(code governance.ErrorCode, message string) error {
				return blocked(code, message+" cannot record pressure.", nil)
			}); err != nil {
				return err
			}
		}

		created, err := s.pressure.Create(tx.Ctx, tx.Tx, &types.PressureState{
			ID:        uuid.New(),
			UserID:    in.UserID,
			DPI:       in.DPI,
			Level:     level,
			Reason:    in.Reason,
			SessionID: in.SessionID,
			CreatedAt: s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(in.UserID),
			SessionID: in.SessionID,
			EventType: audit.EventPressureRecorded,
			Meta: map[string]any{
				"dpi":    in.DPI,
				"level":  level,
				"reason": stringOrNil(in.Reason),
			},
			At: created.CreatedAt,
		}); err != nil {
			return mapInfra(op, err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *signalService) GetLatestPressure(dbc dbctx.Context, userID uuid.UUID) (*types.PressureState, error) {
	p, err := s.pressure.GetLatest(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, mapInfra("signal.getLatestPressure", err)
	}
	return p, nil
}

func (s *signalService) checkSessionOwner(tx dbctx.Context, userID, sessionID uuid.UUID, block func(governance.ErrorCode, string) error) error {
	sess, err := s.sessions.GetByID(tx.Ctx, tx.Tx, sessionID)
	if err != nil {
		return mapInfra("signal.checkSession", err)
	}
	if sess == nil {
		return block(governance.CodeNotFound, "Session not found;")
	}
	if sess.UserID != userID {
		return block(governance.CodeForbidden, "Session does not belong to user;")
	}
	return nil
}

// finiteOrNil keeps NaN and Inf out of JSON audit meta.
func finiteOrNil(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
