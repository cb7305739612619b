package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type CreateVersionInput struct {
	UserID     uuid.UUID
	ModelSetID uuid.UUID
	Type       identity.ModelType
	Payload    any
}

// IdentityService stores model sets and their append-only identity versions.
// Versions are never updated; numbering is per (model set, type).
type IdentityService interface {
	CreateModelSet(dbc dbctx.Context, userID uuid.UUID) (*types.ModelSet, error)
	CreateVersion(dbc dbctx.Context, in CreateVersionInput) (*types.IdentityModelVersion, error)
	// GetLatestVersion returns nil when the model set is missing or owned by another user.
	GetLatestVersion(dbc dbctx.Context, userID, modelSetID uuid.UUID, modelType identity.ModelType) (*types.IdentityModelVersion, error)
}

type identityService struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	modelSets repos.ModelSetRepo
	versions  repos.IdentityVersionRepo
	pause     PauseChecker
	clock     clock.Clock
	writer    governedWriter
}

func NewIdentityService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	modelSets repos.ModelSetRepo,
	versions repos.IdentityVersionRepo,
	pause PauseChecker,
	sink AuditSink,
	clk clock.Clock,
) IdentityService {
	serviceLog := log.With("service", "IdentityService")
	return &identityService{
		db:        db,
		log:       serviceLog,
		users:     users,
		modelSets: modelSets,
		versions:  versions,
		pause:     pause,
		clock:     clk,
		writer:    newGovernedWriter(db, sink, serviceLog),
	}
}

func (s *identityService) CreateModelSet(dbc dbctx.Context, userID uuid.UUID) (*types.ModelSet, error) {
	const op = "identity.createModelSet"
	var out *types.ModelSet
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
			}, governance.CodePaused, op, "User is paused; cannot create ModelSet.")
		}

		now := s.clock.Now()
		ms, err := s.modelSets.Create(tx.Ctx, tx.Tx, &types.ModelSet{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    identity.ModelSetDraft,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(userID),
			EventType: audit.EventModelSetCreated,
			Meta:      map[string]any{"modelSetId": ms.ID.String(), "status": ms.Status},
			At:        now,
		}); err != nil {
			return mapInfra(op, err)
		}
		out = ms
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("model set created", "user_id", userID, "model_set_id", out.ID)
	return out, nil
}

func (s *identityService) CreateVersion(dbc dbctx.Context, in CreateVersionInput) (*types.IdentityModelVersion, error) {
	const op = "identity.createVersion"
	if !in.Type.Valid() {
		return nil, governance.NewError(governance.CodeValidation, op, "Unknown identity model type.", nil)
	}
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, governance.NewError(governance.CodeValidation, op, "Payload must be JSON-serializable.", err)
	}

	var out *types.IdentityModelVersion
	err = s.writer.run(dbc, op, func(tx dbctx.Context) error {
		blocked := func(code governance.ErrorCode, message string, extra map[string]any) error {
			meta := map[string]any{
				"modelSetId": in.ModelSetID.String(),
				"type":       in.Type,
			}
			for k, v := range extra {
				meta[k] = v
			}
			return s.writer.block(tx, AuditEntry{
				UserID:    uuidPtr(in.UserID),
				EventType: audit.EventMutationBlocked,
				Meta:      meta,
			}, code, op, message)
		}

		if err := requireUser(tx, s.users, in.UserID, op); err != nil {
			return err
		}
		pause, err := s.pause.GetEffectivePause(tx, in.UserID)
		if err != nil {
			return err
		}
		if pause.IsPaused {
			return blocked(governance.CodePaused, "User is paused; cannot create identity version.", pauseMeta(pause))
		}

		// The lock serializes numbering within the model set; the unique
		// index catches anything that slips past it.
		ms, err := s.modelSets.LockByID(tx.Ctx, tx.Tx, in.ModelSetID)
		if err != nil {
			return mapInfra(op, err)
		}
		if ms == nil {
			return blocked(governance.CodeNotFound, "ModelSet not found; cannot create identity version.", nil)
		}
		if ms.UserID != in.UserID {
			return blocked(governance.CodeForbidden, "ModelSet does not belong to user; cannot create identity version.", nil)
		}

		last, err := s.versions.MaxVersion(tx.Ctx, tx.Tx, in.ModelSetID, in.Type)
		if err != nil {
			return mapInfra(op, err)
		}
		created, err := s.versions.Create(tx.Ctx, tx.Tx, &types.IdentityModelVersion{
			ID:         uuid.New(),
			UserID:     in.UserID,
			ModelSetID: in.ModelSetID,
			Type:       in.Type,
			Version:    last + 1,
			Payload:    datatypes.JSON(payload),
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return mapInfra(op, err)
		}
		if _, err := s.writer.audit.Append(tx, AuditEntry{
			UserID:    uuidPtr(in.UserID),
			EventType: audit.EventIdentityVersionCreated,
			Meta: map[string]any{
				"modelSetId":    in.ModelSetID.String(),
				"type":          in.Type,
				"versionId":     created.ID.String(),
				"versionNumber": created.Version,
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
	s.log.Debug("identity version created",
		"user_id", in.UserID,
		"model_set_id", in.ModelSetID,
		"type", in.Type,
		"version", out.Version,
	)
	return out, nil
}

func (s *identityService) GetLatestVersion(dbc dbctx.Context, userID, modelSetID uuid.UUID, modelType identity.ModelType) (*types.IdentityModelVersion, error) {
	const op = "identity.getLatestVersion"
	ms, err := s.modelSets.GetByID(dbc.Ctx, dbc.Tx, modelSetID)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	if ms == nil || ms.UserID != userID {
		return nil, nil
	}
	v, err := s.versions.GetLatest(dbc.Ctx, dbc.Tx, modelSetID, modelType)
	if err != nil {
		return nil, mapInfra(op, err)
	}
	return v, nil
}
