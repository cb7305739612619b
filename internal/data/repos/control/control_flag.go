package control

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/control"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type ControlFlagRepo interface {
	// Append inserts an immutable flag and moves the scope key's head to it.
	Append(ctx context.Context, tx *gorm.DB, flag *types.ControlFlag) (*types.ControlFlag, error)
	// GetLatest returns nil, nil when the scope key has no flags.
	GetLatest(ctx context.Context, tx *gorm.DB, scope control.Scope, scopeID *uuid.UUID) (*types.ControlFlag, error)
	ListByScope(ctx context.Context, tx *gorm.DB, scope control.Scope, scopeID *uuid.UUID) ([]*types.ControlFlag, error)
}

type controlFlagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewControlFlagRepo(db *gorm.DB, baseLog *logger.Logger) ControlFlagRepo {
	repoLog := baseLog.With("repo", "ControlFlagRepo")
	return &controlFlagRepo{db: db, log: repoLog}
}

func (r *controlFlagRepo) Append(ctx context.Context, tx *gorm.DB, flag *types.ControlFlag) (*types.ControlFlag, error) {
	if flag.Scope == control.ScopeSystem {
		flag.ScopeID = nil
	}
	write := func(txx *gorm.DB) error {
		if err := txx.Create(flag).Error; err != nil {
			return err
		}
		head := &types.ControlFlagHead{
			ScopeKey:  control.ScopeKey(flag.Scope, flag.ScopeID),
			FlagID:    flag.ID,
			UpdatedAt: flag.CreatedAt,
		}
		return txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"flag_id", "updated_at"}),
		}).Create(head).Error
	}

	var err error
	if tx != nil {
		err = write(tx.WithContext(ctx))
	} else {
		err = r.db.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		return nil, err
	}
	return flag, nil
}

func (r *controlFlagRepo) GetLatest(ctx context.Context, tx *gorm.DB, scope control.Scope, scopeID *uuid.UUID) (*types.ControlFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var head types.ControlFlagHead
	err := transaction.WithContext(ctx).
		Where("scope_key = ?", control.ScopeKey(scope, scopeID)).
		First(&head).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var flag types.ControlFlag
	if err := transaction.WithContext(ctx).Where("id = ?", head.FlagID).First(&flag).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *controlFlagRepo) ListByScope(ctx context.Context, tx *gorm.DB, scope control.Scope, scopeID *uuid.UUID) ([]*types.ControlFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("scope = ?", scope)
	if scope == control.ScopeSystem || scopeID == nil {
		q = q.Where("scope_id IS NULL")
	} else {
		q = q.Where("scope_id = ?", *scopeID)
	}
	var results []*types.ControlFlag
	if err := q.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
