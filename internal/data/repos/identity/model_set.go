package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type ModelSetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ms *types.ModelSet) (*types.ModelSet, error)
	// GetByID returns nil, nil when the model set does not exist.
	GetByID(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (*types.ModelSet, error)
	// LockByID reads the row FOR UPDATE.
	LockByID(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (*types.ModelSet, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ModelSet, error)
}

type modelSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelSetRepo(db *gorm.DB, baseLog *logger.Logger) ModelSetRepo {
	repoLog := baseLog.With("repo", "ModelSetRepo")
	return &modelSetRepo{db: db, log: repoLog}
}

func (r *modelSetRepo) Create(ctx context.Context, tx *gorm.DB, ms *types.ModelSet) (*types.ModelSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(ms).Error; err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *modelSetRepo) GetByID(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (*types.ModelSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ms types.ModelSet
	err := transaction.WithContext(ctx).Where("id = ?", modelSetID).First(&ms).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

func (r *modelSetRepo) LockByID(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (*types.ModelSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return r.GetByID(ctx, transaction.Clauses(clause.Locking{Strength: "UPDATE"}), modelSetID)
}

func (r *modelSetRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ModelSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ModelSet
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
