package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type IdentityVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, v *types.IdentityModelVersion) (*types.IdentityModelVersion, error)
	// MaxVersion returns 0 when the (model set, type) partition is empty.
	MaxVersion(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID, modelType identity.ModelType) (int, error)
	// GetLatest returns nil, nil when the partition is empty.
	GetLatest(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID, modelType identity.ModelType) (*types.IdentityModelVersion, error)
	CountByModelSet(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (int64, error)
}

type identityVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityVersionRepo(db *gorm.DB, baseLog *logger.Logger) IdentityVersionRepo {
	repoLog := baseLog.With("repo", "IdentityVersionRepo")
	return &identityVersionRepo{db: db, log: repoLog}
}

func (r *identityVersionRepo) Create(ctx context.Context, tx *gorm.DB, v *types.IdentityModelVersion) (*types.IdentityModelVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *identityVersionRepo) MaxVersion(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID, modelType identity.ModelType) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var max sql.NullInt64
	if err := transaction.WithContext(ctx).
		Model(&types.IdentityModelVersion{}).
		Where("model_set_id = ? AND type = ?", modelSetID, modelType).
		Select("MAX(version)").
		Row().
		Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *identityVersionRepo) GetLatest(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID, modelType identity.ModelType) (*types.IdentityModelVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var v types.IdentityModelVersion
	err := transaction.WithContext(ctx).
		Where("model_set_id = ? AND type = ?", modelSetID, modelType).
		Order("version DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *identityVersionRepo) CountByModelSet(ctx context.Context, tx *gorm.DB, modelSetID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.IdentityModelVersion{}).
		Where("model_set_id = ?", modelSetID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
