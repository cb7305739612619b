package signal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type PressureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.PressureState) (*types.PressureState, error)
	// GetLatest returns nil, nil when the user has no samples.
	GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PressureState, error)
}

type pressureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPressureRepo(db *gorm.DB, baseLog *logger.Logger) PressureRepo {
	repoLog := baseLog.With("repo", "PressureRepo")
	return &pressureRepo{db: db, log: repoLog}
}

func (r *pressureRepo) Create(ctx context.Context, tx *gorm.DB, p *types.PressureState) (*types.PressureState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pressureRepo) GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PressureState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.PressureState
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
