package signal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type ConfidenceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.ConfidenceState) (*types.ConfidenceState, error)
	// GetLatest returns nil, nil when no value was recorded for the key.
	GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID, domain signal.ConfidenceDomain, key string) (*types.ConfidenceState, error)
}

type confidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConfidenceRepo(db *gorm.DB, baseLog *logger.Logger) ConfidenceRepo {
	repoLog := baseLog.With("repo", "ConfidenceRepo")
	return &confidenceRepo{db: db, log: repoLog}
}

func (r *confidenceRepo) Create(ctx context.Context, tx *gorm.DB, c *types.ConfidenceState) (*types.ConfidenceState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *confidenceRepo) GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID, domain signal.ConfidenceDomain, key string) (*types.ConfidenceState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.ConfidenceState
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND domain = ? AND signal_key = ?", userID, domain, key).
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
