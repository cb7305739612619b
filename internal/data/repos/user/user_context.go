package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type UserContextRepo interface {
	// CreateIfAbsent inserts the row unless one already exists for the user.
	// It reports whether this call created it.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, uc *types.UserContext) (bool, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserContext, error)
	// LockByUserID reads the row under a row lock where the dialect supports it.
	LockByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserContext, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type userContextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserContextRepo(db *gorm.DB, baseLog *logger.Logger) UserContextRepo {
	repoLog := baseLog.With("repo", "UserContextRepo")
	return &userContextRepo{db: db, log: repoLog}
}

func (r *userContextRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, uc *types.UserContext) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(uc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userContextRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserContext, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return firstContext(transaction.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *userContextRepo) LockByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserContext, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return firstContext(transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID))
}

func (r *userContextRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.UserContext{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func firstContext(q *gorm.DB) (*types.UserContext, error) {
	var uc types.UserContext
	err := q.First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &uc, nil
}
