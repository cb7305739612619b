package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type AuditEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, e *types.AuditEvent) (*types.AuditEvent, error)
	// ListByUser returns events ascending; an empty eventTypes means all types.
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes ...audit.EventType) ([]*types.AuditEvent, error)
	CountByType(ctx context.Context, tx *gorm.DB, eventType audit.EventType) (int64, error)
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	repoLog := baseLog.With("repo", "AuditEventRepo")
	return &auditEventRepo{db: db, log: repoLog}
}

func (r *auditEventRepo) Create(ctx context.Context, tx *gorm.DB, e *types.AuditEvent) (*types.AuditEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (r *auditEventRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes ...audit.EventType) ([]*types.AuditEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if len(eventTypes) > 0 {
		q = q.Where("event_type IN ?", eventTypes)
	}
	var results []*types.AuditEvent
	if err := q.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *auditEventRepo) CountByType(ctx context.Context, tx *gorm.DB, eventType audit.EventType) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AuditEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
