package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/domain/session"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.User {
	tb.Helper()
	u := &types.User{ID: uuid.New(), CreatedAt: Epoch}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedSession inserts a session directly, bypassing the guarded service.
func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, phase session.Phase, state session.State, closedAt *time.Time) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      session.TypeAssessment,
		Phase:     phase,
		State:     state,
		ClosedAt:  closedAt,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedModelSet(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.ModelSet {
	tb.Helper()
	ms := &types.ModelSet{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    identity.ModelSetDraft,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	if err := tx.WithContext(ctx).Create(ms).Error; err != nil {
		tb.Fatalf("seed model set: %v", err)
	}
	return ms
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
