package control

import (
	"context"
	"testing"

	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/control"
)

func TestControlFlagRepo_LatestFollowsHead(t *testing.T) {
	db := testutil.DB(t)
	clk := testutil.Clock(t)
	repo := NewControlFlagRepo(db, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db)

	latest, err := repo.GetLatest(ctx, nil, control.ScopeUser, &u.ID)
	if err != nil {
		t.Fatalf("GetLatest (empty): %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no flag yet, got %+v", latest)
	}

	for _, paused := range []bool{true, false, true} {
		if _, err := repo.Append(ctx, nil, &types.ControlFlag{
			Scope:     control.ScopeUser,
			ScopeID:   &u.ID,
			Paused:    paused,
			CreatedAt: clk.Now(),
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	latest, err = repo.GetLatest(ctx, nil, control.ScopeUser, &u.ID)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || !latest.Paused {
		t.Fatalf("expected latest paused flag, got %+v", latest)
	}

	history, err := repo.ListByScope(ctx, nil, control.ScopeUser, &u.ID)
	if err != nil {
		t.Fatalf("ListByScope: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected full history of 3 flags, got %d", len(history))
	}
}

func TestControlFlagRepo_SystemScopeDropsID(t *testing.T) {
	db := testutil.DB(t)
	repo := NewControlFlagRepo(db, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db)

	flag, err := repo.Append(ctx, testutil.Tx(t, db), &types.ControlFlag{
		Scope:     control.ScopeSystem,
		ScopeID:   &u.ID,
		Paused:    true,
		CreatedAt: testutil.Epoch,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if flag.ScopeID != nil {
		t.Fatalf("system flag must not carry a scope id")
	}
}
