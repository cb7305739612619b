package signal

import (
	"context"
	"testing"

	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
)

func TestConfidenceRepo_LatestPerKey(t *testing.T) {
	db := testutil.DB(t)
	clk := testutil.Clock(t)
	repo := NewConfidenceRepo(db, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db)

	for _, row := range []struct {
		key   string
		value float64
	}{{"cim", 0.4}, {"other", 0.9}, {"cim", 0.7}} {
		if _, err := repo.Create(ctx, nil, &types.ConfidenceState{
			UserID:    u.ID,
			Domain:    signal.DomainIdentityModel,
			Key:       row.key,
			Value:     row.value,
			CreatedAt: clk.Now(),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	latest, err := repo.GetLatest(ctx, nil, u.ID, signal.DomainIdentityModel, "cim")
	if err != nil || latest == nil || latest.Value != 0.7 {
		t.Fatalf("GetLatest = %+v, %v", latest, err)
	}
	missing, err := repo.GetLatest(ctx, nil, u.ID, signal.DomainSystem, "cim")
	if err != nil || missing != nil {
		t.Fatalf("expected no SYSTEM value, got %+v, %v", missing, err)
	}
}

func TestPressureRepo_Latest(t *testing.T) {
	db := testutil.DB(t)
	clk := testutil.Clock(t)
	repo := NewPressureRepo(db, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db)

	for _, dpi := range []float64{10, 60} {
		level, _ := signal.DeriveLevel(dpi)
		if _, err := repo.Create(ctx, nil, &types.PressureState{UserID: u.ID, DPI: dpi, Level: level, CreatedAt: clk.Now()}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	latest, err := repo.GetLatest(ctx, nil, u.ID)
	if err != nil || latest == nil || latest.Level != signal.PressureHigh {
		t.Fatalf("GetLatest = %+v, %v", latest, err)
	}
}
