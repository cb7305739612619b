package identity

import (
	"context"
	"testing"

	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"gorm.io/datatypes"
)

func TestIdentityVersionRepo(t *testing.T) {
	db := testutil.DB(t)
	clk := testutil.Clock(t)
	repo := NewIdentityVersionRepo(db, testutil.Logger(t))
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db)
	ms := testutil.SeedModelSet(t, ctx, db, u.ID)

	max, err := repo.MaxVersion(ctx, nil, ms.ID, identity.ModelTypeCIM)
	if err != nil {
		t.Fatalf("MaxVersion (empty): %v", err)
	}
	if max != 0 {
		t.Fatalf("expected 0 for empty partition, got %d", max)
	}

	for v := 1; v <= 2; v++ {
		if _, err := repo.Create(ctx, nil, &types.IdentityModelVersion{
			UserID:     u.ID,
			ModelSetID: ms.ID,
			Type:       identity.ModelTypeCIM,
			Version:    v,
			Payload:    datatypes.JSON([]byte(`{}`)),
			CreatedAt:  clk.Now(),
		}); err != nil {
			t.Fatalf("Create v%d: %v", v, err)
		}
	}

	max, err = repo.MaxVersion(ctx, nil, ms.ID, identity.ModelTypeCIM)
	if err != nil || max != 2 {
		t.Fatalf("MaxVersion = %d, %v; want 2", max, err)
	}
	if max, _ := repo.MaxVersion(ctx, nil, ms.ID, identity.ModelTypeFIM); max != 0 {
		t.Fatalf("FIM partition must be independent, got %d", max)
	}

	latest, err := repo.GetLatest(ctx, nil, ms.ID, identity.ModelTypeCIM)
	if err != nil || latest == nil || latest.Version != 2 {
		t.Fatalf("GetLatest = %+v, %v", latest, err)
	}

	_, err = repo.Create(ctx, nil, &types.IdentityModelVersion{
		UserID:     u.ID,
		ModelSetID: ms.ID,
		Type:       identity.ModelTypeCIM,
		Version:    2,
		CreatedAt:  clk.Now(),
	})
	if err == nil {
		t.Fatalf("duplicate version must violate the partition index")
	}

	count, err := repo.CountByModelSet(ctx, nil, ms.ID)
	if err != nil || count != 2 {
		t.Fatalf("CountByModelSet = %d, %v", count, err)
	}
}
