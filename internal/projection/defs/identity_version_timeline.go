package defs

import (
	"context"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type IdentityVersionTimelineOutput struct {
	ModelSet *types.ModelSet              `json:"modelSet"`
	Versions []*types.IdentityModelVersion `json:"versions"`
}

// IdentityVersionTimeline lists every version in one model set ordered by
// type then version.
func IdentityVersionTimeline() projection.Contract {
	return projection.Definition[*IdentityVersionTimelineOutput]{
		ProjectionName: projection.NameIdentityVersionTimeline,
		Reads:          []projection.Source{projection.SourceModelSet, projection.SourceIdentityModelVersion},
		ValidateFunc: func(in projection.Input) error {
			if in.ModelSetID == nil || *in.ModelSetID == "" {
				return projection.Invalid("modelSetId is required for %s.", projection.NameIdentityVersionTimeline)
			}
			return nil
		},
		RunFunc: runIdentityVersionTimeline,
	}
}

func runIdentityVersionTimeline(ctx context.Context, pc projection.Context, in projection.Input) (*IdentityVersionTimelineOutput, error) {
	modelSetID := *in.ModelSetID
	var (
		modelSet types.ModelSet
		found    bool
		versions []*types.IdentityModelVersion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := pc.DB.First(gctx, projection.SourceModelSet, &modelSet, projection.Query{
			Filters: []projection.Filter{projection.Eq("id", modelSetID), projection.Eq("user_id", in.UserID)},
		})
		found = ok
		return err
	})
	g.Go(func() error {
		q := projection.Query{
			Filters: []projection.Filter{projection.Eq("model_set_id", modelSetID), projection.Eq("user_id", in.UserID)},
			Order:   projection.Ascending("type", "version"),
		}
		return pc.DB.Find(gctx, projection.SourceIdentityModelVersion, &versions, q.Within(in.TimeRange))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &IdentityVersionTimelineOutput{Versions: versions}
	if out.Versions == nil {
		out.Versions = []*types.IdentityModelVersion{}
	}
	if found {
		out.ModelSet = &modelSet
	}
	return out, nil
}
