package defs

import (
	"context"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/control"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type ControlFlagsTimelineOutput struct {
	System []*types.ControlFlag `json:"system"`
	User   []*types.ControlFlag `json:"user"`
}

// ControlFlagsTimeline returns the full pause history that applies to the
// user: system scope and the user's own scope.
func ControlFlagsTimeline() projection.Contract {
	return projection.Definition[*ControlFlagsTimelineOutput]{
		ProjectionName: projection.NameControlFlagsTimeline,
		Reads:          []projection.Source{projection.SourceControlFlag},
		RunFunc:        runControlFlagsTimeline,
	}
}

func runControlFlagsTimeline(ctx context.Context, pc projection.Context, in projection.Input) (*ControlFlagsTimelineOutput, error) {
	out := &ControlFlagsTimelineOutput{}
	order := projection.Ascending("created_at", "id")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := projection.Query{
			Filters: []projection.Filter{projection.Eq("scope", control.ScopeSystem)},
			Order:   order,
		}
		return pc.DB.Find(gctx, projection.SourceControlFlag, &out.System, q.Within(in.TimeRange))
	})
	g.Go(func() error {
		q := projection.Query{
			Filters: []projection.Filter{projection.Eq("scope", control.ScopeUser), projection.Eq("scope_id", in.UserID)},
			Order:   order,
		}
		return pc.DB.Find(gctx, projection.SourceControlFlag, &out.User, q.Within(in.TimeRange))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.System == nil {
		out.System = []*types.ControlFlag{}
	}
	if out.User == nil {
		out.User = []*types.ControlFlag{}
	}
	return out, nil
}
