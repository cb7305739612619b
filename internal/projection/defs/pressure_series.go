package defs

import (
	"context"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type PressureSeriesOutput struct {
	Points []*types.PressureState `json:"points"`
	Count  int64                  `json:"count"`
	MinDPI *float64               `json:"minDpi"`
	MaxDPI *float64               `json:"maxDpi"`
	AvgDPI *float64               `json:"avgDpi"`
}

// PressureSeries returns DPI rows oldest first plus range statistics.
func PressureSeries() projection.Contract {
	return projection.Definition[*PressureSeriesOutput]{
		ProjectionName: projection.NamePressureSeries,
		Reads:          []projection.Source{projection.SourcePressureState},
		RunFunc:        runPressureSeries,
	}
}

func runPressureSeries(ctx context.Context, pc projection.Context, in projection.Input) (*PressureSeriesOutput, error) {
	q := projection.Query{Filters: []projection.Filter{projection.Eq("user_id", in.UserID)}}
	if in.SessionID != nil {
		q.Filters = append(q.Filters, projection.Eq("session_id", *in.SessionID))
	}
	q = q.Within(in.TimeRange)

	var (
		points []*types.PressureState
		stats  projection.AggregateResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ordered := q
		ordered.Order = projection.Ascending("created_at", "id")
		return pc.DB.Find(gctx, projection.SourcePressureState, &points, ordered)
	})
	g.Go(func() error {
		var err error
		stats, err = pc.DB.Aggregate(gctx, projection.SourcePressureState, "dpi", q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if points == nil {
		points = []*types.PressureState{}
	}
	return &PressureSeriesOutput{
		Points: points,
		Count:  stats.Count,
		MinDPI: stats.Min,
		MaxDPI: stats.Max,
		AvgDPI: stats.Avg,
	}, nil
}
